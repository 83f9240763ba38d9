package provider

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrorKind classifies a failed provider call.
type ErrorKind string

const (
	KindAuth            ErrorKind = "AUTH"
	KindAccessDenied    ErrorKind = "ACCESS_DENIED"
	KindRateLimited     ErrorKind = "RATE_LIMITED"
	KindUnavailable     ErrorKind = "UNAVAILABLE"
	KindContextTooLarge ErrorKind = "CONTEXT_TOO_LARGE"
	KindTimeout         ErrorKind = "TIMEOUT"
	KindNetwork         ErrorKind = "NETWORK"
	KindEmptyResponse   ErrorKind = "EMPTY_RESPONSE"
	KindUnknown         ErrorKind = "UNKNOWN"
)

var retryableKinds = map[ErrorKind]bool{
	KindRateLimited:   true,
	KindUnavailable:   true,
	KindTimeout:       true,
	KindNetwork:       true,
	KindEmptyResponse: true,
}

// Error is a classified provider failure. It is created once per failed call
// and never mutated.
type Error struct {
	Kind       ErrorKind
	Message    string
	Retryable  bool
	StatusCode int
	Provider   ID
	Model      string
}

// NewError builds an Error with the default retryability for kind.
func NewError(kind ErrorKind, id ID, model, message string) *Error {
	return &Error{
		Kind:      kind,
		Message:   message,
		Retryable: retryableKinds[kind],
		Provider:  id,
		Model:     model,
	}
}

// Error renders an actionable message for the kind, followed by the
// provider's own detail when present.
func (e *Error) Error() string {
	name := string(e.Provider)
	if name == "" {
		name = "provider"
	}
	var head string
	switch e.Kind {
	case KindAuth:
		head = fmt.Sprintf("authentication with %s failed: check the API key in settings", name)
	case KindAccessDenied:
		head = fmt.Sprintf("access denied by %s: the API key does not have access to model %q", name, e.Model)
	case KindRateLimited:
		head = fmt.Sprintf("%s rate limit reached: wait a moment and try again", name)
	case KindUnavailable:
		head = fmt.Sprintf("%s is temporarily unavailable: try again shortly", name)
	case KindContextTooLarge:
		head = fmt.Sprintf("too much input for %s model %q: select fewer tabs", name, e.Model)
	case KindTimeout:
		head = fmt.Sprintf("%s request timed out", name)
	case KindNetwork:
		head = fmt.Sprintf("could not reach %s: check the network connection", name)
	case KindEmptyResponse:
		head = fmt.Sprintf("%s returned an empty response", name)
	default:
		head = fmt.Sprintf("%s request failed", name)
	}
	if e.Message == "" {
		return head
	}
	return head + ": " + e.Message
}

// CreditsExhausted reports whether the failure looks like an exhausted
// account balance rather than a transient condition.
func (e *Error) CreditsExhausted() bool {
	if e.StatusCode == http.StatusPaymentRequired {
		return true
	}
	msg := strings.ToLower(e.Message)
	for _, marker := range []string{"insufficient credits", "insufficient_quota", "credit balance", "more credits", "exceeded your current quota"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsRetryable reports whether err is a provider Error marked retryable.
func IsRetryable(err error) bool {
	var perr *Error
	return errors.As(err, &perr) && perr.Retryable
}

var contextTooLargeMarkers = []string{
	"context_length_exceeded",
	"context length",
	"maximum context",
	"prompt is too long",
	"too many tokens",
	"input is too long",
	"exceeds the maximum number of tokens",
}

// Classify maps a non-2xx provider response to an Error.
func Classify(id ID, model string, status int, body []byte) *Error {
	msg := rawMessage(body)
	lower := strings.ToLower(string(body))

	var kind ErrorKind
	switch {
	case status == http.StatusUnauthorized:
		kind = KindAuth
	case status == http.StatusForbidden:
		kind = KindAccessDenied
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusInternalServerError,
		status == http.StatusBadGateway,
		status == http.StatusServiceUnavailable,
		status == http.StatusGatewayTimeout,
		status == 529:
		kind = KindUnavailable
	case status == http.StatusRequestEntityTooLarge:
		kind = KindContextTooLarge
	case status == http.StatusBadRequest && containsAny(lower, contextTooLargeMarkers):
		kind = KindContextTooLarge
	case status == http.StatusBadRequest && strings.Contains(lower, "api key not valid"):
		// Gemini reports bad keys as 400.
		kind = KindAuth
	default:
		kind = KindUnknown
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d %s", status, http.StatusText(status))
		}
	}

	err := NewError(kind, id, model, msg)
	err.StatusCode = status
	return err
}

const maxRawMessageLen = 300

// rawMessage pulls the provider's own error text out of common body shapes.
func rawMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "error", "message", "detail", "0.error.message"} {
			r := gjson.GetBytes(body, path)
			if r.Type == gjson.String && strings.TrimSpace(r.String()) != "" {
				return truncate(strings.TrimSpace(r.String()), maxRawMessageLen)
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)), maxRawMessageLen)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
