// Package executor performs a single HTTP POST to a provider and turns the
// outcome into a response body or a classified provider.Error.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mhismail3/moosetabs/internal/logging"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/provider"
)

// DefaultTimeout bounds a request that does not set its own.
const DefaultTimeout = 30 * time.Second

// Request is one prepared provider call.
type Request struct {
	Provider provider.ID
	Model    string
	// URL may carry the credential (Gemini) and is never logged.
	URL     string
	Headers map[string]string
	Body    []byte
	Timeout time.Duration
}

// Executor sends provider requests. It never retries; retry policy belongs
// to the caller.
type Executor struct {
	http    *resty.Client
	metrics *metrics.Collector
	logger  *slog.Logger
}

// New returns an Executor over client. A nil client uses http.DefaultClient
// settings.
func New(client *http.Client, m *metrics.Collector) *Executor {
	var rc *resty.Client
	if client != nil {
		rc = resty.NewWithClient(client)
	} else {
		rc = resty.New()
	}
	rc.SetDisableWarn(true)
	return &Executor{http: rc, metrics: m, logger: logging.Logger()}
}

// Do posts req.Body to req.URL and returns the 2xx response body.
//
// Deadline expiry yields a retryable TIMEOUT error. Cancellation of ctx by
// the caller returns ctx.Err() unchanged.
func (e *Executor) Do(ctx context.Context, req Request) ([]byte, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	r := e.http.R().
		SetContext(callCtx).
		SetHeaders(req.Headers)
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}
	resp, err := r.Post(req.URL)
	elapsed := time.Since(start)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			e.observe(req, "CANCELED", elapsed)
			return nil, ctxErr
		}
		var perr *provider.Error
		switch {
		case errors.Is(callCtx.Err(), context.DeadlineExceeded):
			perr = provider.NewError(provider.KindTimeout, req.Provider, req.Model,
				fmt.Sprintf("no response after %s", timeout))
		case isTransportError(err):
			perr = provider.NewError(provider.KindNetwork, req.Provider, req.Model, networkDetail(err))
		default:
			// Failed before anything was sent.
			perr = provider.NewError(provider.KindUnknown, req.Provider, req.Model, networkDetail(err))
		}
		e.observe(req, string(perr.Kind), elapsed)
		return nil, perr
	}

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		perr := provider.Classify(req.Provider, req.Model, status, resp.Body())
		e.observe(req, string(perr.Kind), elapsed)
		e.logger.Warn("provider request failed",
			"provider", req.Provider,
			"model", req.Model,
			"status", status,
			"kind", perr.Kind,
			"duration_ms", elapsed.Milliseconds(),
		)
		return nil, perr
	}

	e.observe(req, "ok", elapsed)
	e.logger.Debug("provider request",
		"provider", req.Provider,
		"model", req.Model,
		"status", status,
		"bytes", len(resp.Body()),
		"duration_ms", elapsed.Milliseconds(),
	)
	return resp.Body(), nil
}

func (e *Executor) observe(req Request, outcome string, elapsed time.Duration) {
	e.metrics.ObserveRequest(string(req.Provider), req.Model, outcome, elapsed)
}

// Text applies parse to body and rejects blank output as EMPTY_RESPONSE.
func Text(id provider.ID, model string, body []byte, parse func([]byte) string) (string, error) {
	text := strings.TrimSpace(parse(body))
	if text == "" {
		return "", provider.NewError(provider.KindEmptyResponse, id, model, "")
	}
	return text, nil
}

// isTransportError reports whether err came from dialing or exchanging with
// the server, as opposed to building the request.
func isTransportError(err error) bool {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return uerr.Op != "parse"
	}
	var nerr net.Error
	return errors.As(err, &nerr)
}

// networkDetail drops the request URL from transport errors so a credential
// in the query string never reaches a message.
func networkDetail(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		msg = msg[i+2:]
	}
	return msg
}
