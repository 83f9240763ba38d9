package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/mhismail3/moosetabs/internal/enrich"
	"github.com/mhismail3/moosetabs/internal/orchestrator"
	"github.com/mhismail3/moosetabs/internal/organize"
	"github.com/mhismail3/moosetabs/internal/provider"
)

type errorBody struct {
	Error      string          `json:"error"`
	Kind       string          `json:"kind,omitempty"`
	Phase      enrich.Phase    `json:"phase,omitempty"`
	Violations []violationBody `json:"violations,omitempty"`
	// Raw is the last model reply of a rejected assignment.
	Raw string `json:"raw,omitempty"`
}

type violationBody struct {
	Kind   organize.ViolationKind `json:"kind"`
	TabIDs []int                  `json:"tabIds,omitempty"`
	Detail string                 `json:"detail,omitempty"`
}

var kindStatus = map[provider.ErrorKind]int{
	provider.KindAuth:            http.StatusUnauthorized,
	provider.KindAccessDenied:    http.StatusForbidden,
	provider.KindContextTooLarge: http.StatusRequestEntityTooLarge,
	provider.KindRateLimited:     http.StatusTooManyRequests,
	provider.KindUnavailable:     http.StatusServiceUnavailable,
	provider.KindTimeout:         http.StatusGatewayTimeout,
}

// describeError maps a flow error to an HTTP status and response body.
// Only snapshot, strategy and target mistakes are bad input; anything
// unclassified is an internal error.
func describeError(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var runErr *enrich.RunError
	if errors.As(err, &runErr) {
		body.Phase = runErr.Phase
	}

	var verr *organize.ValidationError
	var free *orchestrator.FreeTierError
	var exhausted *orchestrator.ExhaustedError
	var perr *provider.Error
	switch {
	case errors.As(err, &verr):
		body.Raw = verr.Raw
		for _, v := range verr.Violations {
			body.Violations = append(body.Violations, violationBody{Kind: v.Kind, TabIDs: v.TabIDs, Detail: v.Detail})
		}
		return http.StatusUnprocessableEntity, body
	case errors.As(err, &free):
		body.Kind = "FREE_TIER_SUGGESTED"
		return http.StatusPaymentRequired, body
	case errors.As(err, &exhausted):
		body.Kind = "CANDIDATES_EXHAUSTED"
		return http.StatusServiceUnavailable, body
	case errors.As(err, &perr):
		body.Kind = string(perr.Kind)
		if status, ok := kindStatus[perr.Kind]; ok {
			return status, body
		}
		return http.StatusBadGateway, body
	case errors.Is(err, context.Canceled):
		return 499, body
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, body
	case errors.Is(err, enrich.ErrEnrichedUnsupported):
		return http.StatusUnprocessableEntity, body
	case errors.Is(err, organize.ErrInvalidInput), errors.Is(err, orchestrator.ErrInvalidTarget):
		return http.StatusBadRequest, body
	default:
		return http.StatusInternalServerError, body
	}
}

func writeError(w http.ResponseWriter, status int, body errorBody) {
	writeJSONStatus(w, body, status)
}

func writeFlowError(w http.ResponseWriter, err error) {
	status, body := describeError(err)
	writeError(w, status, body)
}
