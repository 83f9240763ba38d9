package orchestrator

import (
	"errors"
	"fmt"

	"github.com/mhismail3/moosetabs/internal/provider"
)

// ErrCandidatesExhausted matches an ExhaustedError with errors.Is.
var ErrCandidatesExhausted = errors.New("all free-tier candidates failed")

// ErrInvalidTarget is wrapped by Session errors for an unusable provider or
// model choice.
var ErrInvalidTarget = errors.New("invalid target")

// ExhaustedError reports that every free-tier candidate failed with a
// retryable error.
type ExhaustedError struct {
	Provider provider.ID
	Attempts []*provider.Error
}

func (e *ExhaustedError) Error() string {
	msg := fmt.Sprintf("all %d free models on %s failed", len(e.Attempts), e.Provider)
	if last := e.Last(); last != nil {
		msg += "; last error: " + last.Error()
	}
	return msg + ". Try again later or pick a specific model"
}

func (e *ExhaustedError) Is(target error) bool {
	return target == ErrCandidatesExhausted
}

// Last returns the final candidate's error.
func (e *ExhaustedError) Last() *provider.Error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1]
}

// FreeTierError rewrites an explicit model's credit exhaustion into advice to
// switch to the free tier.
type FreeTierError struct {
	Provider provider.ID
	Model    string
	Err      *provider.Error
}

func (e *FreeTierError) Error() string {
	return fmt.Sprintf("%s has no credits left for %s: switch to the free tier (%s) or add credits",
		e.Provider, e.Model, provider.AutoFreeModel)
}

func (e *FreeTierError) Unwrap() error {
	return e.Err
}
