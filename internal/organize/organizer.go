package organize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mhismail3/moosetabs/internal/logging"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/provider"
)

const (
	DefaultMaxAttempts = 3
	DefaultTemperature = 0.2
	organizeMaxTokens  = 4096
)

var (
	// ErrInvalidInput marks caller mistakes in the snapshot or strategy.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoTabs is returned for an empty snapshot.
	ErrNoTabs = fmt.Errorf("%w: no tabs to organize", ErrInvalidInput)
)

// Caller sends one prompt and returns the reply text.
// *orchestrator.Session satisfies it.
type Caller interface {
	CallWithFallback(ctx context.Context, messages []provider.ChatMessage, opts provider.Options) (string, error)
}

// Config tunes the correction loop. Zero values use the defaults; a nil
// Temperature means DefaultTemperature.
type Config struct {
	MaxAttempts int
	Temperature *float64
	Metrics     *metrics.Collector
}

// Organizer runs the assign, validate, correct loop.
type Organizer struct {
	caller      Caller
	maxAttempts int
	temperature float64
	metrics     *metrics.Collector
	logger      *slog.Logger
}

func New(caller Caller, cfg Config) *Organizer {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	temperature := DefaultTemperature
	if cfg.Temperature != nil {
		temperature = *cfg.Temperature
	}
	return &Organizer{
		caller:      caller,
		maxAttempts: cfg.MaxAttempts,
		temperature: temperature,
		metrics:     cfg.Metrics,
		logger:      logging.Logger(),
	}
}

// Organize asks the model for an assignment and retries with the concrete
// violations until the reply is valid or attempts run out. Provider errors
// are returned immediately.
func (o *Organizer) Organize(ctx context.Context, tabs []Tab, strategy Strategy, feedback string) (*Organization, error) {
	if len(tabs) == 0 {
		return nil, ErrNoTabs
	}
	if err := checkSnapshot(tabs); err != nil {
		return nil, err
	}
	if _, ok := rubrics[strategy]; !ok {
		return nil, fmt.Errorf("%w: unknown strategy %q", ErrInvalidInput, strategy)
	}

	messages := []provider.ChatMessage{
		{Role: provider.RoleSystem, Content: systemPrompt(strategy, tabs)},
		{Role: provider.RoleUser, Content: userPrompt(tabs, feedback)},
	}
	opts := provider.Options{
		MaxTokens:   organizeMaxTokens,
		Temperature: provider.Temperature(o.temperature),
	}

	var violations []Violation
	var raw string
	for attempt := 1; attempt <= o.maxAttempts; attempt++ {
		reply, err := o.caller.CallWithFallback(ctx, messages, opts)
		if err != nil {
			o.metrics.OrganizeAttempt("error")
			return nil, err
		}
		raw = reply

		assignments, perr := ParseReply(reply)
		if perr != nil {
			violations = []Violation{{Kind: ViolationMalformed, Detail: perr.Error()}}
		} else {
			violations = Validate(tabs, assignments)
		}

		if len(violations) == 0 {
			o.metrics.OrganizeAttempt("valid")
			groups := GroupAssignments(assignments)
			return &Organization{
				Groups:      groups,
				Explanation: explain(len(tabs), len(groups), strategy, attempt),
			}, nil
		}

		o.metrics.OrganizeAttempt("invalid")
		o.logger.Info("assignment rejected",
			"attempt", attempt,
			"violations", joinViolations(violations),
		)
		messages = append(messages,
			provider.ChatMessage{Role: provider.RoleAssistant, Content: reply},
			provider.ChatMessage{Role: provider.RoleUser, Content: correctionPrompt(violations, tabs)},
		)
	}

	return nil, &ValidationError{Violations: violations, Raw: raw, Attempts: o.maxAttempts}
}

func checkSnapshot(tabs []Tab) error {
	seen := make(map[int]bool, len(tabs))
	for _, t := range tabs {
		if seen[t.ID] {
			return fmt.Errorf("%w: tab id %d appears twice in the snapshot", ErrInvalidInput, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func explain(tabs, groups int, strategy Strategy, attempt int) string {
	s := fmt.Sprintf("Organized %d tabs into %d groups by %s.", tabs, groups, strategy)
	if attempt > 1 {
		s += fmt.Sprintf(" The model needed %d attempts to place every tab exactly once.", attempt)
	}
	return s
}
