// Package orchestrator runs model calls for one provider session, walking
// the free-tier candidate list when the automatic free mode is selected.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mhismail3/moosetabs/internal/backoff"
	"github.com/mhismail3/moosetabs/internal/credentials"
	"github.com/mhismail3/moosetabs/internal/executor"
	"github.com/mhismail3/moosetabs/internal/logging"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/provider"
	"github.com/mhismail3/moosetabs/internal/usage"
)

// Doer sends one prepared request. *executor.Executor satisfies it.
type Doer interface {
	Do(ctx context.Context, req executor.Request) ([]byte, error)
}

// Options configures an Orchestrator.
type Options struct {
	Catalog     provider.Catalog
	Executor    Doer
	Credentials *credentials.Cache
	// Fallback paces free-tier candidates. MaxAttempts caps how many are tried.
	Fallback        backoff.Policy
	RequestTimeout  time.Duration
	EnrichedTimeout time.Duration
	Usage           usage.Recorder
	Metrics         *metrics.Collector
}

// Orchestrator is built once at startup and hands out sessions.
type Orchestrator struct {
	opts     Options
	adapters map[provider.ID]provider.Adapter
	logger   *slog.Logger
}

// New builds adapters for every catalog entry.
func New(opts Options) (*Orchestrator, error) {
	if opts.Executor == nil {
		return nil, errors.New("executor is required")
	}
	if opts.Credentials == nil {
		return nil, errors.New("credential cache is required")
	}
	adapters, err := provider.NewAdapters(opts.Catalog)
	if err != nil {
		return nil, err
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = executor.DefaultTimeout
	}
	if opts.EnrichedTimeout <= 0 {
		opts.EnrichedTimeout = 5 * time.Minute
	}
	return &Orchestrator{opts: opts, adapters: adapters, logger: logging.Logger()}, nil
}

// Catalog returns the provider catalog the orchestrator was built with.
func (o *Orchestrator) Catalog() provider.Catalog {
	return o.opts.Catalog
}

// InvalidateCredentials drops cached keys after a settings change.
func (o *Orchestrator) InvalidateCredentials() {
	o.opts.Credentials.Invalidate()
}

// Session resolves the provider and model and fetches the credential once.
// A provider that needs a key and has none fails with an AUTH error before
// any network call.
func (o *Orchestrator) Session(ctx context.Context, id provider.ID, model string) (*Session, error) {
	adapter, ok := o.adapters[id]
	if !ok {
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidTarget, id)
	}
	cfg := adapter.Config()
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("%w: model is required for %s", ErrInvalidTarget, id)
	}

	var candidates []string
	auto := model == provider.AutoFreeModel
	if auto {
		candidates = cfg.FreeModels()
		if len(candidates) == 0 {
			return nil, fmt.Errorf("%w: %s has no free-tier models", ErrInvalidTarget, cfg.DisplayName)
		}
	} else {
		candidates = []string{model}
	}

	credential, err := o.opts.Credentials.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load %s credential: %w", id, err)
	}
	if cfg.RequiresCredential && credential == "" {
		return nil, provider.NewError(provider.KindAuth, id, model, "no API key configured")
	}

	s := &Session{
		id:         uuid.NewString(),
		orch:       o,
		adapter:    adapter,
		credential: credential,
		model:      model,
		auto:       auto,
		candidates: candidates,
	}
	o.logger.Debug("session started", "session", s.id, "provider", id, "model", model, "candidates", len(candidates))
	return s, nil
}

// Session is the immutable per-request context: provider, model, credential
// and candidate list. Calls on one session are serialized.
type Session struct {
	id         string
	orch       *Orchestrator
	adapter    provider.Adapter
	credential string
	model      string
	auto       bool
	candidates []string

	mu sync.Mutex
}

// ID is the session's unique id, attached to logs and usage records.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) Provider() provider.Config {
	return s.adapter.Config()
}

func (s *Session) Model() string {
	return s.model
}

// Candidates returns the models the session will try, in order.
func (s *Session) Candidates() []string {
	return append([]string(nil), s.candidates...)
}

// SupportsEnriched reports whether the enriched flow may use this session.
func (s *Session) SupportsEnriched() bool {
	return s.adapter.Config().SupportsEnrichedMode
}

// SupportsReasoning reports whether the selected model returns a reasoning
// trace. The automatic free mode never does.
func (s *Session) SupportsReasoning() bool {
	if s.auto {
		return false
	}
	desc, ok := s.adapter.Config().Model(s.model)
	return ok && desc.SupportsReasoningTrace
}

// CallWithFallback returns the model's text reply.
func (s *Session) CallWithFallback(ctx context.Context, messages []provider.ChatMessage, opts provider.Options) (string, error) {
	out, err := s.run(ctx, messages, opts, s.orch.opts.RequestTimeout, func(model string, body []byte) (provider.Enriched, error) {
		text, err := executor.Text(s.adapter.Config().ID, model, body, s.adapter.ParseText)
		return provider.Enriched{Text: text}, err
	})
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

// CallEnriched returns narrative text plus any reasoning blocks.
func (s *Session) CallEnriched(ctx context.Context, messages []provider.ChatMessage, opts provider.Options) (provider.Enriched, error) {
	return s.run(ctx, messages, opts, s.orch.opts.EnrichedTimeout, func(model string, body []byte) (provider.Enriched, error) {
		out := s.adapter.ParseEnriched(body)
		out.Text = strings.TrimSpace(out.Text)
		if out.Text == "" {
			return provider.Enriched{}, provider.NewError(provider.KindEmptyResponse, s.adapter.Config().ID, model, "")
		}
		return out, nil
	})
}

type parseFunc func(model string, body []byte) (provider.Enriched, error)

func (s *Session) run(ctx context.Context, messages []provider.ChatMessage, opts provider.Options, timeout time.Duration, parse parseFunc) (provider.Enriched, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.adapter.Config().ID
	policy := s.orch.opts.Fallback
	var failures []*provider.Error

	for i, model := range s.candidates {
		if !policy.Allows(i + 1) {
			break
		}
		if i > 0 {
			if err := policy.Wait(ctx); err != nil {
				return provider.Enriched{}, err
			}
		}

		out, err := s.attempt(ctx, model, messages, opts, timeout, parse)
		if err == nil {
			return out, nil
		}

		var perr *provider.Error
		if !errors.As(err, &perr) {
			return provider.Enriched{}, err
		}
		if !s.auto {
			if perr.CreditsExhausted() {
				return provider.Enriched{}, &FreeTierError{Provider: id, Model: model, Err: perr}
			}
			return provider.Enriched{}, perr
		}
		if !perr.Retryable {
			return provider.Enriched{}, perr
		}

		failures = append(failures, perr)
		s.orch.opts.Metrics.FallbackAdvance(string(id), string(perr.Kind))
		s.orch.logger.Info("free model failed, trying next",
			"session", s.id,
			"provider", id,
			"model", model,
			"attempt", i+1,
			"kind", perr.Kind,
		)
	}

	return provider.Enriched{}, &ExhaustedError{Provider: id, Attempts: failures}
}

func (s *Session) attempt(ctx context.Context, model string, messages []provider.ChatMessage, opts provider.Options, timeout time.Duration, parse parseFunc) (provider.Enriched, error) {
	opts.Model = model
	body, err := s.adapter.FormatRequest(messages, opts)
	if err != nil {
		return provider.Enriched{}, fmt.Errorf("format %s request: %w", s.adapter.Config().ID, err)
	}

	start := time.Now()
	resp, err := s.orch.opts.Executor.Do(ctx, executor.Request{
		Provider: s.adapter.Config().ID,
		Model:    model,
		URL:      s.adapter.Endpoint(model, s.credential, opts),
		Headers:  s.adapter.Headers(s.credential),
		Body:     body,
		Timeout:  timeout,
	})
	var out provider.Enriched
	if err == nil {
		out, err = parse(model, resp)
	}
	s.record(ctx, model, err, time.Since(start))
	return out, err
}

func (s *Session) record(ctx context.Context, model string, callErr error, elapsed time.Duration) {
	if s.orch.opts.Usage == nil {
		return
	}
	outcome := usage.OutcomeOK
	if callErr != nil {
		outcome = "ERROR"
		var perr *provider.Error
		if errors.As(callErr, &perr) {
			outcome = string(perr.Kind)
		} else if ctx.Err() != nil {
			outcome = "CANCELED"
		}
	}
	rec := usage.Record{
		Session:    s.id,
		Provider:   string(s.adapter.Config().ID),
		Model:      model,
		Outcome:    outcome,
		DurationMS: elapsed.Milliseconds(),
	}
	// Append honors ctx, so a canceled call still gets logged.
	if err := s.orch.opts.Usage.Append(context.WithoutCancel(ctx), rec); err != nil {
		s.orch.logger.Warn("record usage", "session", s.id, "err", err)
	}
}
