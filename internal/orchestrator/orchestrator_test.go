package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mhismail3/moosetabs/internal/backoff"
	"github.com/mhismail3/moosetabs/internal/credentials"
	"github.com/mhismail3/moosetabs/internal/executor"
	"github.com/mhismail3/moosetabs/internal/provider"
	"github.com/mhismail3/moosetabs/internal/usage"
)

type step struct {
	body string
	err  error
}

type scriptedDoer struct {
	mu    sync.Mutex
	steps []step
	reqs  []executor.Request
}

func (d *scriptedDoer) Do(_ context.Context, req executor.Request) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.reqs = append(d.reqs, req)
	if len(d.steps) == 0 {
		return nil, errors.New("unexpected request")
	}
	s := d.steps[0]
	d.steps = d.steps[1:]
	if s.err != nil {
		return nil, s.err
	}
	return []byte(s.body), nil
}

func (d *scriptedDoer) models() []string {
	out := make([]string, 0, len(d.reqs))
	for _, r := range d.reqs {
		out = append(out, r.Model)
	}
	return out
}

type staticSource map[provider.ID]string

func (s staticSource) Credential(_ context.Context, id provider.ID) (string, error) {
	return s[id], nil
}

type memoryRecorder struct {
	records []usage.Record
}

func (m *memoryRecorder) Append(_ context.Context, rec usage.Record) error {
	m.records = append(m.records, rec)
	return nil
}

type harness struct {
	orch   *Orchestrator
	doer   *scriptedDoer
	usage  *memoryRecorder
	sleeps int
}

func newHarness(t *testing.T, steps ...step) *harness {
	t.Helper()
	h := &harness{doer: &scriptedDoer{steps: steps}, usage: &memoryRecorder{}}
	policy := backoff.Fixed(time.Second, 0)
	policy.Sleep = func(ctx context.Context, _ time.Duration) error {
		h.sleeps++
		return ctx.Err()
	}
	orch, err := New(Options{
		Catalog:     provider.DefaultCatalog(),
		Executor:    h.doer,
		Credentials: credentials.NewCache(staticSource{provider.OpenRouter: "or-key", provider.Anthropic: "ant-key"}),
		Fallback:    policy,
		Usage:       h.usage,
	})
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	h.orch = orch
	return h
}

func chatBody(text string) string {
	return `{"choices":[{"message":{"content":"` + text + `"}}]}`
}

func retryable(kind provider.ErrorKind) error {
	return provider.NewError(kind, provider.OpenRouter, "m", "")
}

var msgs = []provider.ChatMessage{{Role: provider.RoleUser, Content: "hi"}}

func TestAutoFree_AdvancesOnRetryableError(t *testing.T) {
	h := newHarness(t,
		step{err: retryable(provider.KindRateLimited)},
		step{body: chatBody("grouped")},
	)
	s, err := h.orch.Session(context.Background(), provider.OpenRouter, provider.AutoFreeModel)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	got, err := s.CallWithFallback(context.Background(), msgs, provider.Options{})
	if err != nil {
		t.Fatalf("call: %v", err)
	}
	if got != "grouped" {
		t.Fatalf("unexpected text: %q", got)
	}
	free := s.Candidates()
	if models := h.doer.models(); len(models) != 2 || models[0] != free[0] || models[1] != free[1] {
		t.Fatalf("candidates tried out of order: %v", models)
	}
	if h.sleeps != 1 {
		t.Fatalf("expected one backoff wait, got %d", h.sleeps)
	}
	if len(h.usage.records) != 2 || h.usage.records[0].Outcome != "RATE_LIMITED" || h.usage.records[1].Outcome != usage.OutcomeOK {
		t.Fatalf("unexpected usage records: %+v", h.usage.records)
	}
	if h.usage.records[0].Session != s.ID() {
		t.Fatalf("usage record missing session id")
	}
}

func TestAutoFree_ExhaustedAfterAllRetryableFailures(t *testing.T) {
	h := newHarness(t,
		step{err: retryable(provider.KindRateLimited)},
		step{err: retryable(provider.KindUnavailable)},
		step{body: chatBody("")},
		step{err: retryable(provider.KindTimeout)},
	)
	s, _ := h.orch.Session(context.Background(), provider.OpenRouter, provider.AutoFreeModel)
	_, err := s.CallWithFallback(context.Background(), msgs, provider.Options{})
	if !errors.Is(err, ErrCandidatesExhausted) {
		t.Fatalf("expected exhausted error, got %v", err)
	}
	var ex *ExhaustedError
	if !errors.As(err, &ex) || len(ex.Attempts) != 4 {
		t.Fatalf("expected four recorded attempts, got %v", err)
	}
	if ex.Attempts[2].Kind != provider.KindEmptyResponse || ex.Last().Kind != provider.KindTimeout {
		t.Fatalf("unexpected attempt kinds: %+v", ex.Attempts)
	}
	var perr *provider.Error
	if errors.As(err, &perr) {
		t.Fatalf("exhaustion must be distinct from an individual provider error")
	}
}

func TestAutoFree_NonRetryableAborts(t *testing.T) {
	for _, kind := range []provider.ErrorKind{provider.KindAuth, provider.KindAccessDenied, provider.KindContextTooLarge, provider.KindUnknown} {
		h := newHarness(t, step{err: provider.NewError(kind, provider.OpenRouter, "m", "")})
		s, _ := h.orch.Session(context.Background(), provider.OpenRouter, provider.AutoFreeModel)
		_, err := s.CallWithFallback(context.Background(), msgs, provider.Options{})
		var perr *provider.Error
		if !errors.As(err, &perr) || perr.Kind != kind {
			t.Fatalf("%s: expected provider error, got %v", kind, err)
		}
		if len(h.doer.reqs) != 1 || h.sleeps != 0 {
			t.Fatalf("%s: expected a single attempt, got %d", kind, len(h.doer.reqs))
		}
	}
}

func TestAutoFree_MaxAttemptsCapsCandidates(t *testing.T) {
	h := newHarness(t,
		step{err: retryable(provider.KindRateLimited)},
		step{err: retryable(provider.KindRateLimited)},
	)
	h.orch.opts.Fallback.MaxAttempts = 2
	s, _ := h.orch.Session(context.Background(), provider.OpenRouter, provider.AutoFreeModel)
	_, err := s.CallWithFallback(context.Background(), msgs, provider.Options{})
	var ex *ExhaustedError
	if !errors.As(err, &ex) || len(ex.Attempts) != 2 || len(h.doer.reqs) != 2 {
		t.Fatalf("expected two attempts, got %v after %d requests", err, len(h.doer.reqs))
	}
}

func TestExplicitModel_CreditExhaustionSuggestsFreeTier(t *testing.T) {
	perr := provider.Classify(provider.OpenRouter, "anthropic/claude-sonnet-4.5", 402, []byte(`{"error":{"message":"Insufficient credits"}}`))
	h := newHarness(t, step{err: perr})
	s, _ := h.orch.Session(context.Background(), provider.OpenRouter, "anthropic/claude-sonnet-4.5")
	_, err := s.CallWithFallback(context.Background(), msgs, provider.Options{})
	var fte *FreeTierError
	if !errors.As(err, &fte) {
		t.Fatalf("expected free tier error, got %v", err)
	}
	if !strings.Contains(err.Error(), provider.AutoFreeModel) {
		t.Fatalf("message should point to the free tier: %v", err)
	}
	if !errors.Is(err, perr) {
		t.Fatalf("free tier error must wrap the provider error")
	}
}

func TestExplicitModel_RetryableErrorIsNotRetried(t *testing.T) {
	h := newHarness(t, step{err: retryable(provider.KindRateLimited)})
	s, _ := h.orch.Session(context.Background(), provider.Anthropic, "claude-sonnet-4-5")
	_, err := s.CallWithFallback(context.Background(), msgs, provider.Options{})
	if !provider.IsRetryable(err) || len(h.doer.reqs) != 1 {
		t.Fatalf("expected the single retryable error, got %v", err)
	}
}

func TestSession_MissingCredentialFailsBeforeNetwork(t *testing.T) {
	h := newHarness(t)
	_, err := h.orch.Session(context.Background(), provider.Gemini, "gemini-2.5-flash")
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Kind != provider.KindAuth {
		t.Fatalf("expected auth error, got %v", err)
	}
	if len(h.doer.reqs) != 0 {
		t.Fatalf("no request may be sent without a credential")
	}
}

func TestSession_OllamaNeedsNoCredential(t *testing.T) {
	h := newHarness(t, step{body: `{"message":{"content":"ok"}}`})
	s, err := h.orch.Session(context.Background(), provider.Ollama, "llama3.2")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if s.SupportsEnriched() {
		t.Fatalf("ollama has no enriched mode")
	}
	got, err := s.CallWithFallback(context.Background(), msgs, provider.Options{})
	if err != nil || got != "ok" {
		t.Fatalf("unexpected result: %q %v", got, err)
	}
	if _, ok := h.doer.reqs[0].Headers["Authorization"]; ok {
		t.Fatalf("ollama request must carry no credential")
	}
}

func TestSession_Validation(t *testing.T) {
	h := newHarness(t)
	if _, err := h.orch.Session(context.Background(), "nope", "m"); err == nil {
		t.Fatalf("expected unknown provider error")
	}
	if _, err := h.orch.Session(context.Background(), provider.Anthropic, provider.AutoFreeModel); err == nil {
		t.Fatalf("anthropic has no free tier")
	}
	if _, err := h.orch.Session(context.Background(), provider.Anthropic, " "); err == nil {
		t.Fatalf("expected error for blank model")
	}
}

func TestCallEnriched_ReturnsReasoning(t *testing.T) {
	h := newHarness(t, step{body: `{"content":[{"type":"thinking","thinking":"hmm","signature":"s"},{"type":"text","text":"done"}]}`})
	s, _ := h.orch.Session(context.Background(), provider.Anthropic, "claude-sonnet-4-5")
	if !s.SupportsReasoning() {
		t.Fatalf("claude-sonnet-4-5 returns a reasoning trace")
	}
	got, err := s.CallEnriched(context.Background(), msgs, provider.Options{MaxTokens: 16000, Reasoning: true})
	if err != nil {
		t.Fatalf("call enriched: %v", err)
	}
	if got.Text != "done" || len(got.Reasoning) != 1 {
		t.Fatalf("unexpected enriched result: %+v", got)
	}
	req := h.doer.reqs[0]
	if req.Headers["X-Api-Key"] != "ant-key" || req.Timeout != 5*time.Minute {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestCallEnriched_BlankTextIsEmptyResponse(t *testing.T) {
	h := newHarness(t, step{body: `{"content":[{"type":"thinking","thinking":"only thoughts","signature":"s"}]}`})
	s, _ := h.orch.Session(context.Background(), provider.Anthropic, "claude-sonnet-4-5")
	_, err := s.CallEnriched(context.Background(), msgs, provider.Options{})
	var perr *provider.Error
	if !errors.As(err, &perr) || perr.Kind != provider.KindEmptyResponse {
		t.Fatalf("expected empty response error, got %v", err)
	}
}

func TestAutoFree_CancelDuringWait(t *testing.T) {
	h := newHarness(t, step{err: retryable(provider.KindRateLimited)})
	ctx, cancel := context.WithCancel(context.Background())
	h.orch.opts.Fallback.Sleep = func(context.Context, time.Duration) error {
		cancel()
		return ctx.Err()
	}
	s, _ := h.orch.Session(context.Background(), provider.OpenRouter, provider.AutoFreeModel)
	_, err := s.CallWithFallback(ctx, msgs, provider.Options{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}
