// Package enrich runs the multi-phase analysis flow: extract every tab, build
// one combined prompt, and ask a reasoning-capable model to answer the
// requested actions.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mhismail3/moosetabs/internal/backoff"
	"github.com/mhismail3/moosetabs/internal/extract"
	"github.com/mhismail3/moosetabs/internal/logging"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/organize"
	"github.com/mhismail3/moosetabs/internal/provider"
)

const (
	enrichedMaxTokens = 16000

	extractionBudget   = 30
	thinkingProgress   = 50
	generatingProgress = 75
)

// ErrEnrichedUnsupported is returned when the session's provider has no
// enriched mode.
var ErrEnrichedUnsupported = errors.New("the selected provider does not support enriched analysis")

// Extractor reads one tab. *extract.Extractor satisfies it.
type Extractor interface {
	Extract(ctx context.Context, tab organize.Tab) extract.Result
}

// Model is the enriched call surface. *orchestrator.Session satisfies it.
type Model interface {
	CallEnriched(ctx context.Context, messages []provider.ChatMessage, opts provider.Options) (provider.Enriched, error)
	SupportsEnriched() bool
	SupportsReasoning() bool
}

// Config tunes a Pipeline.
type Config struct {
	// Pacing is waited between tab extractions.
	Pacing    backoff.Policy
	MaxTokens int
	Metrics   *metrics.Collector
}

// Request is one analysis run.
type Request struct {
	Tabs    []organize.Tab
	Actions []string
}

// Result is a completed run.
type Result struct {
	Text        string           `json:"text"`
	Reasoning   []string         `json:"reasoning,omitempty"`
	Extractions []extract.Result `json:"extractions"`
	Summary     extract.Summary  `json:"summary"`
	WebSearch   bool             `json:"webSearch"`
	Duration    time.Duration    `json:"duration"`
}

// RunError is a run that ended in the failed phase.
type RunError struct {
	Phase Phase
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("analysis failed while %s: %v", e.Phase, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

type Pipeline struct {
	extractor Extractor
	model     Model
	pacing    backoff.Policy
	maxTokens int
	metrics   *metrics.Collector
	logger    *slog.Logger
}

// New fails with ErrEnrichedUnsupported when model cannot run enriched calls.
func New(extractor Extractor, model Model, cfg Config) (*Pipeline, error) {
	if !model.SupportsEnriched() {
		return nil, ErrEnrichedUnsupported
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = enrichedMaxTokens
	}
	return &Pipeline{
		extractor: extractor,
		model:     model,
		pacing:    cfg.Pacing,
		maxTokens: cfg.MaxTokens,
		metrics:   cfg.Metrics,
		logger:    logging.Logger(),
	}, nil
}

// Run executes one analysis. Tab extraction problems never stop the run;
// only the model call can fail it.
func (p *Pipeline) Run(ctx context.Context, req Request, obs Observer) (*Result, error) {
	if len(req.Tabs) == 0 {
		return nil, errors.New("no tabs selected")
	}
	actions := cleanActions(req.Actions)
	if len(actions) == 0 {
		return nil, errors.New("at least one action is required")
	}

	start := time.Now()
	tr := newTracker(obs)
	fail := func(phase Phase, err error) (*Result, error) {
		_ = tr.advance(PhaseFailed)
		p.metrics.PipelineRun(string(PhaseFailed))
		p.logger.Warn("analysis failed", "phase", phase, "err", err)
		return nil, &RunError{Phase: phase, Err: err}
	}

	_ = tr.advance(PhaseExtracting)
	tr.report(0)
	results := make([]extract.Result, 0, len(req.Tabs))
	for i, tab := range req.Tabs {
		if i > 0 {
			if err := p.pacing.Wait(ctx); err != nil {
				return fail(PhaseExtracting, err)
			}
		}
		res := p.extractor.Extract(ctx, tab)
		results = append(results, res)
		tr.obs.OnExtractionProgress(i+1, len(req.Tabs), res)
		tr.report(extractionBudget * (i + 1) / len(req.Tabs))
	}
	summary := extract.Summarize(results)

	opts := provider.Options{
		MaxTokens: p.maxTokens,
		Reasoning: p.model.SupportsReasoning(),
		WebSearch: summary.Searchable > 0,
	}
	messages := []provider.ChatMessage{
		{Role: provider.RoleSystem, Content: systemPrompt},
		{Role: provider.RoleUser, Content: buildPrompt(results, actions)},
	}

	_ = tr.advance(PhaseThinking)
	tr.report(thinkingProgress)
	reply, err := p.model.CallEnriched(ctx, messages, opts)
	if err != nil {
		return fail(PhaseThinking, err)
	}

	_ = tr.advance(PhaseGenerating)
	tr.report(generatingProgress)
	out := &Result{
		Text:        reply.Text,
		Reasoning:   reply.Reasoning,
		Extractions: results,
		Summary:     summary,
		WebSearch:   opts.WebSearch,
		Duration:    time.Since(start),
	}

	_ = tr.advance(PhaseDone)
	tr.report(100)
	p.metrics.PipelineRun(string(PhaseDone))
	p.logger.Info("analysis complete",
		"tabs", summary.Total,
		"extracted", summary.Successful,
		"searchable", summary.Searchable,
		"reasoning_blocks", len(reply.Reasoning),
		"duration_ms", out.Duration.Milliseconds(),
	)
	return out, nil
}

func cleanActions(actions []string) []string {
	var out []string
	for _, a := range actions {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}
