package enrich

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/mhismail3/moosetabs/internal/extract"
	"github.com/mhismail3/moosetabs/internal/organize"
	"github.com/mhismail3/moosetabs/internal/provider"
)

type mapExtractor map[int]extract.Result

func (m mapExtractor) Extract(_ context.Context, tab organize.Tab) extract.Result {
	res := m[tab.ID]
	res.TabID, res.URL, res.Title = tab.ID, tab.URL, tab.Title
	return res
}

type fakeModel struct {
	enriched  bool
	reasoning bool
	reply     provider.Enriched
	err       error

	messages []provider.ChatMessage
	opts     provider.Options
}

func (m *fakeModel) CallEnriched(_ context.Context, messages []provider.ChatMessage, opts provider.Options) (provider.Enriched, error) {
	m.messages, m.opts = messages, opts
	return m.reply, m.err
}

func (m *fakeModel) SupportsEnriched() bool  { return m.enriched }
func (m *fakeModel) SupportsReasoning() bool { return m.reasoning }

type recorder struct {
	phases      []Phase
	progress    []int
	extractions []int
}

func (r *recorder) observer() Observer {
	return ObserverFuncs{
		Phase:      func(p Phase) { r.phases = append(r.phases, p) },
		Progress:   func(p int) { r.progress = append(r.progress, p) },
		Extraction: func(current, _ int, _ extract.Result) { r.extractions = append(r.extractions, current) },
	}
}

var tabs = []organize.Tab{
	{ID: 1, Title: "Errgroup post", URL: "https://blog.example.com/errgroup"},
	{ID: 2, Title: "Extensions", URL: "chrome://extensions"},
	{ID: 3, Title: "Paywalled", URL: "https://news.example.com/story"},
}

var results = mapExtractor{
	1: {Success: true, Content: "errgroup ties goroutines to a context"},
	2: {BrowserInternal: true},
	3: {Searchable: true, Error: "HTTP 403"},
}

func TestRun_BrowserInternalTabIsSkipped(t *testing.T) {
	model := &fakeModel{enriched: true, reply: provider.Enriched{Text: "Summary"}}
	p, err := New(results, model, Config{})
	if err != nil {
		t.Fatalf("new pipeline: %v", err)
	}
	out, err := p.Run(context.Background(), Request{Tabs: tabs, Actions: []string{"Summarize"}}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.Summary.Searchable != 1 || out.Summary.BrowserInternal != 1 || out.Summary.Successful != 1 {
		t.Fatalf("unexpected summary: %+v", out.Summary)
	}
	prompt := model.messages[1].Content
	sections := strings.Split(prompt, "## Tab ")
	if len(sections) != 4 {
		t.Fatalf("expected three tab sections, got %d", len(sections)-1)
	}
	if !strings.Contains(sections[2], instructionSkip) || strings.Contains(sections[2], instructionSearch) {
		t.Fatalf("browser tab must be skipped, not searched: %q", sections[2])
	}
	if !strings.Contains(sections[3], instructionSearch) {
		t.Fatalf("failed web tab must be searchable: %q", sections[3])
	}
	if !strings.Contains(sections[1], "errgroup ties goroutines") {
		t.Fatalf("extracted content missing: %q", sections[1])
	}
	if !strings.Contains(prompt, "1. Summarize") {
		t.Fatalf("actions missing from prompt")
	}
}

func TestRun_OptionsFollowCapabilities(t *testing.T) {
	model := &fakeModel{enriched: true, reasoning: true, reply: provider.Enriched{Text: "ok", Reasoning: []string{"r"}}}
	p, _ := New(results, model, Config{})
	out, err := p.Run(context.Background(), Request{Tabs: tabs, Actions: []string{"Compare"}}, nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if model.opts.MaxTokens != enrichedMaxTokens || !model.opts.Reasoning || !model.opts.WebSearch {
		t.Fatalf("unexpected options: %+v", model.opts)
	}
	if !out.WebSearch || len(out.Reasoning) != 1 {
		t.Fatalf("unexpected result: %+v", out)
	}

	model = &fakeModel{enriched: true, reply: provider.Enriched{Text: "ok"}}
	p, _ = New(results, model, Config{})
	if _, err := p.Run(context.Background(), Request{Tabs: tabs[:2], Actions: []string{"Compare"}}, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	if model.opts.Reasoning || model.opts.WebSearch {
		t.Fatalf("no reasoning or search expected: %+v", model.opts)
	}
}

func TestRun_PhasesAndMonotonicProgress(t *testing.T) {
	rec := &recorder{}
	model := &fakeModel{enriched: true, reply: provider.Enriched{Text: "ok"}}
	p, _ := New(results, model, Config{})
	if _, err := p.Run(context.Background(), Request{Tabs: tabs, Actions: []string{"a"}}, rec.observer()); err != nil {
		t.Fatalf("run: %v", err)
	}

	want := []Phase{PhaseExtracting, PhaseThinking, PhaseGenerating, PhaseDone}
	if !reflect.DeepEqual(rec.phases, want) {
		t.Fatalf("expected phases %v, got %v", want, rec.phases)
	}
	if !reflect.DeepEqual(rec.extractions, []int{1, 2, 3}) {
		t.Fatalf("unexpected extraction callbacks: %v", rec.extractions)
	}
	for i := 1; i < len(rec.progress); i++ {
		if rec.progress[i] < rec.progress[i-1] {
			t.Fatalf("progress decreased: %v", rec.progress)
		}
	}
	if rec.progress[len(rec.progress)-1] != 100 {
		t.Fatalf("progress must end at 100: %v", rec.progress)
	}
	for _, v := range rec.progress {
		if v > extractionBudget && v < thinkingProgress {
			t.Fatalf("unexpected progress value %d in %v", v, rec.progress)
		}
	}
}

func TestRun_ModelFailureFailsRun(t *testing.T) {
	rec := &recorder{}
	perr := provider.NewError(provider.KindContextTooLarge, provider.Anthropic, "m", "")
	model := &fakeModel{enriched: true, err: perr}
	p, _ := New(results, model, Config{})
	_, err := p.Run(context.Background(), Request{Tabs: tabs, Actions: []string{"a"}}, rec.observer())

	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Phase != PhaseThinking {
		t.Fatalf("expected run error in thinking phase, got %v", err)
	}
	if !errors.Is(err, perr) {
		t.Fatalf("run error must wrap the provider error")
	}
	if last := rec.phases[len(rec.phases)-1]; last != PhaseFailed {
		t.Fatalf("expected failed phase, got %v", rec.phases)
	}
	if rec.progress[len(rec.progress)-1] == 100 {
		t.Fatalf("failed run must not report 100")
	}
}

func TestRun_CancelDuringPacing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	model := &fakeModel{enriched: true, reply: provider.Enriched{Text: "ok"}}
	p, _ := New(results, model, Config{})
	p.pacing.Delay = 1
	_, err := p.Run(ctx, Request{Tabs: tabs, Actions: []string{"a"}}, nil)
	var runErr *RunError
	if !errors.As(err, &runErr) || runErr.Phase != PhaseExtracting || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected canceled extraction, got %v", err)
	}
}

func TestNew_RequiresEnrichedProvider(t *testing.T) {
	if _, err := New(results, &fakeModel{}, Config{}); !errors.Is(err, ErrEnrichedUnsupported) {
		t.Fatalf("expected ErrEnrichedUnsupported, got %v", err)
	}
}

func TestRun_RejectsEmptyInput(t *testing.T) {
	p, _ := New(results, &fakeModel{enriched: true}, Config{})
	if _, err := p.Run(context.Background(), Request{Actions: []string{"a"}}, nil); err == nil {
		t.Fatalf("expected error without tabs")
	}
	if _, err := p.Run(context.Background(), Request{Tabs: tabs, Actions: []string{" "}}, nil); err == nil {
		t.Fatalf("expected error without actions")
	}
}

func TestTrackerGuardsTransitions(t *testing.T) {
	tr := newTracker(nil)
	if err := tr.advance(PhaseThinking); err != nil {
		t.Fatalf("skipping forward is allowed: %v", err)
	}
	if err := tr.advance(PhaseExtracting); err == nil {
		t.Fatalf("moving backward must fail")
	}
	if err := tr.advance(PhaseThinking); err == nil {
		t.Fatalf("repeating a phase must fail")
	}
	if err := tr.advance(PhaseFailed); err != nil {
		t.Fatalf("failed is reachable from any live phase: %v", err)
	}
	if err := tr.advance(PhaseDone); err == nil {
		t.Fatalf("no transition after a terminal phase")
	}
	tr.report(40)
	tr.report(20)
	if tr.progress != 40 {
		t.Fatalf("progress must not decrease, got %d", tr.progress)
	}
}
