package enrich

import (
	"fmt"

	"github.com/mhismail3/moosetabs/internal/extract"
)

// Phase is a pipeline state. Phases only move forward within a run.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseExtracting Phase = "extracting"
	PhaseThinking   Phase = "thinking"
	PhaseGenerating Phase = "generating"
	PhaseDone       Phase = "done"
	PhaseFailed     Phase = "failed"
)

var phaseOrder = map[Phase]int{
	PhaseIdle:       0,
	PhaseExtracting: 1,
	PhaseThinking:   2,
	PhaseGenerating: 3,
	PhaseDone:       4,
	PhaseFailed:     5,
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}

// Observer receives run progress. Calls happen on the goroutine running the
// pipeline.
type Observer interface {
	OnPhase(phase Phase)
	// OnProgress reports a percentage that never decreases within a run.
	OnProgress(percent int)
	OnExtractionProgress(current, total int, last extract.Result)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	Phase      func(Phase)
	Progress   func(int)
	Extraction func(current, total int, last extract.Result)
}

func (f ObserverFuncs) OnPhase(p Phase) {
	if f.Phase != nil {
		f.Phase(p)
	}
}

func (f ObserverFuncs) OnProgress(percent int) {
	if f.Progress != nil {
		f.Progress(percent)
	}
}

func (f ObserverFuncs) OnExtractionProgress(current, total int, last extract.Result) {
	if f.Extraction != nil {
		f.Extraction(current, total, last)
	}
}

// tracker guards phase order and keeps reported progress monotonic.
type tracker struct {
	obs      Observer
	phase    Phase
	progress int
}

func newTracker(obs Observer) *tracker {
	if obs == nil {
		obs = ObserverFuncs{}
	}
	return &tracker{obs: obs, phase: PhaseIdle, progress: -1}
}

func (t *tracker) advance(next Phase) error {
	if t.phase.Terminal() {
		return fmt.Errorf("pipeline already %s", t.phase)
	}
	if next != PhaseFailed && phaseOrder[next] <= phaseOrder[t.phase] {
		return fmt.Errorf("phase %s cannot follow %s", next, t.phase)
	}
	t.phase = next
	t.obs.OnPhase(next)
	return nil
}

func (t *tracker) report(percent int) {
	if percent > 100 {
		percent = 100
	}
	if percent <= t.progress {
		return
	}
	t.progress = percent
	t.obs.OnProgress(percent)
}
