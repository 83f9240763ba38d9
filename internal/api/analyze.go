package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/mhismail3/moosetabs/internal/enrich"
	"github.com/mhismail3/moosetabs/internal/extract"
	"github.com/mhismail3/moosetabs/internal/organize"
)

type analyzeRequest struct {
	Tabs     []organize.Tab `json:"tabs"`
	Actions  []string       `json:"actions"`
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
}

// Event types of the analyze stream, one JSON object per line.
const (
	eventPhase      = "phase"
	eventProgress   = "progress"
	eventExtraction = "extraction"
	eventResult     = "result"
	eventError      = "error"
)

type streamEvent struct {
	Type       string          `json:"type"`
	Phase      enrich.Phase    `json:"phase,omitempty"`
	Progress   *int            `json:"progress,omitempty"`
	Current    int             `json:"current,omitempty"`
	Total      int             `json:"total,omitempty"`
	Extraction *extract.Result `json:"extraction,omitempty"`
	Result     *enrich.Result  `json:"result,omitempty"`
	Error      *errorBody      `json:"error,omitempty"`
}

type eventWriter struct {
	enc     *json.Encoder
	flusher http.Flusher
}

func (e *eventWriter) send(ev streamEvent) {
	_ = e.enc.Encode(ev)
	e.flusher.Flush()
}

// analyze validates the request up front and answers with a plain JSON
// error when it cannot start. Once the run starts, progress and the outcome
// are streamed as NDJSON.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess, err := s.session(r.Context(), req.Provider, req.Model)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	cfg := s.opts.Enrich
	cfg.Metrics = s.opts.Metrics
	pipeline, err := enrich.New(s.opts.Extractor, sess, cfg)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	if len(req.Tabs) == 0 {
		writeError(w, http.StatusBadRequest, errorBody{Error: "no tabs selected"})
		return
	}
	if !hasAction(req.Actions) {
		writeError(w, http.StatusBadRequest, errorBody{Error: "at least one action is required"})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	ev := &eventWriter{enc: json.NewEncoder(w), flusher: flusher}

	obs := enrich.ObserverFuncs{
		Phase: func(p enrich.Phase) {
			ev.send(streamEvent{Type: eventPhase, Phase: p})
		},
		Progress: func(percent int) {
			ev.send(streamEvent{Type: eventProgress, Progress: &percent})
		},
		Extraction: func(current, total int, last extract.Result) {
			ev.send(streamEvent{Type: eventExtraction, Current: current, Total: total, Extraction: &last})
		},
	}
	result, err := pipeline.Run(r.Context(), enrich.Request{Tabs: req.Tabs, Actions: req.Actions}, obs)
	if err != nil {
		_, body := describeError(err)
		ev.send(streamEvent{Type: eventError, Error: &body})
		return
	}
	ev.send(streamEvent{Type: eventResult, Result: result})
}

func hasAction(actions []string) bool {
	for _, a := range actions {
		if strings.TrimSpace(a) != "" {
			return true
		}
	}
	return false
}
