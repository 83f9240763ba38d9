package api

import (
	"net/http"

	"github.com/mhismail3/moosetabs/internal/organize"
)

type organizeRequest struct {
	Tabs     []organize.Tab `json:"tabs"`
	Strategy string         `json:"strategy"`
	Feedback string         `json:"feedback"`
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
}

type organizeResponse struct {
	organize.Organization
	Session  string `json:"session"`
	Provider string `json:"provider"`
	Model    string `json:"model"`
}

func (s *Server) organize(w http.ResponseWriter, r *http.Request) {
	var req organizeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: "invalid request body: " + err.Error()})
		return
	}
	strategy, err := organize.ParseStrategy(req.Strategy)
	if err != nil {
		writeError(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}

	sess, err := s.session(r.Context(), req.Provider, req.Model)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	cfg := s.opts.Organize
	cfg.Metrics = s.opts.Metrics
	org, err := organize.New(sess, cfg).Organize(r.Context(), req.Tabs, strategy, req.Feedback)
	if err != nil {
		writeFlowError(w, err)
		return
	}
	writeJSON(w, organizeResponse{
		Organization: *org,
		Session:      sess.ID(),
		Provider:     string(sess.Provider().ID),
		Model:        sess.Model(),
	})
}
