package api

import (
	"net/http"

	"github.com/mhismail3/moosetabs/internal/provider"
)

type providerView struct {
	ID                 provider.ID `json:"id"`
	DisplayName        string      `json:"displayName"`
	RequiresCredential bool        `json:"requiresCredential"`
	SupportsEnriched   bool        `json:"supportsEnriched"`
	SupportsAutoFree   bool        `json:"supportsAutoFree"`
	Models             []modelView `json:"models"`
}

type modelView struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	Free              bool   `json:"free"`
	SupportsReasoning bool   `json:"supportsReasoning"`
}

type providersResponse struct {
	DefaultProvider provider.ID    `json:"defaultProvider"`
	DefaultModel    string         `json:"defaultModel"`
	Providers       []providerView `json:"providers"`
}

func (s *Server) listProviders(w http.ResponseWriter, _ *http.Request) {
	catalog := s.opts.Orchestrator.Catalog()
	resp := providersResponse{
		DefaultProvider: s.opts.Provider,
		DefaultModel:    s.opts.Model,
		Providers:       make([]providerView, 0, len(catalog)),
	}
	for _, p := range catalog {
		view := providerView{
			ID:                 p.ID,
			DisplayName:        p.DisplayName,
			RequiresCredential: p.RequiresCredential,
			SupportsEnriched:   p.SupportsEnrichedMode,
			SupportsAutoFree:   p.SupportsAutoFree(),
			Models:             make([]modelView, 0, len(p.Models)),
		}
		for _, m := range p.Models {
			view.Models = append(view.Models, modelView{
				ID:                m.ID,
				DisplayName:       m.DisplayName,
				Free:              m.IsFree,
				SupportsReasoning: m.SupportsReasoningTrace,
			})
		}
		resp.Providers = append(resp.Providers, view)
	}
	writeJSON(w, resp)
}
