// Package api serves the organize and analyze flows over local HTTP for the
// tab tree UI.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mhismail3/moosetabs/internal/enrich"
	"github.com/mhismail3/moosetabs/internal/logging"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/orchestrator"
	"github.com/mhismail3/moosetabs/internal/organize"
	"github.com/mhismail3/moosetabs/internal/provider"
)

const maxBodyBytes = 4 << 20

// Options wires a Server. Orchestrator and Extractor are required.
type Options struct {
	Orchestrator *orchestrator.Orchestrator
	Extractor    enrich.Extractor
	Metrics      *metrics.Collector

	// Provider and Model are used when a request names neither.
	Provider provider.ID
	Model    string

	Organize organize.Config
	Enrich   enrich.Config

	// Reload re-reads stored credentials before the cache is invalidated.
	Reload func() error
}

type Server struct {
	opts   Options
	logger *slog.Logger
}

func NewServer(opts Options) (*Server, error) {
	if opts.Orchestrator == nil {
		return nil, errors.New("orchestrator is required")
	}
	if opts.Extractor == nil {
		return nil, errors.New("extractor is required")
	}
	return &Server{opts: opts, logger: logging.Logger()}, nil
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.health)
	r.Get("/v1/providers", s.listProviders)
	r.Post("/v1/organize", s.organize)
	r.Post("/v1/analyze", s.analyze)
	r.Post("/v1/settings/reload", s.reloadSettings)
	if s.opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.opts.Metrics.Handler())
	}
	return r
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()
	s.logger.Info("api listening", "addr", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		if r.URL.Path == "/healthz" || r.URL.Path == "/metrics" {
			return
		}
		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"request_id", middleware.GetReqID(r.Context()),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (s *Server) reloadSettings(w http.ResponseWriter, _ *http.Request) {
	if s.opts.Reload != nil {
		if err := s.opts.Reload(); err != nil {
			writeError(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
			return
		}
	}
	s.opts.Orchestrator.InvalidateCredentials()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(ctx context.Context, id, model string) (*orchestrator.Session, error) {
	pid := provider.ID(id)
	if pid == "" {
		pid = s.opts.Provider
	}
	if model == "" && pid == s.opts.Provider {
		model = s.opts.Model
	}
	if model == "" {
		model = provider.AutoFreeModel
	}
	return s.opts.Orchestrator.Session(ctx, pid, model)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func writeJSON(w http.ResponseWriter, value any) {
	writeJSONStatus(w, value, http.StatusOK)
}

func writeJSONStatus(w http.ResponseWriter, value any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(value)
}
