package cli

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/mhismail3/moosetabs/internal/backoff"
	"github.com/mhismail3/moosetabs/internal/config"
	"github.com/mhismail3/moosetabs/internal/credentials"
	"github.com/mhismail3/moosetabs/internal/enrich"
	"github.com/mhismail3/moosetabs/internal/executor"
	"github.com/mhismail3/moosetabs/internal/extract"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/orchestrator"
	"github.com/mhismail3/moosetabs/internal/organize"
	"github.com/mhismail3/moosetabs/internal/provider"
	"github.com/mhismail3/moosetabs/internal/usage"
)

// Replaced in tests.
var (
	doerFactory = func(m *metrics.Collector) orchestrator.Doer {
		return executor.New(nil, m)
	}
	pageSourceFactory = func(cfg config.ExtractConfig) extract.PageSource {
		if cfg.Source == config.ExtractSourceBrowser {
			return extract.NewBrowserSource(cfg.UserAgent)
		}
		return extract.NewHTTPSource(&http.Client{}, cfg.UserAgent)
	}
)

// app holds the long-lived dependencies shared by subcommands.
type app struct {
	cfg       *config.Config
	metrics   *metrics.Collector
	usage     *usage.Tracker
	creds     *credentials.Cache
	orch      *orchestrator.Orchestrator
	extractor *extract.Extractor
}

func newApp(cfg *config.Config) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog := provider.DefaultCatalog()
	for _, p := range catalog {
		catalog = catalog.WithBaseURL(p.ID, cfg.Provider(string(p.ID)).BaseURL)
	}

	m := metrics.New()
	tracker := usage.New(cfg.UsagePath())
	creds := credentials.NewCache(credentials.NewConfigSource(cfg))
	fallback := backoff.Fixed(cfg.Fallback.Delay, cfg.Fallback.MaxCandidates)

	orch, err := orchestrator.New(orchestrator.Options{
		Catalog:         catalog,
		Executor:        doerFactory(m),
		Credentials:     creds,
		Fallback:        fallback,
		RequestTimeout:  cfg.LLM.RequestTimeout,
		EnrichedTimeout: cfg.LLM.EnrichedTimeout,
		Usage:           tracker,
		Metrics:         m,
	})
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	extractor := extract.New(pageSourceFactory(cfg.Extract), extract.Config{
		MaxChars: cfg.Extract.MaxChars,
		Timeout:  cfg.Extract.Timeout,
		Metrics:  m,
	})

	return &app{
		cfg:       cfg,
		metrics:   m,
		usage:     tracker,
		creds:     creds,
		orch:      orch,
		extractor: extractor,
	}, nil
}

// target resolves the provider/model pair for a command, falling back to the
// configured defaults.
func (a *app) target(providerFlag, modelFlag string) (provider.ID, string) {
	id := provider.ID(strings.TrimSpace(providerFlag))
	model := strings.TrimSpace(modelFlag)
	if id == "" {
		id = provider.ID(a.cfg.LLM.Provider)
		if model == "" {
			model = a.cfg.LLM.Model
		}
	}
	if model == "" {
		model = provider.AutoFreeModel
	}
	return id, model
}

func (a *app) organizeConfig() organize.Config {
	return organize.Config{
		MaxAttempts: a.cfg.LLM.MaxAttempts,
		Temperature: provider.Temperature(a.cfg.LLM.Temperature),
		Metrics:     a.metrics,
	}
}

func (a *app) enrichConfig() enrich.Config {
	return enrich.Config{
		Pacing:  backoff.Fixed(a.cfg.Extract.Pacing, 0),
		Metrics: a.metrics,
	}
}

// reloadCredentials re-reads config.toml so edited API keys apply to the
// next session.
func (a *app) reloadCredentials() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.creds.SetSource(credentials.NewConfigSource(cfg))
	return nil
}
