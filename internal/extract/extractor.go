package extract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/mhismail3/moosetabs/internal/logging"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/organize"
)

// Config tunes an Extractor. Zero values use the defaults.
type Config struct {
	MaxChars int
	Timeout  time.Duration
	Metrics  *metrics.Collector
}

// Extractor classifies a tab and, for readable web pages, fetches and parses
// its content.
type Extractor struct {
	source   PageSource
	maxChars int
	timeout  time.Duration
	metrics  *metrics.Collector
	logger   *slog.Logger
}

func New(source PageSource, cfg Config) *Extractor {
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Extractor{
		source:   source,
		maxChars: cfg.MaxChars,
		timeout:  cfg.Timeout,
		metrics:  cfg.Metrics,
		logger:   logging.Logger(),
	}
}

// Extract never fails: problems are recorded on the Result. A browser page
// is never searchable; a web URL that could not be read always is.
func (e *Extractor) Extract(ctx context.Context, tab organize.Tab) Result {
	res := e.extract(ctx, tab)
	e.metrics.Extraction(string(res.Category()))
	if !res.Success {
		e.logger.Debug("tab not extracted", "tab", tab.ID, "category", res.Category(), "err", res.Error)
	}
	return res
}

func (e *Extractor) extract(ctx context.Context, tab organize.Tab) Result {
	res := Result{TabID: tab.ID, URL: tab.URL, Title: tab.Title}

	switch {
	case IsBrowserInternal(tab.URL):
		res.BrowserInternal = true
		res.Error = "browser page with no web equivalent"
		return res
	case IsRestricted(tab.URL):
		res.Restricted = true
		res.Error = "the browser does not allow reading this page"
		return res
	}

	pageURL, ok := isWebURL(tab.URL)
	if !ok {
		res.Error = "unsupported URL"
		return res
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	raw, err := e.source.Fetch(fetchCtx, tab.URL)
	if err != nil {
		res.Searchable = true
		res.Error = err.Error()
		return res
	}

	page, err := ParseHTML(raw, pageURL, e.maxChars)
	if err != nil || strings.TrimSpace(page.Content) == "" {
		res.Searchable = true
		res.Error = "no readable content"
		if err != nil {
			res.Error = err.Error()
		}
		return res
	}

	res.Success = true
	res.Content = page.Content
	res.Meta = page.Meta
	res.Images = page.Images
	res.Headings = page.Headings
	res.Links = page.Links
	return res
}
