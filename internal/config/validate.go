package config

import (
	"errors"
	"fmt"
)

// Validatable is implemented by config sections that can self-validate.
type Validatable interface {
	Validate() error
}

var knownProviders = map[string]bool{
	"anthropic":  true,
	"openai":     true,
	"openrouter": true,
	"gemini":     true,
	"ollama":     true,
}

// Validate checks the active provider selection and per-call budgets.
func (c LLMConfig) Validate() error {
	if c.Provider == "" {
		return errors.New("provider is required")
	}
	if !knownProviders[c.Provider] {
		return fmt.Errorf("unsupported provider %q", c.Provider)
	}
	if c.Model == "" {
		return errors.New("model is required")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request_timeout must be > 0")
	}
	if c.EnrichedTimeout <= 0 {
		return errors.New("enriched_timeout must be > 0")
	}
	if c.MaxAttempts <= 0 {
		return errors.New("max_attempts must be > 0")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	return nil
}

// Validate checks the fallback walk settings.
func (c FallbackConfig) Validate() error {
	if c.Delay < 0 {
		return errors.New("delay must be >= 0")
	}
	if c.MaxCandidates < 0 {
		return errors.New("max_candidates must be >= 0")
	}
	return nil
}

// Validate checks extraction settings.
func (c ExtractConfig) Validate() error {
	switch c.Source {
	case ExtractSourceHTTP, ExtractSourceBrowser:
	default:
		return fmt.Errorf("invalid source %q (allowed: %q, %q)", c.Source, ExtractSourceHTTP, ExtractSourceBrowser)
	}
	if c.Timeout <= 0 {
		return errors.New("timeout must be > 0")
	}
	if c.Pacing < 0 {
		return errors.New("pacing must be >= 0")
	}
	if c.MaxChars <= 0 {
		return errors.New("max_chars must be > 0")
	}
	return nil
}

// Validate checks server settings.
func (c ServerConfig) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	return nil
}

// Validate validates startup configuration and joins every fatal error.
func (cfg *Config) Validate() error {
	var errs []error

	if err := cfg.LLM.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("llm: %w", err))
	}
	if err := cfg.Fallback.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("fallback: %w", err))
	}
	if err := cfg.Extract.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("extract: %w", err))
	}
	if err := cfg.Server.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("server: %w", err))
	}
	for name := range cfg.Providers {
		if !knownProviders[name] {
			errs = append(errs, fmt.Errorf("providers.%s: unsupported provider", name))
		}
	}

	return errors.Join(errs...)
}
