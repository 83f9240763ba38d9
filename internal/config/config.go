// Package config loads moosetabs runtime configuration from a TOML file and environment variables, exposing typed structs and accessors for all sections.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	// ExtractSourceHTTP fetches pages with a plain HTTP client.
	ExtractSourceHTTP = "http"
	// ExtractSourceBrowser renders pages in headless Chrome before extraction.
	ExtractSourceBrowser = "browser"
)

// Config is the runtime configuration loaded from defaults, config.toml, and env vars.
type Config struct {
	// HomeDir is runtime-resolved from MOOSE_HOME and not read from config.
	HomeDir   string                      `mapstructure:"-"`
	LLM       LLMConfig                   `mapstructure:"llm"`
	Providers map[string]ProviderSettings `mapstructure:"providers"`
	Fallback  FallbackConfig              `mapstructure:"fallback"`
	Extract   ExtractConfig               `mapstructure:"extract"`
	Server    ServerConfig                `mapstructure:"server"`
}

// LLMConfig selects the active provider/model and per-call budgets.
type LLMConfig struct {
	Provider        string        `mapstructure:"provider"`
	Model           string        `mapstructure:"model"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	EnrichedTimeout time.Duration `mapstructure:"enriched_timeout"`
	MaxAttempts     int           `mapstructure:"max_attempts"`
	Temperature     float64       `mapstructure:"temperature"`
}

// ProviderSettings holds the stored credential and optional custom endpoint for one provider.
type ProviderSettings struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// FallbackConfig tunes the free-tier candidate walk.
type FallbackConfig struct {
	Delay         time.Duration `mapstructure:"delay"`
	MaxCandidates int           `mapstructure:"max_candidates"`
}

// ExtractConfig controls page content extraction for the enriched flow.
type ExtractConfig struct {
	Source    string        `mapstructure:"source"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Pacing    time.Duration `mapstructure:"pacing"`
	MaxChars  int           `mapstructure:"max_chars"`
	UserAgent string        `mapstructure:"user_agent"`
}

// ServerConfig configures the local HTTP API used by the UI.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

var defaultConfig = Config{
	LLM: LLMConfig{
		Provider:        "openrouter",
		Model:           "auto:free",
		RequestTimeout:  30 * time.Second,
		EnrichedTimeout: 5 * time.Minute,
		MaxAttempts:     3,
		Temperature:     0.2,
	},
	Providers: map[string]ProviderSettings{
		"anthropic":  {APIKey: ""},
		"openai":     {APIKey: ""},
		"openrouter": {APIKey: ""},
		"gemini":     {APIKey: ""},
		"ollama":     {BaseURL: "http://localhost:11434"},
	},
	Fallback: FallbackConfig{
		Delay:         time.Second,
		MaxCandidates: 0,
	},
	Extract: ExtractConfig{
		Source:    ExtractSourceHTTP,
		Timeout:   15 * time.Second,
		Pacing:    250 * time.Millisecond,
		MaxChars:  15000,
		UserAgent: "moosetabs/1.0",
	},
	Server: ServerConfig{
		Addr: "127.0.0.1:8787",
	},
}

// defaultUserConfig is the minimal bootstrap config written for first-time
// users. It only contains user-editable essentials.
var defaultUserConfig = Config{
	LLM: LLMConfig{
		Provider:       "openrouter",
		Model:          "auto:free",
		RequestTimeout: 30 * time.Second,
	},
	Providers: map[string]ProviderSettings{
		"anthropic":  {APIKey: "$ANTHROPIC_API_KEY"},
		"openai":     {APIKey: "$OPENAI_API_KEY"},
		"openrouter": {APIKey: "$OPENROUTER_API_KEY"},
		"gemini":     {APIKey: "$GEMINI_API_KEY"},
	},
}

// HomeDir returns the moosetabs home directory.
// Uses MOOSE_HOME env var if set, otherwise defaults to ~/.moose.
func HomeDir() (string, error) {
	if dir := os.Getenv("MOOSE_HOME"); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return defaultHomePath(home), nil
}

// Load merges hardcoded defaults and config file values in that order.
// Config is always at $MOOSE_HOME/config.toml.
func Load() (*Config, error) {
	homeDir, err := HomeDir()
	if err != nil {
		return nil, err
	}

	v, err := readViper(homeDir)
	if err != nil {
		return nil, err
	}

	var cfg Config
	decodeHook := mapstructure.ComposeDecodeHookFunc(
		expandEnvStringHook(),
		mapstructure.StringToTimeDurationHookFunc(),
	)

	if err := v.Unmarshal(&cfg, func(c *mapstructure.DecoderConfig) {
		c.DecodeHook = decodeHook
	}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.HomeDir = homeDir

	return &cfg, nil
}

// Write writes the merged configuration (defaults overlaid by user
// config) to w in TOML format.
func Write(w io.Writer) error {
	if w == nil {
		return errors.New("writer is required")
	}

	homeDir, err := HomeDir()
	if err != nil {
		return err
	}
	v, err := readViper(homeDir)
	if err != nil {
		return err
	}

	// Keep duration fields human-readable in generated TOML.
	for _, key := range []string{
		"llm.request_timeout",
		"llm.enriched_timeout",
		"fallback.delay",
		"extract.timeout",
		"extract.pacing",
	} {
		v.Set(key, v.GetDuration(key).String())
	}

	if err := v.WriteConfigTo(w); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// DefaultUserConfigTOML renders the minimal bootstrap user config as TOML.
func DefaultUserConfigTOML() (string, error) {
	v := viper.New()
	v.SetConfigType("toml")

	v.Set("llm.provider", defaultUserConfig.LLM.Provider)
	v.Set("llm.model", defaultUserConfig.LLM.Model)
	v.Set("llm.request_timeout", defaultUserConfig.LLM.RequestTimeout.String())
	for name, p := range defaultUserConfig.Providers {
		v.Set("providers."+name+".api_key", p.APIKey)
	}

	var out bytes.Buffer
	if err := v.WriteConfigTo(&out); err != nil {
		return "", fmt.Errorf("write default user config: %w", err)
	}
	return out.String(), nil
}

func readViper(homeDir string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(homeConfigPath(homeDir))
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.provider", defaultConfig.LLM.Provider)
	v.SetDefault("llm.model", defaultConfig.LLM.Model)
	v.SetDefault("llm.request_timeout", defaultConfig.LLM.RequestTimeout)
	v.SetDefault("llm.enriched_timeout", defaultConfig.LLM.EnrichedTimeout)
	v.SetDefault("llm.max_attempts", defaultConfig.LLM.MaxAttempts)
	v.SetDefault("llm.temperature", defaultConfig.LLM.Temperature)

	for name, p := range defaultConfig.Providers {
		v.SetDefault("providers."+name+".api_key", p.APIKey)
		v.SetDefault("providers."+name+".base_url", p.BaseURL)
	}

	v.SetDefault("fallback.delay", defaultConfig.Fallback.Delay)
	v.SetDefault("fallback.max_candidates", defaultConfig.Fallback.MaxCandidates)

	v.SetDefault("extract.source", defaultConfig.Extract.Source)
	v.SetDefault("extract.timeout", defaultConfig.Extract.Timeout)
	v.SetDefault("extract.pacing", defaultConfig.Extract.Pacing)
	v.SetDefault("extract.max_chars", defaultConfig.Extract.MaxChars)
	v.SetDefault("extract.user_agent", defaultConfig.Extract.UserAgent)

	v.SetDefault("server.addr", defaultConfig.Server.Addr)
}

// Provider returns settings for one provider, empty when not configured.
func (c *Config) Provider(name string) ProviderSettings {
	if p, ok := c.Providers[name]; ok {
		return p
	}
	return defaultConfig.Providers[name]
}

func expandEnvStringHook() mapstructure.DecodeHookFuncType {
	return func(from reflect.Type, to reflect.Type, data any) (any, error) {
		if from.Kind() != reflect.String || to.Kind() != reflect.String {
			return data, nil
		}
		value, ok := data.(string)
		if !ok {
			return data, nil
		}
		return os.ExpandEnv(value), nil
	}
}
