package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mhismail3/moosetabs/internal/config"
)

func TestInitializeCreatesHomeTree(t *testing.T) {
	cfg := &config.Config{HomeDir: filepath.Join(t.TempDir(), ".moose")}

	if err := Initialize(cfg); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	for _, path := range []string{cfg.ConfigPath(), cfg.LogsDir(), cfg.UsagePath()} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %q to exist: %v", path, err)
		}
	}

	raw, err := os.ReadFile(cfg.ConfigPath())
	if err != nil {
		t.Fatalf("read config file: %v", err)
	}
	text := string(raw)
	if !strings.Contains(text, "[llm]") || !strings.Contains(text, "auto:free") {
		t.Fatalf("expected starter llm section, got %q", text)
	}
	if !strings.Contains(text, "$OPENROUTER_API_KEY") {
		t.Fatalf("expected env placeholder for the openrouter key, got %q", text)
	}

	info, err := os.Stat(cfg.ConfigPath())
	if err != nil {
		t.Fatalf("stat config: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("expected config mode 0600, got %v", info.Mode().Perm())
	}
}

func TestInitializeKeepsExistingConfig(t *testing.T) {
	cfg := &config.Config{HomeDir: filepath.Join(t.TempDir(), ".moose")}
	if err := os.MkdirAll(cfg.HomeDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	custom := "[llm]\nprovider = 'ollama'\n"
	if err := os.WriteFile(cfg.ConfigPath(), []byte(custom), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if err := Initialize(cfg); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	raw, err := os.ReadFile(cfg.ConfigPath())
	if err != nil {
		t.Fatalf("read config: %v", err)
	}
	if string(raw) != custom {
		t.Fatalf("existing config was overwritten: %q", raw)
	}
}
