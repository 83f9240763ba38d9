// Package bootstrap prepares the moosetabs home directory on first run.
package bootstrap

import (
	"fmt"
	"os"

	"github.com/mhismail3/moosetabs/internal/config"
	"github.com/mhismail3/moosetabs/internal/store"
)

// Initialize creates the home tree and a starter config.toml when missing.
// Existing files are never overwritten.
func Initialize(cfg *config.Config) error {
	dirs := []string{
		cfg.HomeDir,
		cfg.DataDir(),
		cfg.LogsDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}

	userConfig, err := config.DefaultUserConfigTOML()
	if err != nil {
		return err
	}
	files := []struct {
		path    string
		content string
		mode    os.FileMode
	}{
		// The config holds API keys.
		{path: cfg.ConfigPath(), content: userConfig, mode: 0o600},
		{path: cfg.UsagePath(), content: "", mode: 0o644},
	}
	for _, file := range files {
		if _, err := store.CreateFile(file.path, []byte(file.content), file.mode); err != nil {
			return err
		}
	}
	return nil
}
