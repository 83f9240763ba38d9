package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mhismail3/moosetabs/internal/config"
	"github.com/mhismail3/moosetabs/internal/executor"
	"github.com/mhismail3/moosetabs/internal/extract"
	"github.com/mhismail3/moosetabs/internal/metrics"
	"github.com/mhismail3/moosetabs/internal/orchestrator"
)

func createTestHome(t *testing.T) string {
	t.Helper()
	homeDir := filepath.Join(t.TempDir(), ".moose")
	t.Setenv("MOOSE_HOME", homeDir)
	return homeDir
}

func writeValidConfig(t *testing.T, homeDir string) {
	t.Helper()
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home dir: %v", err)
	}
	configBody := `
[llm]
provider = "openrouter"
model = "auto:free"

[providers.openrouter]
api_key = "or-test-key"

[fallback]
delay = "0s"

[extract]
pacing = "0s"
`
	if err := os.WriteFile(filepath.Join(homeDir, "config.toml"), []byte(configBody), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func writeTabsFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tabs.json")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write tabs: %v", err)
	}
	return path
}

const twoTabsJSON = `{"tabs":[
	{"id":1,"title":"Go docs","url":"https://go.dev/doc"},
	{"id":2,"title":"Effective Go","url":"https://go.dev/doc/effective_go"}
]}`

// fakeDoer answers every provider call with an OpenAI-style chat completion.
type fakeDoer struct {
	mu      sync.Mutex
	replies []string
	bodies  []string
}

func (d *fakeDoer) Do(_ context.Context, req executor.Request) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.bodies = append(d.bodies, string(req.Body))
	if len(d.replies) == 0 {
		return nil, errors.New("unexpected request")
	}
	text := d.replies[0]
	d.replies = d.replies[1:]
	return json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": text}}},
	})
}

type staticPages struct{}

func (staticPages) Fetch(_ context.Context, pageURL string) (string, error) {
	return `<html><head><title>Page</title></head><body><article>
<h1>Documentation</h1>
<p>Go is an open source programming language that makes it simple to build secure, scalable systems.
This page collects tutorials, references and guides for ` + pageURL + `.</p>
</article></body></html>`, nil
}

// useFakes swaps the network-facing factories for the duration of the test.
func useFakes(t *testing.T, replies ...string) *fakeDoer {
	t.Helper()
	doer := &fakeDoer{replies: replies}

	origDoer := doerFactory
	origPages := pageSourceFactory
	t.Cleanup(func() {
		doerFactory = origDoer
		pageSourceFactory = origPages
	})
	doerFactory = func(*metrics.Collector) orchestrator.Doer { return doer }
	pageSourceFactory = func(config.ExtractConfig) extract.PageSource { return staticPages{} }
	return doer
}

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}
