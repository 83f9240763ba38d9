package provider

import (
	"encoding/json"
	"testing"
)

func mustAdapter(t *testing.T, id ID) Adapter {
	t.Helper()
	cfg, ok := DefaultCatalog().Lookup(id)
	if !ok {
		t.Fatalf("provider %s missing from catalog", id)
	}
	a, err := NewAdapter(cfg)
	if err != nil {
		t.Fatalf("new adapter: %v", err)
	}
	return a
}

func decodeBody(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode request body: %v\n%s", err, body)
	}
	return out
}

var sampleMessages = []ChatMessage{
	{Role: RoleSystem, Content: "group the tabs"},
	{Role: RoleUser, Content: "tabs: 1 github"},
}
