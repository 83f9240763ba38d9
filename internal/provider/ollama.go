package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

// ollamaAdapter talks to a local Ollama daemon. No credential, no enriched mode.
type ollamaAdapter struct {
	cfg Config
}

type ollamaOptions struct {
	Temperature *float64 `json:"temperature,omitempty"`
	NumPredict  int      `json:"num_predict"`
}

type ollamaRequest struct {
	Model    string              `json:"model"`
	Messages []openAIChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  ollamaOptions       `json:"options"`
}

func (a ollamaAdapter) Config() Config {
	return a.cfg
}

func (a ollamaAdapter) Endpoint(_, _ string, _ Options) string {
	return joinURL(a.cfg.BaseURL, "/api/chat")
}

func (a ollamaAdapter) Headers(string) map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func (a ollamaAdapter) FormatRequest(messages []ChatMessage, opts Options) ([]byte, error) {
	out, err := json.Marshal(ollamaRequest{
		Model:    opts.Model,
		Messages: chatMessages(messages),
		Options: ollamaOptions{
			Temperature: opts.Temperature,
			NumPredict:  resolveMaxTokens(opts.MaxTokens),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal ollama request: %w", err)
	}
	return out, nil
}

func (a ollamaAdapter) ParseText(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return strings.TrimSpace(gjson.GetBytes(body, "message.content").String())
}

func (a ollamaAdapter) ParseEnriched(body []byte) Enriched {
	return Enriched{Text: a.ParseText(body)}
}
