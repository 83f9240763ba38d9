package provider

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

const (
	openRouterReferer = "https://github.com/mhismail3/moosetabs"
	openRouterTitle   = "Moose Tabs"
)

// openRouterAdapter speaks the OpenAI-compatible chat API. It returns plain
// text only.
type openRouterAdapter struct {
	cfg Config
}

type openRouterRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature *float64            `json:"temperature,omitempty"`
	Plugins     []openRouterPlugin  `json:"plugins,omitempty"`
}

type openRouterPlugin struct {
	ID string `json:"id"`
}

func (a openRouterAdapter) Config() Config {
	return a.cfg
}

func (a openRouterAdapter) Endpoint(_, _ string, _ Options) string {
	return joinURL(a.cfg.BaseURL, "/chat/completions")
}

func (a openRouterAdapter) Headers(credential string) map[string]string {
	h := bearerHeaders(credential)
	h["HTTP-Referer"] = openRouterReferer
	h["X-Title"] = openRouterTitle
	return h
}

func (a openRouterAdapter) FormatRequest(messages []ChatMessage, opts Options) ([]byte, error) {
	req := openRouterRequest{
		Model:       opts.Model,
		Messages:    chatMessages(messages),
		MaxTokens:   resolveMaxTokens(opts.MaxTokens),
		Temperature: opts.Temperature,
	}
	if opts.WebSearch {
		req.Plugins = []openRouterPlugin{{ID: "web"}}
	}
	out, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal openrouter request: %w", err)
	}
	return out, nil
}

func (a openRouterAdapter) ParseText(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	return chatCompletionText(gjson.ParseBytes(body))
}

func (a openRouterAdapter) ParseEnriched(body []byte) Enriched {
	return Enriched{Text: a.ParseText(body)}
}
