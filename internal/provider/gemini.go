package provider

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
)

// geminiAdapter speaks generateContent. The credential travels in the key
// query parameter, so endpoints must never be logged.
type geminiAdapter struct {
	cfg Config
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiThinkingConfig struct {
	IncludeThoughts bool `json:"includeThoughts"`
	ThinkingBudget  int  `json:"thinkingBudget"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens int                   `json:"maxOutputTokens"`
	Temperature     *float64              `json:"temperature,omitempty"`
	ThinkingConfig  *geminiThinkingConfig `json:"thinkingConfig,omitempty"`
}

type geminiTool struct {
	GoogleSearch *struct{} `json:"google_search,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
	Tools             []geminiTool           `json:"tools,omitempty"`
}

func (a geminiAdapter) Config() Config {
	return a.cfg
}

func (a geminiAdapter) Endpoint(model, credential string, _ Options) string {
	return joinURL(a.cfg.BaseURL, "/v1beta/models/"+url.PathEscape(model)+":generateContent") +
		"?key=" + url.QueryEscape(credential)
}

func (a geminiAdapter) Headers(string) map[string]string {
	return map[string]string{"Content-Type": "application/json"}
}

func (a geminiAdapter) FormatRequest(messages []ChatMessage, opts Options) ([]byte, error) {
	system, rest := splitSystem(messages)
	req := geminiRequest{
		Contents: make([]geminiContent, 0, len(rest)),
		GenerationConfig: geminiGenerationConfig{
			MaxOutputTokens: resolveMaxTokens(opts.MaxTokens),
			Temperature:     opts.Temperature,
		},
	}
	if system != "" {
		req.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	for _, msg := range rest {
		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		}
		req.Contents = append(req.Contents, geminiContent{Role: role, Parts: []geminiPart{{Text: msg.Content}}})
	}
	if opts.Reasoning {
		budget, total := reasoningBudget(opts, req.GenerationConfig.MaxOutputTokens)
		req.GenerationConfig.MaxOutputTokens = total
		req.GenerationConfig.ThinkingConfig = &geminiThinkingConfig{IncludeThoughts: true, ThinkingBudget: budget}
	}
	if opts.WebSearch {
		req.Tools = []geminiTool{{GoogleSearch: &struct{}{}}}
	}
	out, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal gemini request: %w", err)
	}
	return out, nil
}

func (a geminiAdapter) ParseText(body []byte) string {
	return a.ParseEnriched(body).Text
}

func (a geminiAdapter) ParseEnriched(body []byte) Enriched {
	if !gjson.ValidBytes(body) {
		return Enriched{}
	}
	var out Enriched
	var text strings.Builder
	for _, part := range gjson.GetBytes(body, "candidates.0.content.parts").Array() {
		t := part.Get("text").String()
		if part.Get("thought").Bool() {
			if strings.TrimSpace(t) != "" {
				out.Reasoning = append(out.Reasoning, strings.TrimSpace(t))
			}
			continue
		}
		text.WriteString(t)
	}
	out.Text = strings.TrimSpace(text.String())
	return out
}
