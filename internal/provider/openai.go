package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// completionTokenPrefixes covers models missing from the catalog that still
// reject max_tokens.
var completionTokenPrefixes = []string{"o1", "o3", "o4", "gpt-5", "gpt-4.1"}

// openAIAdapter uses Chat Completions for plain calls and the Responses API
// when a reasoning trace or web search is requested.
type openAIAdapter struct {
	cfg Config
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature *float64            `json:"temperature,omitempty"`
}

type openAIResponsesRequest struct {
	Model           string              `json:"model"`
	Instructions    string              `json:"instructions,omitempty"`
	Input           []openAIChatMessage `json:"input"`
	MaxOutputTokens int                 `json:"max_output_tokens"`
	Temperature     *float64            `json:"temperature,omitempty"`
	Reasoning       *openAIReasoning    `json:"reasoning,omitempty"`
	Tools           []openAITool        `json:"tools,omitempty"`
}

type openAIReasoning struct {
	Effort  string `json:"effort"`
	Summary string `json:"summary"`
}

type openAITool struct {
	Type string `json:"type"`
}

func (a openAIAdapter) Config() Config {
	return a.cfg
}

func (a openAIAdapter) Endpoint(_, _ string, opts Options) string {
	if useResponsesAPI(opts) {
		return joinURL(a.cfg.BaseURL, "/responses")
	}
	return joinURL(a.cfg.BaseURL, "/chat/completions")
}

func (a openAIAdapter) Headers(credential string) map[string]string {
	return bearerHeaders(credential)
}

func (a openAIAdapter) FormatRequest(messages []ChatMessage, opts Options) ([]byte, error) {
	completionTokens := a.usesCompletionTokens(opts.Model)
	temperature := opts.Temperature
	if completionTokens {
		temperature = nil
	}

	if useResponsesAPI(opts) {
		system, rest := splitSystem(messages)
		req := openAIResponsesRequest{
			Model:           opts.Model,
			Instructions:    system,
			Input:           chatMessages(rest),
			MaxOutputTokens: resolveMaxTokens(opts.MaxTokens),
			Temperature:     temperature,
		}
		if opts.Reasoning {
			req.Reasoning = &openAIReasoning{Effort: "medium", Summary: "auto"}
			req.Temperature = nil
		}
		if opts.WebSearch {
			req.Tools = []openAITool{{Type: "web_search_preview"}}
		}
		out, err := json.Marshal(req)
		if err != nil {
			return nil, fmt.Errorf("marshal openai request: %w", err)
		}
		return out, nil
	}

	out, err := json.Marshal(openAIChatRequest{
		Model:       opts.Model,
		Messages:    chatMessages(messages),
		Temperature: temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal openai request: %w", err)
	}
	key := "max_tokens"
	if completionTokens {
		key = "max_completion_tokens"
	}
	return sjson.SetBytes(out, key, resolveMaxTokens(opts.MaxTokens))
}

func (a openAIAdapter) usesCompletionTokens(model string) bool {
	if desc, ok := a.cfg.Model(model); ok {
		return desc.UsesCompletionTokens
	}
	for _, prefix := range completionTokenPrefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}

func (a openAIAdapter) ParseText(body []byte) string {
	return a.ParseEnriched(body).Text
}

// ParseEnriched accepts a Responses API body (output_text or the output item
// array) and falls back to a Chat Completions body.
func (a openAIAdapter) ParseEnriched(body []byte) Enriched {
	if !gjson.ValidBytes(body) {
		return Enriched{}
	}
	root := gjson.ParseBytes(body)

	var out Enriched
	var text strings.Builder
	for _, item := range root.Get("output").Array() {
		switch item.Get("type").String() {
		case "reasoning":
			for _, s := range item.Get("summary").Array() {
				if t := strings.TrimSpace(s.Get("text").String()); t != "" {
					out.Reasoning = append(out.Reasoning, t)
				}
			}
		case "message":
			for _, c := range item.Get("content").Array() {
				if c.Get("type").String() == "output_text" {
					text.WriteString(c.Get("text").String())
				}
			}
		}
	}

	out.Text = strings.TrimSpace(text.String())
	if out.Text == "" {
		out.Text = strings.TrimSpace(root.Get("output_text").String())
	}
	if out.Text == "" {
		out.Text = chatCompletionText(root)
	}
	return out
}

func useResponsesAPI(opts Options) bool {
	return opts.Reasoning || opts.WebSearch
}

func chatMessages(messages []ChatMessage) []openAIChatMessage {
	out := make([]openAIChatMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openAIChatMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}

func chatCompletionText(root gjson.Result) string {
	return strings.TrimSpace(root.Get("choices.0.message.content").String())
}

func bearerHeaders(credential string) map[string]string {
	return map[string]string{
		"Content-Type":  "application/json",
		"Authorization": "Bearer " + credential,
	}
}
