package provider

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

const (
	anthropicVersion    = "2023-06-01"
	anthropicSearchUses = 5
)

// anthropicAdapter speaks the Messages API. Request and response bodies go
// through the SDK's param and response types so the wire shape tracks the SDK.
type anthropicAdapter struct {
	cfg Config
}

func (a anthropicAdapter) Config() Config {
	return a.cfg
}

func (a anthropicAdapter) Endpoint(_, _ string, _ Options) string {
	return joinURL(a.cfg.BaseURL, "/v1/messages")
}

func (a anthropicAdapter) Headers(credential string) map[string]string {
	return map[string]string{
		"Content-Type":      "application/json",
		"X-Api-Key":         credential,
		"Anthropic-Version": anthropicVersion,
	}
}

func (a anthropicAdapter) FormatRequest(messages []ChatMessage, opts Options) ([]byte, error) {
	system, rest := splitSystem(messages)
	msgs := make([]anthropic.MessageParam, 0, len(rest))
	for _, msg := range rest {
		switch msg.Role {
		case RoleUser:
			msgs = append(msgs, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			msgs = append(msgs, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}

	maxTokens := resolveMaxTokens(opts.MaxTokens)
	body := anthropic.MessageNewParams{
		Model:    anthropic.Model(opts.Model),
		Messages: msgs,
	}
	if system != "" {
		body.System = []anthropic.TextBlockParam{{Text: system}}
	}

	switch {
	case opts.Reasoning:
		// Extended thinking only accepts temperature 1.
		budget, total := reasoningBudget(opts, maxTokens)
		maxTokens = total
		body.Thinking = anthropic.ThinkingConfigParamOfEnabled(int64(budget))
		body.Temperature = anthropic.Float(1)
	case opts.Temperature != nil:
		body.Temperature = anthropic.Float(*opts.Temperature)
	}
	body.MaxTokens = int64(maxTokens)

	if opts.WebSearch {
		body.Tools = []anthropic.ToolUnionParam{{
			OfWebSearchTool20250305: &anthropic.WebSearchTool20250305Param{
				MaxUses: anthropic.Int(anthropicSearchUses),
			},
		}}
	}

	out, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic request: %w", err)
	}
	return out, nil
}

func (a anthropicAdapter) ParseText(body []byte) string {
	return a.ParseEnriched(body).Text
}

// ParseEnriched reads the tagged content array: thinking blocks become
// reasoning, text blocks are concatenated in order.
func (a anthropicAdapter) ParseEnriched(body []byte) Enriched {
	var msg anthropic.Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return Enriched{}
	}

	var out Enriched
	var text strings.Builder
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		case anthropic.ThinkingBlock:
			if strings.TrimSpace(v.Thinking) != "" {
				out.Reasoning = append(out.Reasoning, v.Thinking)
			}
		}
	}
	out.Text = strings.TrimSpace(text.String())
	return out
}
