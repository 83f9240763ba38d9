// Package provider maps each supported LLM vendor to its wire format: endpoint,
// auth headers, request body and response parsing. Adapters are pure and make
// no network calls.
package provider

import "strings"

// ID identifies one LLM API vendor.
type ID string

const (
	Anthropic  ID = "anthropic"
	OpenAI     ID = "openai"
	OpenRouter ID = "openrouter"
	Gemini     ID = "gemini"
	Ollama     ID = "ollama"
)

// Role is the author role for a chat message.
type Role string

const (
	// RoleSystem carries the system instruction.
	RoleSystem Role = "system"
	// RoleUser is a user-authored message.
	RoleUser Role = "user"
	// RoleAssistant is an assistant-authored message.
	RoleAssistant Role = "assistant"
)

// ChatMessage is a single message in a request. Messages are built fresh per
// call and never mutated afterwards.
type ChatMessage struct {
	Role    Role
	Content string
}

// Options tunes one request.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature *float64
	// Reasoning asks for an extended reasoning trace where the provider supports it.
	Reasoning       bool
	ReasoningBudget int
	// WebSearch enables the provider's server-side web search tool.
	WebSearch bool
}

// Temperature returns a pointer for Options.Temperature.
func Temperature(v float64) *float64 {
	return &v
}

// Enriched is a parsed enriched-mode response: narrative text plus zero or
// more reasoning trace blocks.
type Enriched struct {
	Text      string
	Reasoning []string
}

// Adapter is the per-provider capability implementation.
type Adapter interface {
	Config() Config
	Endpoint(model, credential string, opts Options) string
	Headers(credential string) map[string]string
	FormatRequest(messages []ChatMessage, opts Options) ([]byte, error)
	// ParseText returns the response text, or "" when absent. It never fails.
	ParseText(body []byte) string
	// ParseEnriched splits a response into text and reasoning blocks. It never fails.
	ParseEnriched(body []byte) Enriched
}

const (
	defaultMaxTokens       = 4096
	defaultReasoningBudget = 8000
	minReasoningBudget     = 1024
)

func resolveMaxTokens(v int) int {
	if v <= 0 {
		return defaultMaxTokens
	}
	return v
}

// reasoningBudget keeps the thinking budget inside the response budget.
func reasoningBudget(opts Options, maxTokens int) (budget, total int) {
	budget = opts.ReasoningBudget
	if budget <= 0 {
		budget = defaultReasoningBudget
	}
	if budget < minReasoningBudget {
		budget = minReasoningBudget
	}
	if budget >= maxTokens {
		maxTokens = budget + defaultMaxTokens
	}
	return budget, maxTokens
}

// splitSystem pulls system messages out of the conversation for providers
// that carry the instruction in a separate field.
func splitSystem(messages []ChatMessage) (string, []ChatMessage) {
	var system []string
	rest := make([]ChatMessage, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if strings.TrimSpace(msg.Content) != "" {
				system = append(system, msg.Content)
			}
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}

func joinURL(base, tail string) string {
	return strings.TrimRight(base, "/") + tail
}
