package provider

import (
	"strings"
	"testing"
)

func TestAnthropicFormatRequest_SystemFieldAndTokens(t *testing.T) {
	a := mustAdapter(t, Anthropic)
	body, err := a.FormatRequest(sampleMessages, Options{
		Model:       "claude-sonnet-4-5",
		MaxTokens:   512,
		Temperature: Temperature(0.2),
	})
	if err != nil {
		t.Fatalf("format request: %v", err)
	}
	got := decodeBody(t, body)

	system, ok := got["system"].([]any)
	if !ok || len(system) != 1 {
		t.Fatalf("expected one system block, got %#v", got["system"])
	}
	if text := system[0].(map[string]any)["text"]; text != "group the tabs" {
		t.Fatalf("unexpected system text: %v", text)
	}
	msgs := got["messages"].([]any)
	if len(msgs) != 1 || msgs[0].(map[string]any)["role"] != "user" {
		t.Fatalf("system message must not be inlined: %#v", msgs)
	}
	if got["max_tokens"] != float64(512) {
		t.Fatalf("unexpected max_tokens: %v", got["max_tokens"])
	}
	if got["temperature"] != 0.2 {
		t.Fatalf("unexpected temperature: %v", got["temperature"])
	}
	if _, ok := got["thinking"]; ok {
		t.Fatalf("thinking must be absent without reasoning")
	}
}

func TestAnthropicFormatRequest_ReasoningForcesTemperatureOne(t *testing.T) {
	a := mustAdapter(t, Anthropic)
	body, err := a.FormatRequest(sampleMessages, Options{
		Model:       "claude-sonnet-4-5",
		MaxTokens:   16000,
		Temperature: Temperature(0.2),
		Reasoning:   true,
		WebSearch:   true,
	})
	if err != nil {
		t.Fatalf("format request: %v", err)
	}
	got := decodeBody(t, body)
	if got["temperature"] != float64(1) {
		t.Fatalf("expected temperature 1 with reasoning, got %v", got["temperature"])
	}
	thinking := got["thinking"].(map[string]any)
	if thinking["type"] != "enabled" || thinking["budget_tokens"] != float64(defaultReasoningBudget) {
		t.Fatalf("unexpected thinking config: %#v", thinking)
	}
	tools := got["tools"].([]any)
	tool := tools[0].(map[string]any)
	if tool["type"] != "web_search_20250305" || tool["max_uses"] != float64(anthropicSearchUses) {
		t.Fatalf("unexpected web search tool: %#v", tool)
	}
}

func TestAnthropicFormatRequest_BudgetAboveMaxTokensRaisesLimit(t *testing.T) {
	a := mustAdapter(t, Anthropic)
	body, err := a.FormatRequest(sampleMessages, Options{Model: "claude-haiku-4-5", MaxTokens: 2000, Reasoning: true})
	if err != nil {
		t.Fatalf("format request: %v", err)
	}
	got := decodeBody(t, body)
	if got["max_tokens"] != float64(defaultReasoningBudget+defaultMaxTokens) {
		t.Fatalf("max_tokens must exceed thinking budget, got %v", got["max_tokens"])
	}
}

func TestAnthropicHeaders(t *testing.T) {
	h := mustAdapter(t, Anthropic).Headers("sk-ant")
	if h["X-Api-Key"] != "sk-ant" || h["Anthropic-Version"] != anthropicVersion {
		t.Fatalf("unexpected headers: %#v", h)
	}
	if _, ok := h["Authorization"]; ok {
		t.Fatalf("anthropic must not send a bearer token")
	}
}

func TestAnthropicEndpoint(t *testing.T) {
	got := mustAdapter(t, Anthropic).Endpoint("claude-sonnet-4-5", "k", Options{})
	if got != "https://api.anthropic.com/v1/messages" {
		t.Fatalf("unexpected endpoint: %s", got)
	}
}

func TestAnthropicParseEnriched_SplitsThinkingAndText(t *testing.T) {
	body := []byte(`{
		"id":"msg_1","type":"message","role":"assistant","model":"claude-sonnet-4-5",
		"content":[
			{"type":"thinking","thinking":"Tab 3 is a docs page.","signature":"sig"},
			{"type":"text","text":"## Summary\n"},
			{"type":"text","text":"Three research tabs."}
		],
		"stop_reason":"end_turn",
		"usage":{"input_tokens":10,"output_tokens":20}
	}`)
	got := mustAdapter(t, Anthropic).ParseEnriched(body)
	if got.Text != "## Summary\nThree research tabs." {
		t.Fatalf("unexpected text: %q", got.Text)
	}
	if len(got.Reasoning) != 1 || !strings.Contains(got.Reasoning[0], "docs page") {
		t.Fatalf("unexpected reasoning: %#v", got.Reasoning)
	}
}

func TestAnthropicParseText_MissingFieldsYieldEmpty(t *testing.T) {
	a := mustAdapter(t, Anthropic)
	for _, body := range []string{``, `not json`, `{}`, `{"content":[]}`} {
		if got := a.ParseText([]byte(body)); got != "" {
			t.Fatalf("expected empty text for %q, got %q", body, got)
		}
	}
}
