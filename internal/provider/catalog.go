package provider

import "strings"

// AutoFreeModel selects the curated automatic free-tier mode: every free
// catalog model of the provider is tried in order.
const AutoFreeModel = "auto:free"

// ModelDescriptor describes one model in a provider catalog.
type ModelDescriptor struct {
	ID                     string
	DisplayName            string
	IsFree                 bool
	SupportsReasoningTrace bool
	// UsesCompletionTokens selects max_completion_tokens over max_tokens.
	UsesCompletionTokens bool
}

// Config is the static description of one provider.
type Config struct {
	ID                   ID
	DisplayName          string
	BaseURL              string
	RequiresCredential   bool
	SupportsEnrichedMode bool
	Models               []ModelDescriptor
}

// Model returns the catalog descriptor for a model id.
func (c Config) Model(id string) (ModelDescriptor, bool) {
	for _, m := range c.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelDescriptor{}, false
}

// FreeModels returns free-tier model ids in catalog order.
func (c Config) FreeModels() []string {
	var out []string
	for _, m := range c.Models {
		if m.IsFree {
			out = append(out, m.ID)
		}
	}
	return out
}

// SupportsAutoFree reports whether the provider offers the automatic free-tier mode.
func (c Config) SupportsAutoFree() bool {
	return len(c.FreeModels()) > 0
}

// Catalog is the ordered set of supported providers.
type Catalog []Config

// Lookup returns the provider config for id.
func (c Catalog) Lookup(id ID) (Config, bool) {
	for _, p := range c {
		if p.ID == id {
			return p, true
		}
	}
	return Config{}, false
}

// WithBaseURL returns a copy of the catalog with a custom endpoint for id.
// Blank urls leave the default in place.
func (c Catalog) WithBaseURL(id ID, baseURL string) Catalog {
	out := make(Catalog, len(c))
	copy(out, c)
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return out
	}
	for i := range out {
		if out[i].ID == id {
			out[i].BaseURL = baseURL
		}
	}
	return out
}

// DefaultCatalog returns the built-in provider catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			ID:                   Anthropic,
			DisplayName:          "Anthropic",
			BaseURL:              "https://api.anthropic.com",
			RequiresCredential:   true,
			SupportsEnrichedMode: true,
			Models: []ModelDescriptor{
				{ID: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5", SupportsReasoningTrace: true},
				{ID: "claude-opus-4-1", DisplayName: "Claude Opus 4.1", SupportsReasoningTrace: true},
				{ID: "claude-haiku-4-5", DisplayName: "Claude Haiku 4.5", SupportsReasoningTrace: true},
			},
		},
		{
			ID:                   OpenAI,
			DisplayName:          "OpenAI",
			BaseURL:              "https://api.openai.com/v1",
			RequiresCredential:   true,
			SupportsEnrichedMode: true,
			Models: []ModelDescriptor{
				{ID: "gpt-4o", DisplayName: "GPT-4o"},
				{ID: "gpt-4o-mini", DisplayName: "GPT-4o mini"},
				{ID: "gpt-5", DisplayName: "GPT-5", SupportsReasoningTrace: true, UsesCompletionTokens: true},
				{ID: "o4-mini", DisplayName: "o4-mini", SupportsReasoningTrace: true, UsesCompletionTokens: true},
			},
		},
		{
			ID:                   OpenRouter,
			DisplayName:          "OpenRouter",
			BaseURL:              "https://openrouter.ai/api/v1",
			RequiresCredential:   true,
			SupportsEnrichedMode: true,
			Models: []ModelDescriptor{
				{ID: "meta-llama/llama-3.3-70b-instruct:free", DisplayName: "Llama 3.3 70B (free)", IsFree: true},
				{ID: "deepseek/deepseek-chat-v3-0324:free", DisplayName: "DeepSeek V3 (free)", IsFree: true},
				{ID: "mistralai/mistral-small-3.1-24b-instruct:free", DisplayName: "Mistral Small 3.1 (free)", IsFree: true},
				{ID: "google/gemini-2.0-flash-exp:free", DisplayName: "Gemini 2.0 Flash (free)", IsFree: true},
				{ID: "anthropic/claude-sonnet-4.5", DisplayName: "Claude Sonnet 4.5"},
				{ID: "openai/gpt-4o-mini", DisplayName: "GPT-4o mini"},
			},
		},
		{
			ID:                   Gemini,
			DisplayName:          "Google Gemini",
			BaseURL:              "https://generativelanguage.googleapis.com",
			RequiresCredential:   true,
			SupportsEnrichedMode: true,
			Models: []ModelDescriptor{
				{ID: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash", SupportsReasoningTrace: true},
				{ID: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro", SupportsReasoningTrace: true},
				{ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash"},
			},
		},
		{
			ID:          Ollama,
			DisplayName: "Ollama (local)",
			BaseURL:     "http://localhost:11434",
			Models: []ModelDescriptor{
				{ID: "llama3.2", DisplayName: "Llama 3.2"},
				{ID: "qwen2.5", DisplayName: "Qwen 2.5"},
			},
		},
	}
}
