package provider

import (
	"fmt"
	"strings"
)

// NewAdapter returns the adapter variant for cfg.ID. It is the only place
// that branches on provider identity.
func NewAdapter(cfg Config) (Adapter, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("%s base url is required", cfg.ID)
	}
	switch cfg.ID {
	case Anthropic:
		return anthropicAdapter{cfg: cfg}, nil
	case OpenAI:
		return openAIAdapter{cfg: cfg}, nil
	case OpenRouter:
		return openRouterAdapter{cfg: cfg}, nil
	case Gemini:
		return geminiAdapter{cfg: cfg}, nil
	case Ollama:
		return ollamaAdapter{cfg: cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported provider %q", cfg.ID)
	}
}

// NewAdapters builds one adapter per catalog entry.
func NewAdapters(catalog Catalog) (map[ID]Adapter, error) {
	out := make(map[ID]Adapter, len(catalog))
	for _, cfg := range catalog {
		a, err := NewAdapter(cfg)
		if err != nil {
			return nil, err
		}
		out[cfg.ID] = a
	}
	return out, nil
}
