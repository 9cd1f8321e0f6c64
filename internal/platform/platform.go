// Package platform builds the generative text client used by the LLM
// ingredient parser from configuration.
package platform

import (
	"context"
	"fmt"
	"strings"

	"recipeparser/internal/config"
	"recipeparser/internal/parser"
	"recipeparser/internal/platform/anthropic"
	"recipeparser/internal/platform/gemini"
	"recipeparser/internal/platform/openaicompat"
)

// NewGenerator returns the generator for cfg.Provider, or nil when no
// provider is configured. Callers should close the result if it implements
// io.Closer.
func NewGenerator(ctx context.Context, cfg config.LLMConfig) (parser.Generator, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "":
		return nil, nil
	case "gemini":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an api key")
		}
		client, err := gemini.NewClient(ctx, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "openai":
		if cfg.APIKey == "" && cfg.BaseURL == "" {
			return nil, fmt.Errorf("openai provider requires an api key")
		}
		return openaicompat.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	case "local":
		return openaicompat.NewLocalClient(cfg.Model, cfg.BaseURL), nil
	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = openaicompat.OllamaBaseURL
		}
		return openaicompat.NewLocalClient(cfg.Model, baseURL), nil
	case "anthropic", "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an api key")
		}
		return anthropic.NewClient(cfg.APIKey, cfg.Model, cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
