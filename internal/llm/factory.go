package llm

import (
	"fmt"
	"time"

	"secai/internal/config"
)

// NewProvider builds the configured chat model. apiKey is only used by hosted models.
func NewProvider(cfg config.ChatConfig, apiKey string) (Provider, error) {
	switch cfg.Type {
	case "openai", "":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai chat config missing")
		}
		p, err := NewOpenAIProvider(OpenAIConfig{
			BaseURL: cfg.OpenAI.BaseURL,
			APIKey:  apiKey,
			Model:   cfg.OpenAI.Model,
			Timeout: time.Duration(cfg.OpenAI.TimeoutSecs) * time.Second,
		})
		if err != nil {
			return nil, fmt.Errorf("openai chat init failed: %w", err)
		}
		return p, nil
	case "extractive":
		return NewExtractiveProvider(3), nil
	default:
		return nil, fmt.Errorf("unsupported chat model type: %s", cfg.Type)
	}
}
