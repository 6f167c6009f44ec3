package ai

import (
	"fmt"

	"github.com/contentradar/contentradar/internal/ai/mock"
	"github.com/contentradar/contentradar/internal/ai/openai"
	"github.com/contentradar/contentradar/internal/ai/openrouter"
	"github.com/contentradar/contentradar/internal/config"
	"github.com/contentradar/contentradar/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "openai":
		return openai.NewProvider(cfg.OpenAI, cfg.InferenceTimeout), nil
	case "openrouter":
		return openrouter.NewProvider(cfg.OpenRouter, cfg.InferenceTimeout), nil
	case "mock":
		return mock.NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of openai, openrouter, mock", cfg.Provider)
	}
}
