package llm

import (
	"context"
	"fmt"

	"github.com/workmatch/workmatch/internal/config"
)

// New builds the Completer named by the configuration. Load has already
// validated that the selected provider carries an API key.
func New(ctx context.Context, cfg config.LLMConfig) (Completer, error) {
	switch cfg.Provider {
	case "openai":
		return NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model), nil
	case "gemini":
		return NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
