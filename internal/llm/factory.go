package llm

import (
	"context"
	"fmt"
)

// NewProvider creates a Provider from configuration, wrapped with retry and
// logging middleware: caller → retry → logging → base.
func NewProvider(ctx context.Context, cfg Config) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderZhipu:
		base, err = NewZhipuProvider(cfg.Zhipu)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return WithLogging(NewMockProvider()), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base), cfg.Retry), nil
}

// ResolveConfig returns the configuration from LESSONDIAG_* variables. When
// the configured provider has no key, the first provider found among the
// standard API key variables is selected instead; models, retries and
// timeouts still come from LESSONDIAG_* variables.
func ResolveConfig() (Config, error) {
	cfg := ConfigFromEnv()
	err := cfg.Validate()
	if err == nil {
		return cfg, nil
	}
	if cfg.AdoptStandardKey("") {
		return cfg, nil
	}
	return Config{}, err
}
