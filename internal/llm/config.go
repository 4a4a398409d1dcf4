package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderZhipu      = "zhipu"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects the backend: zhipu, openai, anthropic, gemini,
	// openrouter or mock.
	Provider string

	Zhipu      ZhipuConfig
	OpenAI     OpenAIConfig
	Anthropic  AnthropicConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single model call, retries included. Default: 60s.
	Timeout time.Duration

	// Structured asks providers for native structured output validated
	// against the verdict schemas. Default: false.
	Structured bool
}

// ZhipuConfig configures the Zhipu GLM OpenAI-compatible endpoint.
type ZhipuConfig struct {
	APIKey  string
	Model   string // Default: "glm-4"
	BaseURL string // Default: "https://open.bigmodel.cn/api/paas/v4"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional override for compatible APIs.
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-exp"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retries of transient failures. MaxAttempts of 1
// means every call is attempted exactly once.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the default configuration: Zhipu GLM-4, one attempt
// per call, 60 second timeout.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderZhipu,
		Zhipu: ZhipuConfig{
			Model:   "glm-4",
			BaseURL: defaultZhipuBaseURL,
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model:   "google/gemini-2.0-flash-exp",
			BaseURL: defaultOpenRouterBaseURL,
		},
		Retry: RetryConfig{
			MaxAttempts: 1,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 60 * time.Second,
	}
}

// ConfigFromEnv builds a Config from LESSONDIAG_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := os.Getenv("LESSONDIAG_LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}

	setIf(&cfg.Zhipu.APIKey, "LESSONDIAG_ZHIPU_API_KEY")
	setIf(&cfg.Zhipu.Model, "LESSONDIAG_ZHIPU_MODEL")
	setIf(&cfg.Zhipu.BaseURL, "LESSONDIAG_ZHIPU_BASE_URL")

	setIf(&cfg.OpenAI.APIKey, "LESSONDIAG_OPENAI_API_KEY")
	setIf(&cfg.OpenAI.Model, "LESSONDIAG_OPENAI_MODEL")
	setIf(&cfg.OpenAI.BaseURL, "LESSONDIAG_OPENAI_BASE_URL")

	setIf(&cfg.Anthropic.APIKey, "LESSONDIAG_ANTHROPIC_API_KEY")
	setIf(&cfg.Anthropic.Model, "LESSONDIAG_ANTHROPIC_MODEL")

	setIf(&cfg.Gemini.APIKey, "LESSONDIAG_GEMINI_API_KEY")
	setIf(&cfg.Gemini.Model, "LESSONDIAG_GEMINI_MODEL")

	setIf(&cfg.OpenRouter.APIKey, "LESSONDIAG_OPENROUTER_API_KEY")
	setIf(&cfg.OpenRouter.Model, "LESSONDIAG_OPENROUTER_MODEL")

	if t := os.Getenv("LESSONDIAG_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}

	if n := os.Getenv("LESSONDIAG_LLM_MAX_ATTEMPTS"); n != "" {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			cfg.Retry.MaxAttempts = v
		}
	}

	if s := os.Getenv("LESSONDIAG_LLM_STRUCTURED"); s != "" {
		if v, err := strconv.ParseBool(s); err == nil {
			cfg.Structured = v
		}
	}

	return cfg
}

func setIf(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// standardKeys are the providers' own API key variables, in discovery
// priority order.
var standardKeys = []struct {
	provider string
	env      string
}{
	{ProviderZhipu, "ZHIPUAI_API_KEY"},
	{ProviderGemini, "GEMINI_API_KEY"},
	{ProviderOpenAI, "OPENAI_API_KEY"},
	{ProviderAnthropic, "ANTHROPIC_API_KEY"},
	{ProviderOpenRouter, "OPENROUTER_API_KEY"},
}

// DiscoverConfig probes the providers' standard API key variables in
// priority order (Zhipu, Gemini, OpenAI, Anthropic, OpenRouter) and returns
// a default Config for the first key found. Returns (Config{}, false) if
// none is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()
	if !cfg.AdoptStandardKey("") {
		return Config{}, false
	}
	return cfg, true
}

// AdoptStandardKey fills in the API key from the standard variables and
// leaves every other setting alone. With an empty provider it selects the
// first provider whose key is set; otherwise it only looks at that
// provider's variable. It reports whether a key was found.
func (c *Config) AdoptStandardKey(provider string) bool {
	for _, k := range standardKeys {
		if provider != "" && k.provider != provider {
			continue
		}
		key := os.Getenv(k.env)
		if key == "" {
			continue
		}
		c.Provider = k.provider
		c.SetAPIKey(key)
		return true
	}
	return false
}

// SetAPIKey sets the API key of the selected provider.
func (c *Config) SetAPIKey(key string) {
	switch c.Provider {
	case ProviderZhipu:
		c.Zhipu.APIKey = key
	case ProviderOpenAI:
		c.OpenAI.APIKey = key
	case ProviderAnthropic:
		c.Anthropic.APIKey = key
	case ProviderGemini:
		c.Gemini.APIKey = key
	case ProviderOpenRouter:
		c.OpenRouter.APIKey = key
	}
}

// SetModel overrides the model of the selected provider.
func (c *Config) SetModel(model string) {
	switch c.Provider {
	case ProviderZhipu:
		c.Zhipu.Model = model
	case ProviderOpenAI:
		c.OpenAI.Model = model
	case ProviderAnthropic:
		c.Anthropic.Model = model
	case ProviderGemini:
		c.Gemini.Model = model
	case ProviderOpenRouter:
		c.OpenRouter.Model = model
	}
}

// Validate checks that the selected provider has its API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderZhipu:
		if c.Zhipu.APIKey == "" {
			return fmt.Errorf("LESSONDIAG_ZHIPU_API_KEY (or ZHIPUAI_API_KEY) is required for the zhipu provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("LESSONDIAG_OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("LESSONDIAG_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("LESSONDIAG_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("LESSONDIAG_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
