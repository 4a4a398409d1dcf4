package llm

import "fmt"

const defaultZhipuBaseURL = "https://open.bigmodel.cn/api/paas/v4"

var zhipuModels = map[string]string{
	"glm":       "glm-4",
	"glm-flash": "glm-4-flash",
	"glm-plus":  "glm-4-plus",
}

// ZhipuProvider targets Zhipu's GLM models through their OpenAI-compatible
// chat completions endpoint.
type ZhipuProvider struct {
	*OpenAIProvider
}

// NewZhipuProvider creates a provider for the Zhipu BigModel API.
func NewZhipuProvider(cfg ZhipuConfig) (*ZhipuProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("zhipu API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultZhipuBaseURL
	}

	inner := newOpenAICompatible(cfg.APIKey, baseURL, resolveModel(cfg.Model, zhipuModels))
	return &ZhipuProvider{OpenAIProvider: inner}, nil
}
