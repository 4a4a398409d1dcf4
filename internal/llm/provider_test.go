package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestMockProvider_ReturnsCannedResponses(t *testing.T) {
	mock := NewMockProvider(
		MockResponse{Content: json.RawMessage(`{"score":80}`), Usage: Usage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15}},
		Text("plain text"),
	)

	resp1, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("first")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp1.Text() != `{"score":80}` {
		t.Fatalf("expected {\"score\":80}, got %s", resp1.Content)
	}
	if resp1.Usage.InputTokens != 10 {
		t.Fatalf("expected 10 input tokens, got %d", resp1.Usage.InputTokens)
	}
	if resp1.StopReason != "end" {
		t.Fatalf("expected stop reason 'end', got %q", resp1.StopReason)
	}

	resp2, err := mock.Generate(context.Background(), Request{Messages: UserPrompt("second")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Text() != "plain text" {
		t.Fatalf("expected plain text, got %s", resp2.Content)
	}

	prompts := mock.Prompts()
	if len(prompts) != 2 || prompts[0] != "first" || prompts[1] != "second" {
		t.Fatalf("unexpected recorded prompts: %v", prompts)
	}
}

func TestMockProvider_EmptyQueueReturnsError(t *testing.T) {
	mock := NewMockProvider()
	_, err := mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got: %T", err)
	}
}

func TestMockProvider_ReturnsConfiguredError(t *testing.T) {
	mock := NewMockProvider(MockResponse{Err: &ErrRateLimit{}})

	_, err := mock.Generate(context.Background(), Request{})
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got: %T", err)
	}
}

func TestResponse_TextNil(t *testing.T) {
	var r *Response
	if r.Text() != "" {
		t.Fatalf("expected empty text from nil response")
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}

	ctx = WithPurpose(ctx, "completeness")
	if p := PurposeFrom(ctx); p != "completeness" {
		t.Fatalf("expected 'completeness', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"zhipu without key", Config{Provider: ProviderZhipu}, true},
		{"zhipu with key", Config{Provider: ProviderZhipu, Zhipu: ZhipuConfig{APIKey: "k"}}, false},
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "sk-test"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"openai with key", Config{Provider: ProviderOpenAI, OpenAI: OpenAIConfig{APIKey: "sk-test"}}, false},
		{"gemini without key", Config{Provider: ProviderGemini}, true},
		{"openrouter with key", Config{Provider: ProviderOpenRouter, OpenRouter: OpenRouterConfig{APIKey: "k"}}, false},
		{"mock needs no key", Config{Provider: ProviderMock}, false},
		{"unknown provider", Config{Provider: "unknown"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultConfig_SingleAttempt(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderZhipu || cfg.Zhipu.Model != "glm-4" {
		t.Fatalf("unexpected default provider %q model %q", cfg.Provider, cfg.Zhipu.Model)
	}
	if cfg.Retry.MaxAttempts != 1 {
		t.Fatalf("expected a single attempt by default, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Timeout <= 0 {
		t.Fatal("expected a positive default timeout")
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LESSONDIAG_LLM_PROVIDER", "openai")
	t.Setenv("LESSONDIAG_OPENAI_API_KEY", "sk-env")
	t.Setenv("LESSONDIAG_OPENAI_MODEL", "gpt-4o")
	t.Setenv("LESSONDIAG_LLM_TIMEOUT", "15s")
	t.Setenv("LESSONDIAG_LLM_MAX_ATTEMPTS", "3")
	t.Setenv("LESSONDIAG_LLM_STRUCTURED", "1")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "sk-env" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("unexpected config: %+v", cfg.OpenAI)
	}
	if cfg.Timeout.String() != "15s" {
		t.Fatalf("expected 15s timeout, got %s", cfg.Timeout)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if !cfg.Structured {
		t.Fatal("expected structured output to be enabled")
	}
}

func TestDiscoverConfig_PrefersZhipu(t *testing.T) {
	t.Setenv("ZHIPUAI_API_KEY", "zk")
	t.Setenv("OPENAI_API_KEY", "ok")

	cfg, ok := DiscoverConfig()
	if !ok {
		t.Fatal("expected a discovered config")
	}
	if cfg.Provider != ProviderZhipu || cfg.Zhipu.APIKey != "zk" {
		t.Fatalf("expected zhipu, got %q", cfg.Provider)
	}
}

func TestResolveConfig_DiscoveredKeyKeepsEnvSettings(t *testing.T) {
	t.Setenv("LESSONDIAG_LLM_PROVIDER", "")
	t.Setenv("LESSONDIAG_ZHIPU_API_KEY", "")
	t.Setenv("LESSONDIAG_LLM_MAX_ATTEMPTS", "3")
	t.Setenv("LESSONDIAG_LLM_TIMEOUT", "20s")
	t.Setenv("LESSONDIAG_ZHIPU_MODEL", "glm-4-plus")
	t.Setenv("ZHIPUAI_API_KEY", "k")

	cfg, err := ResolveConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Provider != ProviderZhipu || cfg.Zhipu.APIKey != "k" {
		t.Fatalf("expected discovered zhipu key, got provider %q key %q", cfg.Provider, cfg.Zhipu.APIKey)
	}
	if cfg.Retry.MaxAttempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Zhipu.Model != "glm-4-plus" {
		t.Fatalf("expected glm-4-plus, got %q", cfg.Zhipu.Model)
	}
	if cfg.Timeout.String() != "20s" {
		t.Fatalf("expected 20s timeout, got %s", cfg.Timeout)
	}
}

func TestConfig_AdoptStandardKey_SingleProvider(t *testing.T) {
	t.Setenv("ZHIPUAI_API_KEY", "zk")
	t.Setenv("OPENAI_API_KEY", "")

	cfg := DefaultConfig()
	cfg.Provider = ProviderOpenAI
	cfg.OpenAI.Model = "gpt-4o"
	if cfg.AdoptStandardKey(ProviderOpenAI) {
		t.Fatal("expected no key for openai")
	}
	if cfg.Provider != ProviderOpenAI {
		t.Fatalf("provider changed to %q", cfg.Provider)
	}

	t.Setenv("OPENAI_API_KEY", "ok")
	if !cfg.AdoptStandardKey(ProviderOpenAI) {
		t.Fatal("expected the openai key")
	}
	if cfg.OpenAI.APIKey != "ok" || cfg.OpenAI.Model != "gpt-4o" {
		t.Fatalf("unexpected openai config: %+v", cfg.OpenAI)
	}
}

func TestConfig_SetModel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SetModel("glm-4-flash")
	if cfg.Zhipu.Model != "glm-4-flash" {
		t.Fatalf("expected glm-4-flash, got %q", cfg.Zhipu.Model)
	}
}

func TestNewProvider_Mock(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock model, got %q", p.ModelID())
	}
}

func TestNewProvider_UnknownProvider(t *testing.T) {
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}
