package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"google.golang.org/genai"
)

func newTestGeminiProvider(t *testing.T, handler http.HandlerFunc) *GeminiProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:      "test-key",
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{BaseURL: server.URL + "/"},
	})
	if err != nil {
		t.Fatalf("create client: %v", err)
	}
	return &GeminiProvider{client: client, model: "gemini-2.0-flash"}
}

func geminiHandler(t *testing.T, text, finishReason string, capture *map[string]any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if capture != nil {
			if err := json.NewDecoder(r.Body).Decode(capture); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
				"finishReason": finishReason,
			}},
			"usageMetadata": map[string]any{
				"promptTokenCount":     30,
				"candidatesTokenCount": 10,
				"totalTokenCount":      40,
			},
		})
	}
}

func TestGeminiProvider_StructuredOutput(t *testing.T) {
	var body map[string]any
	p := newTestGeminiProvider(t, geminiHandler(t, `{"score": 88}`, "STOP", &body))

	schema := &Schema{
		Name: "gemini-test-score",
		Definition: map[string]any{
			"type":       "object",
			"properties": map[string]any{"score": map[string]any{"type": []any{"number", "string"}}},
			"required":   []any{"score"},
		},
	}
	resp, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), MaxTokens: 2000, Schema: schema})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Text() != `{"score": 88}` {
		t.Fatalf("unexpected content %q", resp.Content)
	}
	if resp.Usage.TotalTokens != 40 {
		t.Fatalf("expected 40 total tokens, got %d", resp.Usage.TotalTokens)
	}

	gen, _ := body["generationConfig"].(map[string]any)
	if gen["responseMimeType"] != "application/json" {
		t.Fatalf("expected JSON response type, got %v", gen["responseMimeType"])
	}
	if _, ok := gen["responseSchema"]; !ok {
		t.Fatalf("expected responseSchema in generationConfig, got %v", gen)
	}
}

func TestGeminiProvider_StructuredOutputTruncated(t *testing.T) {
	p := newTestGeminiProvider(t, geminiHandler(t, `{"score": 8`, "MAX_TOKENS", nil))

	schema := &Schema{
		Name:       "gemini-test-truncated",
		Definition: map[string]any{"type": "object"},
	}
	_, err := p.Generate(context.Background(), Request{Messages: UserPrompt("x"), Schema: schema})
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got: %T (%v)", err, err)
	}
}

func TestBuildGeminiSchema(t *testing.T) {
	def := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"score":   map[string]any{"type": []any{"number", "string"}},
			"details": map[string]any{"type": "string"},
			"missing_sections": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
		},
		"required": []any{"score", "details"},
	}

	schema := buildGeminiSchema(def)

	if schema.Type != "OBJECT" {
		t.Fatalf("expected OBJECT type, got %s", schema.Type)
	}
	if len(schema.Properties) != 3 {
		t.Fatalf("expected 3 properties, got %d", len(schema.Properties))
	}
	if schema.Properties["score"].Type != "NUMBER" {
		t.Fatalf("union type should collapse to its first member, got %s", schema.Properties["score"].Type)
	}
	if schema.Properties["missing_sections"].Items.Type != "STRING" {
		t.Fatalf("expected STRING items, got %s", schema.Properties["missing_sections"].Items.Type)
	}
	if len(schema.Required) != 2 {
		t.Fatalf("expected 2 required fields, got %d", len(schema.Required))
	}
}
