// Package llm wraps the chat-completion APIs of the supported model
// providers behind a single Provider interface.
package llm

import (
	"context"
	"encoding/json"
)

// Provider sends one request to a language model.
type Provider interface {
	// Generate performs a single round-trip. When req.Schema is set the
	// provider asks for native structured output and validates it;
	// otherwise Response.Content holds the model's text untouched.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier requests are sent to.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// Messages is the conversation. Lesson diagnosis always sends a
	// single user message carrying the rendered prompt.
	Messages []Message

	// Schema, when set, requests structured output. Nil means free text.
	Schema *Schema

	MaxTokens int

	// Temperature controls randomness, 0.0 - 1.0.
	Temperature float64
}

// Message is a single role-tagged message.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds the single-message conversation used for one-shot calls.
func UserPrompt(prompt string) []Message {
	return []Message{{Role: RoleUser, Content: prompt}}
}

// Schema is a JSON Schema with a name, used both for native structured
// output and for conformance checks on extracted results.
type Schema struct {
	// Name is kebab-case, e.g. "section-completeness".
	Name        string
	Description string
	Definition  map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the model's text. For schema requests it is validated JSON.
	Content json.RawMessage

	Usage Usage

	// Model is the model that actually served the request.
	Model string

	// StopReason is StopEnd or StopMaxTokens.
	StopReason string
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
)

// Text returns the content as a string.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return string(r.Content)
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

// Add accumulates other into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.TotalTokens += other.TotalTokens
}
