// Package providers wraps the language-model backends behind a minimal
// "lazy fragment sequence + deferred usage" abstraction so the composers and
// the coaching manager never see a vendor SDK's event shapes.
package providers

import (
	"context"
)

// Provider is a language-model backend. Implementations perform no retries
// and no backoff: upstream failures are the caller's to handle, and that gap
// is deliberate so behavior under test stays observable.
type Provider interface {
	// Name returns the provider identifier ("anthropic", "openai").
	Name() string

	// Generate performs one blocking completion request.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Stream opens a streaming completion. It blocks until the backend has
	// produced its first fragment (or finished/failed before one), so a
	// failure before the first byte is returned here, unmodified, rather
	// than surfacing later through the stream.
	Stream(ctx context.Context, req *Request) (*StreamResult, error)
}

// Role tags one turn in the conversation history.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one role-tagged turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a provider-agnostic completion request: one system instruction
// string plus the ordered history.
type Request struct {
	SystemPrompt string    `json:"system_prompt"`
	Messages     []Message `json:"messages"`
	Model        string    `json:"model,omitempty"`
	MaxTokens    int       `json:"max_tokens,omitempty"`
	Temperature  *float64  `json:"temperature,omitempty"`
}

// StopReason is the provider-agnostic stop reason.
type StopReason string

const (
	StopReasonEndTurn      StopReason = "end_turn"
	StopReasonMaxTokens    StopReason = "max_tokens"
	StopReasonStopSequence StopReason = "stop_sequence"
)

// Usage carries the token counts resolved at the end of a request.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is a completed (non-streaming) reply.
type Response struct {
	Content    string     `json:"content"`
	Model      string     `json:"model"`
	StopReason StopReason `json:"stop_reason"`
	Usage      Usage      `json:"usage"`
}
