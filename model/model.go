package model

import (
	"context"
	"strings"

	"github.com/hupe1980/reactmesh/core"
)

// Request captures the outbound conversation of one turn-cycle.
type Request struct {
	Messages []core.Message `json:"messages"`
	// Stop lists sequences at which the provider should stop generating.
	Stop []string `json:"stop,omitempty"`
}

// TokenUsage captures token usage statistics for a response.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response is a chunk emitted by a streaming model. Content holds only the
// text added since the previous chunk and may be empty. Partial is true while
// more content is expected; the last chunk of a stream has Partial false.
type Response struct {
	ID           string      `json:"id"`
	Partial      bool        `json:"partial"`
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason,omitempty"` // "stop", "length", ...
	Usage        *TokenUsage `json:"usage,omitempty"`
}

// Info contains metadata about a model implementation.
type Info struct {
	Name     string `json:"name"`
	Provider string `json:"provider"` // "openai", "anthropic", "gemini", "mock"
}

// Model is the completion transport used by the agent loop.
//
// Generate streams the completion for req. Both channels are closed when the
// stream ends. Cancelling ctx aborts the stream; the error channel then
// yields the context error. Implementations must not block on sending once
// ctx is done.
type Model interface {
	Generate(ctx context.Context, req Request) (<-chan Response, <-chan error)

	// Info returns information about the model implementation.
	Info() Info
}

// Send delivers resp on out unless ctx is done first. It reports whether the
// response was delivered.
func Send(ctx context.Context, out chan<- Response, resp Response) bool {
	select {
	case out <- resp:
		return true
	case <-ctx.Done():
		return false
	}
}

// SplitSystem separates system messages from the rest of the conversation,
// for providers that take the system prompt as a dedicated parameter.
// Multiple system messages are joined by blank lines.
func SplitSystem(msgs []core.Message) (string, []core.Message) {
	var (
		system []string
		rest   = make([]core.Message, 0, len(msgs))
	)
	for _, m := range msgs {
		if m.Role == core.RoleSystem {
			if m.Content != "" {
				system = append(system, m.Content)
			}
			continue
		}
		rest = append(rest, m)
	}
	return strings.Join(system, "\n\n"), rest
}
