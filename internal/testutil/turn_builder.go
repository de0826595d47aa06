package testutil

import (
	"github.com/hupe1980/reactmesh/core"
)

// TurnBuilder provides a fluent helper for constructing assistant turns in
// tests.
// Example:
//
//	turn := NewTurnBuilder().Thought("look it up").Action("search", "go").Observation("found").Answer("done").Build()
//
// Chain only the steps you need; the answer text becomes the turn content.
type TurnBuilder struct {
	id      string
	steps   []core.Step
	content string
}

// NewTurnBuilder creates a builder for an assistant turn.
func NewTurnBuilder() *TurnBuilder { return &TurnBuilder{} }

// ID overrides the auto-generated turn ID (chainable).
func (b *TurnBuilder) ID(id string) *TurnBuilder { b.id = id; return b }

// Thought appends a Thought step (chainable).
func (b *TurnBuilder) Thought(text string) *TurnBuilder {
	b.steps = append(b.steps, core.NewThoughtStep(text))
	return b
}

// Action appends an Action step (chainable).
func (b *TurnBuilder) Action(tool, input string) *TurnBuilder {
	b.steps = append(b.steps, core.NewActionStep(tool, input))
	return b
}

// Observation appends an Observation step using result for both audiences (chainable).
func (b *TurnBuilder) Observation(result string) *TurnBuilder {
	b.steps = append(b.steps, core.NewObservationStep(core.ExecutionResult{ResultForHuman: result, ResultForModel: result}))
	return b
}

// Answer sets the final answer content (chainable).
func (b *TurnBuilder) Answer(text string) *TurnBuilder { b.content = text; return b }

// Build returns the assembled assistant turn.
func (b *TurnBuilder) Build() core.Turn {
	t := core.NewTurn(core.RoleAssistant, b.content)
	if b.id != "" {
		t.ID = b.id
	}
	t.Steps = append([]core.Step(nil), b.steps...)
	return t
}

// History builds a conversation alternating user and assistant turns,
// starting with a user turn.
func History(texts ...string) []core.Turn {
	turns := make([]core.Turn, 0, len(texts))
	for i, text := range texts {
		if i%2 == 0 {
			turns = append(turns, core.NewUserTurn(text))
			continue
		}
		turns = append(turns, core.NewTurn(core.RoleAssistant, text))
	}
	return turns
}
