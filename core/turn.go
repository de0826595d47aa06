package core

import (
	"strings"
	"time"
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// LabelInput introduces the argument line of an Action section.
const LabelInput = "Input"

// Labels is the full marker vocabulary understood by the parser, in the order
// they usually appear within a turn.
var Labels = []string{
	string(StepThought),
	string(StepAction),
	LabelInput,
	string(StepObservation),
	string(StepAnswer),
}

// Message is the rendered, transport-facing form of a turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Turn is one entry of the conversation history. For assistant turns the
// reasoning trace lives in Steps and the final answer text in Content; the
// rendered message is always derived from both and never edited in place.
type Turn struct {
	ID      string    `json:"id"`
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	Steps   []Step    `json:"steps,omitempty"`
	Created time.Time `json:"created"`
}

// NewTurn creates a turn with a fresh ID.
func NewTurn(role Role, content string) Turn {
	return Turn{ID: NewID(), Role: role, Content: content, Created: time.Now().UTC()}
}

// NewUserTurn creates a user-authored turn.
func NewUserTurn(content string) Turn { return NewTurn(RoleUser, content) }

// Render serializes the turn for the model. Assistant turns render every step
// in order followed by "Answer: <content>"; other roles pass their content
// through.
func (t Turn) Render() string {
	if t.Role != RoleAssistant {
		return t.Content
	}
	var sb strings.Builder
	for _, s := range t.Steps {
		sb.WriteString(s.Render())
	}
	if t.Content != "" {
		sb.WriteString(NewAnswerStep(t.Content).Render())
	}
	return sb.String()
}

// Message returns the rendered transport message for the turn.
func (t Turn) Message() Message {
	return Message{Role: t.Role, Content: t.Render()}
}

// Clone returns a copy whose step slice can be appended to independently.
func (t Turn) Clone() Turn {
	c := t
	c.Steps = append([]Step(nil), t.Steps...)
	return c
}

// Merge folds next into t so that the merged turn renders as t followed by
// next. An answer already held by t stays in place as an Answer step and the
// content of next becomes the answer of the merged turn.
func (t Turn) Merge(next Turn) Turn {
	merged := t.Clone()
	if merged.Content != "" {
		merged.Steps = append(merged.Steps, NewAnswerStep(merged.Content))
	}
	merged.Steps = append(merged.Steps, next.Steps...)
	merged.Content = next.Content
	return merged
}
