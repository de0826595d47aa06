package core

import (
	"time"

	"github.com/google/uuid"
)

// EventKind distinguishes structured step notifications from answer text.
type EventKind string

const (
	// EventStep carries a completed reasoning step.
	EventStep EventKind = "step"
	// EventContent carries a chunk of answer content.
	EventContent EventKind = "content"
)

// Event is a notification streamed to the host while an agent turn is in
// progress. After emission it should be treated as immutable.
//
// Step events are emitted once per Thought, Action and Observation. Content
// events carry the answer text incrementally; Pending is true while the model
// stream for that answer is still open.
type Event struct {
	ID        string    `json:"id"`
	TurnID    string    `json:"turn_id"`
	Kind      EventKind `json:"kind"`
	Step      *Step     `json:"step,omitempty"`
	Content   string    `json:"content,omitempty"`
	Pending   bool      `json:"pending,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStepEvent wraps a reasoning step for the given turn.
func NewStepEvent(turnID string, step Step) Event {
	return Event{ID: NewID(), TurnID: turnID, Kind: EventStep, Step: &step, Timestamp: time.Now().UTC()}
}

// NewContentEvent wraps an answer chunk for the given turn.
func NewContentEvent(turnID, content string, pending bool) Event {
	return Event{ID: NewID(), TurnID: turnID, Kind: EventContent, Content: content, Pending: pending, Timestamp: time.Now().UTC()}
}

// NewID generates a new unique identifier for events and turns.
func NewID() string { return uuid.NewString() }
