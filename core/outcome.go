package core

import (
	"context"
	"errors"
)

// OutcomeKind classifies how a model stream ended.
type OutcomeKind int

const (
	// OutcomeCompleted means the stream ran to its natural end.
	OutcomeCompleted OutcomeKind = iota
	// OutcomeCancelled means the stream was cut off by a cancellation.
	OutcomeCancelled
	// OutcomeFailed means the transport reported an error.
	OutcomeFailed
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeCompleted:
		return "completed"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome is the result of one model stream. Expected is only meaningful for
// OutcomeCancelled and marks the agent's own abort after an Action.
type Outcome struct {
	Kind     OutcomeKind
	Expected bool
	Err      error
}

// Fatal reports whether the outcome must stop the run.
func (o Outcome) Fatal() bool {
	switch o.Kind {
	case OutcomeCompleted:
		return false
	case OutcomeCancelled:
		return !o.Expected
	default:
		return true
	}
}

// ClassifyOutcome maps a stream error onto an Outcome. cycle is the
// per-stream context the agent may abort with ErrExpectedAbort; run is the
// caller's context whose cancellation always wins.
func ClassifyOutcome(run, cycle context.Context, err error) Outcome {
	if run.Err() != nil {
		return Outcome{Kind: OutcomeCancelled, Err: run.Err()}
	}
	if errors.Is(context.Cause(cycle), ErrExpectedAbort) {
		return Outcome{Kind: OutcomeCancelled, Expected: true}
	}
	if err == nil {
		return Outcome{Kind: OutcomeCompleted}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Kind: OutcomeCancelled, Err: err}
	}
	return Outcome{Kind: OutcomeFailed, Err: err}
}
