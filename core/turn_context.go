package core

import (
	"context"
	"errors"
	"strings"

	"github.com/hupe1980/reactmesh/logging"
)

// ErrActionPending is returned by Schedule when an action is already waiting
// for execution in the same cycle.
var ErrActionPending = errors.New("an action is already pending execution")

// Cursor records how far the parser has consumed the cycle buffer. Section is
// the offset where the body of the current labeled section begins; Scan is
// the offset from which the next marker search resumes. When Seen is past
// Scan, buffer[Scan:Seen] is known to hold no line break. Mark is a secondary
// offset within the current section, zero when unset.
type Cursor struct {
	Section int
	Scan    int
	Seen    int
	Mark    int
}

// TurnContext carries the mutable state of a single turn-cycle: the raw text
// buffer received from the model, the parser state, the scheduled action and
// the cancellation handle of the in-flight stream. A fresh TurnContext is
// created for every cycle and is never shared between cycles.
//
// Steps and answer content emitted through the context are appended to Trace,
// the assistant turn being built across all cycles of a run, and forwarded to
// the host's event channel.
type TurnContext struct {
	Context context.Context
	Buffer  strings.Builder
	State   State
	Cursor  Cursor
	Trace   *Turn
	// Closed is set once a delta arrives with the stream no longer pending.
	Closed bool

	run       context.Context
	cancel    context.CancelCauseFunc
	emit      chan<- Event
	scheduled *Action
	aborted   bool

	*loggerAdapter
}

// NewTurnContext derives a cancellable cycle context from ctx and returns a
// TurnContext starting in the given state. emit may be nil.
func NewTurnContext(ctx context.Context, start State, trace *Turn, emit chan<- Event, logger logging.Logger) *TurnContext {
	cycleCtx, cancel := context.WithCancelCause(ctx)
	if trace == nil {
		t := NewTurn(RoleAssistant, "")
		trace = &t
	}
	return &TurnContext{
		Context:       cycleCtx,
		State:         start,
		Trace:         trace,
		run:           ctx,
		cancel:        cancel,
		emit:          emit,
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Run returns the parent context of the cycle. Work that must outlive the
// aborted model stream, like tool execution, uses it.
func (tc *TurnContext) Run() context.Context { return tc.run }

// Done returns a channel closed when the cycle context is cancelled.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Transition moves the cycle to next.
func (tc *TurnContext) Transition(next State) {
	if tc.State == next {
		return
	}
	tc.LogDebug("parser.state.transition", "state.from", tc.State.String(), "state.to", next.String())
	tc.State = next
}

// Abort cancels the in-flight model stream with ErrExpectedAbort.
func (tc *TurnContext) Abort() {
	if tc.aborted {
		return
	}
	tc.aborted = true
	tc.cancel(ErrExpectedAbort)
}

// Aborted reports whether Abort has been called.
func (tc *TurnContext) Aborted() bool { return tc.aborted }

// Close releases the cycle context. It is safe to call after Abort; the first
// cancellation cause is kept.
func (tc *TurnContext) Close() { tc.cancel(context.Canceled) }

// Schedule registers the action to execute once the stream has been drained.
func (tc *TurnContext) Schedule(a Action) error {
	if tc.scheduled != nil {
		return ErrActionPending
	}
	tc.scheduled = &a
	return nil
}

// Scheduled returns the pending action, or nil.
func (tc *TurnContext) Scheduled() *Action { return tc.scheduled }

// Outcome classifies the error returned by the model stream of this cycle.
func (tc *TurnContext) Outcome(err error) Outcome {
	return ClassifyOutcome(tc.run, tc.Context, err)
}

// EmitStep appends a step to the trace and notifies the host.
func (tc *TurnContext) EmitStep(step Step) {
	tc.Trace.Steps = append(tc.Trace.Steps, step)
	tc.send(NewStepEvent(tc.Trace.ID, step))
}

// EmitContent appends answer text to the trace and notifies the host.
func (tc *TurnContext) EmitContent(content string, pending bool) {
	if content == "" && pending {
		return
	}
	tc.Trace.Content += content
	tc.send(NewContentEvent(tc.Trace.ID, content, pending))
}

// Emitter returns a callback that records observation steps on the trace.
// The dispatcher uses it after the cycle stream has been aborted.
func (tc *TurnContext) Emitter() func(Step) { return tc.EmitStep }

func (tc *TurnContext) send(ev Event) {
	if tc.emit == nil {
		return
	}
	select {
	case tc.emit <- ev:
	case <-tc.run.Done():
	}
}
