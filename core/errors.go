package core

import (
	"errors"
	"fmt"
)

// Error codes for the failures that stop a run.
const (
	CodeMissingInput    = "MISSING_INPUT"
	CodeUnknownTool     = "UNKNOWN_TOOL"
	CodeToolExecution   = "TOOL_EXECUTION_ERROR"
	CodeUnexpectedState = "UNEXPECTED_STATE"
)

// Sentinels for errors.Is. Matching compares codes only.
var (
	ErrMissingInput    = &Error{Code: CodeMissingInput}
	ErrUnknownTool     = &Error{Code: CodeUnknownTool}
	ErrToolExecution   = &Error{Code: CodeToolExecution}
	ErrUnexpectedState = &Error{Code: CodeUnexpectedState}
)

// ErrExpectedAbort is the cancellation cause the agent attaches when it cuts
// off a model stream after parsing an Action. It is never returned to callers.
var ErrExpectedAbort = errors.New("model stream aborted by agent")

// Error is a fatal agent error tagged with a code plus the diagnostic context
// available at the failure site.
type Error struct {
	Code    string `json:"code"`
	Tool    string `json:"tool,omitempty"`
	Input   string `json:"input,omitempty"`
	State   string `json:"state,omitempty"`
	Message string `json:"message,omitempty"`
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	switch e.Code {
	case CodeMissingInput:
		return fmt.Sprintf("missing input for action: %s", e.Tool)
	case CodeUnknownTool:
		return fmt.Sprintf("can not find action: %s", e.Tool)
	case CodeToolExecution:
		msg := e.Message
		if e.Cause != nil {
			msg = e.Cause.Error()
		}
		return fmt.Sprintf("failed to execute action: %s(%s): %s", e.Tool, e.Input, msg)
	case CodeUnexpectedState:
		return fmt.Sprintf("unexpected state %s: %s", e.State, e.Message)
	default:
		return fmt.Sprintf("agent error [%s]: %s", e.Code, e.Message)
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewMissingInputError reports an Action section without a usable Input.
func NewMissingInputError(tool string) *Error {
	return &Error{Code: CodeMissingInput, Tool: tool}
}

// NewUnknownToolError reports an Action naming an unregistered tool.
func NewUnknownToolError(tool string) *Error {
	return &Error{Code: CodeUnknownTool, Tool: tool}
}

// NewToolExecutionError wraps a failure raised by a tool.
func NewToolExecutionError(tool, input string, cause error) *Error {
	return &Error{Code: CodeToolExecution, Tool: tool, Input: input, Cause: cause}
}

// NewUnexpectedStateError reports a stream that ended with neither a scheduled
// execution nor a terminal state.
func NewUnexpectedStateError(state State, msg string) *Error {
	return &Error{Code: CodeUnexpectedState, State: state.String(), Message: msg}
}
