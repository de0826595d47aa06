// Package tool implements the tool subsystem of the agent: the Tool contract,
// a case-insensitive Registry built once from an explicit list of tools, and
// the Dispatcher that resolves and executes the actions the model requests.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/reactmesh/core"
)

// Tool is a named capability the model can invoke with a single line of text.
//
// Tool implementations should:
//   - Return a short, unique Name the model can type (matched case-insensitively)
//   - Describe in Description when and how the model should use the tool
//   - Honour ctx cancellation
//   - Be safe for concurrent use when shared between agents
type Tool interface {
	// Name returns the key the model uses in an Action section.
	Name() string

	// DisplayName returns a label suitable for chat views.
	DisplayName() string

	// Description returns the text injected into the system prompt.
	Description() string

	// Execute runs the tool with the raw input text of the Action.
	Execute(ctx context.Context, input string) (core.ExecutionResult, error)
}

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string      `json:"tool"`              // Name of the tool that failed
	Message string      `json:"message"`           // Error message
	Code    string      `json:"code"`              // Error code for categorization
	Details interface{} `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Message: message,
		Code:    code,
	}
}

// Result builds an ExecutionResult. An empty model string falls back to the
// human one.
func Result(human, model string) core.ExecutionResult {
	if model == "" {
		model = human
	}
	return core.ExecutionResult{ResultForHuman: human, ResultForModel: model}
}
