package tool

import (
	"context"

	"github.com/hupe1980/reactmesh/core"
)

// FunctionTool is a generic adapter that exposes a plain Go function as a Tool.
//
// A FunctionTool has no internal mutable state after construction and is safe
// for concurrent use by multiple goroutines.
type FunctionTool struct {
	name        string
	displayName string
	description string
	fn          func(ctx context.Context, input string) (core.ExecutionResult, error)
}

// NewFunctionTool constructs a FunctionTool.
//
// Example:
//
//	echo := NewFunctionTool("echo", "Echo", "Repeats the input verbatim.",
//	  func(_ context.Context, input string) (core.ExecutionResult, error) {
//	    return Result(input, ""), nil
//	  },
//	)
func NewFunctionTool(
	name, displayName, description string,
	fn func(ctx context.Context, input string) (core.ExecutionResult, error),
) *FunctionTool {
	if displayName == "" {
		displayName = name
	}
	return &FunctionTool{
		name:        name,
		displayName: displayName,
		description: description,
		fn:          fn,
	}
}

// NewTextTool wraps a function returning a single string used for both the
// human and the model result.
func NewTextTool(name, description string, fn func(ctx context.Context, input string) (string, error)) *FunctionTool {
	return NewFunctionTool(name, "", description, func(ctx context.Context, input string) (core.ExecutionResult, error) {
		out, err := fn(ctx, input)
		if err != nil {
			return core.ExecutionResult{}, err
		}
		return Result(out, ""), nil
	})
}

// Name returns the unique tool name.
func (t *FunctionTool) Name() string { return t.name }

// DisplayName returns the label shown to humans.
func (t *FunctionTool) DisplayName() string { return t.displayName }

// Description returns the description exposed to models.
func (t *FunctionTool) Description() string { return t.description }

// Execute invokes the wrapped function.
func (t *FunctionTool) Execute(ctx context.Context, input string) (core.ExecutionResult, error) {
	return t.fn(ctx, input)
}
