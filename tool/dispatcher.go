package tool

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/logging"
)

// DefaultTimeout bounds a single tool execution.
const DefaultTimeout = 15 * time.Second

// DispatcherOptions configures a Dispatcher.
type DispatcherOptions struct {
	// Timeout bounds each execution. Zero disables the bound.
	Timeout time.Duration

	// Limiter throttles executions across all tools. Nil disables throttling.
	Limiter *rate.Limiter

	// Logger receives tool call logs.
	Logger logging.Logger
}

// Dispatcher resolves actions against a Registry and executes them.
// It does not retry; retry policy belongs to the individual tool.
type Dispatcher struct {
	registry *Registry
	opts     DispatcherOptions
}

// NewDispatcher creates a Dispatcher over reg.
func NewDispatcher(reg *Registry, optFns ...func(o *DispatcherOptions)) *Dispatcher {
	opts := DispatcherOptions{
		Timeout: DefaultTimeout,
		Logger:  logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	opts.Logger = logging.Component(opts.Logger, "dispatcher")

	return &Dispatcher{registry: reg, opts: opts}
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// Execute runs the tool named by action. On success the Observation step is
// passed to emit before Execute returns, and the normalised result is
// returned. Failures are *core.Error values with code UNKNOWN_TOOL or
// TOOL_EXECUTION_ERROR.
func (d *Dispatcher) Execute(ctx context.Context, action core.Action, emit func(core.Step)) (core.ExecutionResult, error) {
	logger := d.opts.Logger

	t, ok := d.registry.Lookup(action.Tool)
	if !ok {
		logger.Warn("tool.call.unknown", "tool.name", action.Tool)
		return core.ExecutionResult{}, core.NewUnknownToolError(action.Tool)
	}

	if d.opts.Limiter != nil {
		if err := d.opts.Limiter.Wait(ctx); err != nil {
			return core.ExecutionResult{}, core.NewToolExecutionError(action.Tool, action.Input, fmt.Errorf("rate limit: %w", err))
		}
	}

	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}

	logger.Debug("tool.call.start", "tool.name", t.Name(), "tool.input", action.Input)

	start := time.Now()
	res, err := d.call(ctx, t, action.Input)
	dur := time.Since(start)

	logging.ToolCall(logger, t.Name(), dur, err)

	if err != nil {
		return core.ExecutionResult{}, core.NewToolExecutionError(action.Tool, action.Input, err)
	}

	res = normalizeResult(res)

	if emit != nil {
		emit(core.NewObservationStep(res))
	}

	return res, nil
}

// call executes t with panic safety.
func (d *Dispatcher) call(ctx context.Context, t Tool, input string) (res core.ExecutionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.opts.Logger.Error("tool.call.panic", "tool.name", t.Name(), "recover", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	return t.Execute(ctx, input)
}

// normalizeResult fills an empty side of the result from the other one.
func normalizeResult(res core.ExecutionResult) core.ExecutionResult {
	switch {
	case res.ResultForModel == "" && res.ResultForHuman != "":
		res.ResultForModel = res.ResultForHuman
	case res.ResultForHuman == "" && res.ResultForModel != "":
		res.ResultForHuman = res.ResultForModel
	}
	return res
}
