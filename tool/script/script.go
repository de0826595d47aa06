// Package script provides a tool that runs JavaScript in an embedded goja
// VM. Each execution gets a fresh VM with no filesystem, network or module
// access; console output is the result.
package script

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"

	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/tool"
)

// DefaultTimeout is the fallback execution timeout if the context has no deadline.
const DefaultTimeout = 10 * time.Second

const (
	description = "Run a JavaScript (ECMAScript 5.1+) script in a sandbox without " +
		"filesystem, network or module access. Input is raw JavaScript code, do not " +
		"pass markdown text. Output is the console output, can only get output from " +
		"console.log."

	noOutput = "(no output)"
)

// Options configures the script tool.
type Options struct {
	Timeout time.Duration
	// MaxOutput caps the captured console output in bytes.
	MaxOutput int
}

// Tool evaluates JavaScript snippets.
type Tool struct {
	opts Options
}

// New creates a script tool.
func New(optFns ...func(o *Options)) *Tool {
	opts := Options{
		Timeout:   DefaultTimeout,
		MaxOutput: 16 << 10,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Tool{opts: opts}
}

var _ tool.Tool = (*Tool)(nil)

// Name implements tool.Tool.
func (t *Tool) Name() string { return "eval" }

// DisplayName implements tool.Tool.
func (t *Tool) DisplayName() string { return "Script" }

// Description implements tool.Tool.
func (t *Tool) Description() string { return description }

// Execute implements tool.Tool. When the script logs nothing, the value of
// its last expression is returned instead.
func (t *Tool) Execute(ctx context.Context, code string) (core.ExecutionResult, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline && t.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.Timeout)
		defer cancel()
	}

	vm := goja.New()
	out := &console{max: t.opts.MaxOutput}
	if err := out.install(vm); err != nil {
		return core.ExecutionResult{}, fmt.Errorf("install console: %w", err)
	}

	// Goja is interrupted from another goroutine when the context ends.
	stop := context.AfterFunc(ctx, func() { vm.Interrupt(ctx.Err()) })
	defer stop()

	value, err := vm.RunString(code)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return core.ExecutionResult{}, fmt.Errorf("javascript execution interrupted: %w", ctx.Err())
		}
		var jsErr *goja.Exception
		if errors.As(err, &jsErr) {
			return core.ExecutionResult{}, fmt.Errorf("javascript exception: %s", jsErr.Error())
		}
		return core.ExecutionResult{}, fmt.Errorf("javascript error: %w", err)
	}

	output := out.String()
	if output == "" && value != nil && !goja.IsUndefined(value) && !goja.IsNull(value) {
		output = value.String()
	}
	if output == "" {
		output = noOutput
	}

	return core.ExecutionResult{ResultForHuman: output, ResultForModel: output}, nil
}

// console captures console.* calls of a VM.
type console struct {
	sb        strings.Builder
	max       int
	truncated bool
}

func (c *console) install(vm *goja.Runtime) error {
	obj := vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := obj.Set(name, c.write); err != nil {
			return err
		}
	}
	return vm.Set("console", obj)
}

func (c *console) write(call goja.FunctionCall) goja.Value {
	parts := make([]string, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		parts = append(parts, arg.String())
	}
	line := strings.Join(parts, " ") + "\n"

	if c.max > 0 && c.sb.Len()+len(line) > c.max {
		if !c.truncated {
			c.sb.WriteString("...(output truncated)\n")
			c.truncated = true
		}
		return goja.Undefined()
	}
	c.sb.WriteString(line)
	return goja.Undefined()
}

// String returns the captured output.
func (c *console) String() string { return c.sb.String() }
