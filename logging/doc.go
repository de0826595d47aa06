// Package logging provides a minimal logging interface and adapters for reactmesh.
//
// The Logger interface defines the leveled methods (Debug, Info, Warn, Error)
// that the agent, parser and dispatcher use for observability. Arguments are
// alternating key/value pairs with dotted keys such as "tool.name". This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping a *slog.Logger
//   - ZapAdapter wrapping go.uber.org/zap, with optional rotated file output
//   - StructuredLogger with session/component context and call helpers
//   - Component and Session helpers that scope any of the above
//   - NoOpLogger for silent operation (testing, minimal setups)
//
// Usage:
//
//	logger := logging.NewZapAdapter(logging.NewZapLogger(logging.ZapConfig{Level: logging.LogLevelDebug}))
//	mesh, err := reactmesh.New(tools, llm, func(o *reactmesh.Options) { o.Logger = logger })
//
// The design keeps the interface minimal to avoid vendor lock-in while
// supporting structured logging where available.
package logging
