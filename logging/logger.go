package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"
)

// LogLevel selects the minimum severity a StructuredLogger emits.
type LogLevel int

const (
	// LogLevelDebug is the debug logging level.
	LogLevelDebug LogLevel = iota
	// LogLevelInfo is the informational logging level.
	LogLevelInfo
	// LogLevelWarn is the warning logging level.
	LogLevelWarn
	// LogLevelError is the error logging level.
	LogLevelError
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger is the leveled key/value logger every reactmesh component writes to.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter lets a plain *slog.Logger serve as a Logger.
type SlogAdapter struct {
	*slog.Logger
}

// Debug logs a debug message.
func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }

// Info logs an informational message.
func (s *SlogAdapter) Info(msg string, args ...any) { s.Logger.Info(msg, args...) }

// Warn logs a warning message.
func (s *SlogAdapter) Warn(msg string, args ...any) { s.Logger.Warn(msg, args...) }

// Error logs an error message.
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter creates a Logger from *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// StructuredLogger writes slog records tagged with the component, session and
// run they belong to, and has dedicated helpers for model streams, tool calls
// and turn-cycles.
type StructuredLogger struct {
	logger    *slog.Logger
	level     LogLevel
	attrs     map[string]any
	component string
	sessionID string
	runID     string
}

// LoggerConfig configures NewLogger.
type LoggerConfig struct {
	Level       LogLevel
	Format      string // json or text
	Output      io.Writer
	AddSource   bool
	Component   string
	SessionID   string
	RunID       string
	CustomAttrs map[string]any
}

// DefaultLoggerConfig logs JSON at info level to stdout.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{Level: LogLevelInfo, Format: "json", Output: os.Stdout, AddSource: true, CustomAttrs: map[string]any{}}
}

// NewLogger builds a StructuredLogger from cfg. A nil cfg uses DefaultLoggerConfig.
func NewLogger(cfg *LoggerConfig) *StructuredLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}
	attrs := make(map[string]any, len(cfg.CustomAttrs))
	for k, v := range cfg.CustomAttrs {
		attrs[k] = v
	}
	return &StructuredLogger{logger: slog.New(handler), level: cfg.Level, attrs: attrs, component: cfg.Component, sessionID: cfg.SessionID, runID: cfg.RunID}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelInfo:
		return slog.LevelInfo
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// clone copies l. attrs is never written after NewLogger, so copies share it.
func (l *StructuredLogger) clone() *StructuredLogger {
	nl := *l
	return &nl
}

// WithComponent returns a copy whose records carry component c, e.g. agent or dispatcher.
func (l *StructuredLogger) WithComponent(c string) *StructuredLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithSession returns a copy whose records carry the session and run ids.
func (l *StructuredLogger) WithSession(sessionID, runID string) *StructuredLogger {
	nl := l.clone()
	nl.sessionID = sessionID
	nl.runID = runID
	return nl
}

func (l *StructuredLogger) buildAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.attrs)+4)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	if l.runID != "" {
		attrs = append(attrs, slog.String("run_id", l.runID))
	}
	attrs = append(attrs, slog.Time("timestamp", time.Now()))
	for k, v := range l.attrs {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

func (l *StructuredLogger) log(level slog.Level, allowed bool, msg string, args ...any) {
	if !allowed {
		return
	}
	attrs := l.buildAttrs()
	all := make([]any, 0, len(attrs)+len(args))
	for _, a := range attrs {
		all = append(all, a)
	}
	all = append(all, args...)
	l.logger.Log(context.Background(), level, msg, all...)
}

// Debug logs at debug level.
func (l *StructuredLogger) Debug(msg string, args ...any) {
	l.log(slog.LevelDebug, l.level <= LogLevelDebug, msg, args...)
}

// Info logs at info level.
func (l *StructuredLogger) Info(msg string, args ...any) {
	l.log(slog.LevelInfo, l.level <= LogLevelInfo, msg, args...)
}

// Warn logs at warn level.
func (l *StructuredLogger) Warn(msg string, args ...any) {
	l.log(slog.LevelWarn, l.level <= LogLevelWarn, msg, args...)
}

// Error logs at error level.
func (l *StructuredLogger) Error(msg string, args ...any) {
	l.log(slog.LevelError, l.level <= LogLevelError, msg, args...)
}

// LogToolCall records one dispatched tool call.
func (l *StructuredLogger) LogToolCall(tool string, dur time.Duration, success bool, err error) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("tool_name", tool), slog.Duration("duration", dur), slog.Bool("success", success))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelInfo
	msg := "Tool execution completed"
	if !success {
		level = slog.LevelError
		msg = "Tool execution failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogLLMCall records one model stream with the token usage it reported.
func (l *StructuredLogger) LogLLMCall(model string, tokens int, dur time.Duration, success bool, err error) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.String("model", model), slog.Int("token_count", tokens), slog.Duration("duration", dur), slog.Bool("success", success))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelInfo
	msg := "LLM call completed"
	if !success {
		level = slog.LevelError
		msg = "LLM call failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// LogCycle records the outcome of one turn-cycle of an agent run.
func (l *StructuredLogger) LogCycle(cycle int, state string, dur time.Duration, err error) {
	attrs := l.buildAttrs()
	attrs = append(attrs, slog.Int("cycle", cycle), slog.String("state", state), slog.Duration("duration", dur), slog.Bool("success", err == nil))
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	level := slog.LevelInfo
	msg := "Turn cycle completed"
	if err != nil {
		level = slog.LevelError
		msg = "Turn cycle failed"
	}
	l.logger.LogAttrs(context.Background(), level, msg, attrs...)
}

// NoOpLogger discards everything. Components fall back to it when no logger is set.
type NoOpLogger struct{}

// Debug logs a debug message.
func (NoOpLogger) Debug(string, ...any) {}

// Info logs an informational message.
func (NoOpLogger) Info(string, ...any) {}

// Warn logs a warning message.
func (NoOpLogger) Warn(string, ...any) {}

// Error logs an error message.
func (NoOpLogger) Error(string, ...any) {}

// NewSlogLogger is a shorthand for NewLogger with stdout output.
func NewSlogLogger(level LogLevel, format string, addSource bool) *StructuredLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

// Component scopes l to a component when l supports it and returns l
// unchanged otherwise.
func Component(l Logger, component string) Logger {
	switch v := l.(type) {
	case *StructuredLogger:
		return v.WithComponent(component)
	case *ZapAdapter:
		return v.With("component", component)
	case *SlogAdapter:
		return &SlogAdapter{Logger: v.With("component", component)}
	}
	return l
}

// Session scopes l to one run of a session when l supports it and returns l
// unchanged otherwise.
func Session(l Logger, sessionID, runID string) Logger {
	switch v := l.(type) {
	case *StructuredLogger:
		return v.WithSession(sessionID, runID)
	case *ZapAdapter:
		return v.With("session_id", sessionID, "run_id", runID)
	case *SlogAdapter:
		return &SlogAdapter{Logger: v.With("session_id", sessionID, "run_id", runID)}
	}
	return l
}

// CallLogger is implemented by loggers that offer dedicated helpers for model
// and tool calls, such as StructuredLogger.
type CallLogger interface {
	LogToolCall(tool string, dur time.Duration, success bool, err error)
	LogLLMCall(model string, tokens int, dur time.Duration, success bool, err error)
}

// CycleLogger is implemented by loggers with a dedicated turn-cycle helper.
type CycleLogger interface {
	LogCycle(cycle int, state string, dur time.Duration, err error)
}

// Cycle logs a finished turn-cycle through l.
func Cycle(l Logger, cycle int, state string, dur time.Duration, err error) {
	if cl, ok := l.(CycleLogger); ok {
		cl.LogCycle(cycle, state, dur, err)
		return
	}
	if err != nil {
		l.Warn("agent.cycle.error", "cycle", cycle, "state", state, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Debug("agent.cycle.end", "cycle", cycle, "state", state, "duration_ms", dur.Milliseconds())
}

// ToolCall logs a finished tool call through l, using the dedicated helper
// when l implements CallLogger.
func ToolCall(l Logger, tool string, dur time.Duration, err error) {
	if cl, ok := l.(CallLogger); ok {
		cl.LogToolCall(tool, dur, err == nil, err)
		return
	}
	if err != nil {
		l.Error("tool.call.error", "tool.name", tool, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("tool.call.success", "tool.name", tool, "duration_ms", dur.Milliseconds())
}

// LLMCall logs a finished model stream through l, using the dedicated helper
// when l implements CallLogger.
func LLMCall(l Logger, model string, tokens int, dur time.Duration, err error) {
	if cl, ok := l.(CallLogger); ok {
		cl.LogLLMCall(model, tokens, dur, err == nil, err)
		return
	}
	if err != nil {
		l.Error("llm.call.error", "model", model, "duration_ms", dur.Milliseconds(), "error", err.Error())
		return
	}
	l.Info("llm.call.success", "model", model, "tokens", tokens, "duration_ms", dur.Milliseconds())
}
