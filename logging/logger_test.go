package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestStructuredLogger_KeyValueArgs(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelDebug, Format: "json", Output: &buf}).
		WithComponent("agent").
		WithSession("s1", "r1")

	l.Info("agent.cycle.start", "cycle", 2)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "agent.cycle.start", entry["msg"])
	assert.Equal(t, "agent", entry["component"])
	assert.Equal(t, "s1", entry["session_id"])
	assert.Equal(t, "r1", entry["run_id"])
	assert.EqualValues(t, 2, entry["cycle"])
}

func TestStructuredLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelWarn, Output: &buf})

	l.Info("dropped")
	assert.Zero(t, buf.Len())

	l.Warn("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestCallHelpers_UseDedicatedMethods(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(&LoggerConfig{Level: LogLevelInfo, Output: &buf})

	ToolCall(l, "search", 5*time.Millisecond, nil)
	assert.Contains(t, buf.String(), "Tool execution completed")

	buf.Reset()
	LLMCall(l, "gpt", 12, time.Millisecond, errors.New("boom"))
	assert.Contains(t, buf.String(), "LLM call failed")
	assert.Contains(t, buf.String(), "boom")

	buf.Reset()
	Cycle(l, 1, "execute", time.Millisecond, nil)
	assert.Contains(t, buf.String(), "Turn cycle completed")
}

func TestCallHelpers_FallBackToLeveledMethods(t *testing.T) {
	zc, logs := observer.New(zap.DebugLevel)
	l := NewZapAdapter(zap.New(zc))

	ToolCall(l, "search", time.Millisecond, nil)
	LLMCall(l, "gpt", 3, time.Millisecond, errors.New("down"))
	Cycle(l, 2, "think", time.Millisecond, errors.New("stuck"))

	entries := logs.AllUntimed()
	require.Len(t, entries, 3)
	assert.Equal(t, "tool.call.success", entries[0].Message)
	assert.Equal(t, "search", entries[0].ContextMap()["tool.name"])
	assert.Equal(t, "llm.call.error", entries[1].Message)
	assert.Equal(t, "down", entries[1].ContextMap()["error"])
	assert.Equal(t, "agent.cycle.error", entries[2].Message)
	assert.Equal(t, "think", entries[2].ContextMap()["state"])
}

func TestScopeHelpers(t *testing.T) {
	t.Run("structured", func(t *testing.T) {
		var buf bytes.Buffer
		base := NewLogger(&LoggerConfig{Level: LogLevelInfo, Output: &buf})

		Session(Component(base, "dispatcher"), "s1", "r1").Info("tool.call.start")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "dispatcher", entry["component"])
		assert.Equal(t, "s1", entry["session_id"])
		assert.Equal(t, "r1", entry["run_id"])
		assert.Empty(t, base.component)
	})

	t.Run("zap", func(t *testing.T) {
		zc, logs := observer.New(zap.InfoLevel)
		l := Session(Component(NewZapAdapter(zap.New(zc)), "agent"), "s2", "r2")

		l.Info("agent.run.start")

		require.Equal(t, 1, logs.Len())
		fields := logs.AllUntimed()[0].ContextMap()
		assert.Equal(t, "agent", fields["component"])
		assert.Equal(t, "s2", fields["session_id"])
		assert.Equal(t, "r2", fields["run_id"])
	})

	t.Run("slog", func(t *testing.T) {
		var buf bytes.Buffer
		l := Component(NewSlogAdapter(slog.New(slog.NewJSONHandler(&buf, nil))), "agent")

		l.Info("agent.run.end")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "agent", entry["component"])
	})

	t.Run("other loggers pass through", func(t *testing.T) {
		var l Logger = NoOpLogger{}
		assert.Equal(t, l, Component(l, "agent"))
		assert.Equal(t, l, Session(l, "s", "r"))
	})
}

func TestZapAdapter_Levels(t *testing.T) {
	zc, logs := observer.New(zap.InfoLevel)
	l := NewZapAdapter(zap.New(zc))

	l.Debug("hidden")
	l.Info("parser.state.transition", "state.from", "think", "state.to", "action")
	l.Warn("w")
	l.Error("e")

	assert.Equal(t, 3, logs.Len())
	first := logs.AllUntimed()[0]
	assert.Equal(t, "action", first.ContextMap()["state.to"])
}

func TestNewZapLogger_WritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reactmesh.log")
	var console bytes.Buffer

	logger := NewZapLogger(ZapConfig{
		Level:  LogLevelInfo,
		Output: &console,
		File:   &FileConfig{Path: path, MaxSizeMB: 1},
	})
	NewZapAdapter(logger).Info("agent.run.end", "cycles", 3)
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "agent.run.end")
	assert.Contains(t, console.String(), "agent.run.end")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warning"))
	assert.Equal(t, LogLevelError, ParseLevel("ERROR"))
	assert.Equal(t, LogLevelInfo, ParseLevel("verbose"))
}
