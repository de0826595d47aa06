package script

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecute_CapturesConsole(t *testing.T) {
	res, err := New().Execute(context.Background(), `
		var xs = [1, 2, 3].map(function (x) { return x * 2; });
		console.log("doubled:", xs.join(","));
		console.error("done");
	`)
	require.NoError(t, err)

	assert.Equal(t, "doubled: 2,4,6\ndone\n", res.ResultForModel)
	assert.Equal(t, res.ResultForModel, res.ResultForHuman)
}

func TestExecute_LastExpressionFallback(t *testing.T) {
	res, err := New().Execute(context.Background(), "1 + 1")
	require.NoError(t, err)
	assert.Equal(t, "2", res.ResultForModel)

	res, err = New().Execute(context.Background(), "var x = 1;")
	require.NoError(t, err)
	assert.Equal(t, "(no output)", res.ResultForModel)
}

func TestExecute_Exception(t *testing.T) {
	_, err := New().Execute(context.Background(), `throw new Error("network down")`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "network down")
}

func TestExecute_SyntaxError(t *testing.T) {
	_, err := New().Execute(context.Background(), "function (")
	assert.Error(t, err)
}

func TestExecute_InterruptedOnTimeout(t *testing.T) {
	st := New(func(o *Options) { o.Timeout = 50 * time.Millisecond })

	start := time.Now()
	_, err := st.Execute(context.Background(), "for (;;) {}")

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExecute_NoHostAccess(t *testing.T) {
	_, err := New().Execute(context.Background(), `require("fs")`)
	assert.Error(t, err)
}

func TestExecute_OutputCap(t *testing.T) {
	st := New(func(o *Options) { o.MaxOutput = 64 })

	res, err := st.Execute(context.Background(), `for (var i = 0; i < 100; i++) console.log("line " + i);`)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.ResultForModel), 64+len("...(output truncated)\n"))
	assert.True(t, strings.HasSuffix(res.ResultForModel, "...(output truncated)\n"))
}
