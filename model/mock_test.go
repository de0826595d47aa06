package model

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/reactmesh/core"
)

func drain(respCh <-chan Response, errCh <-chan error) ([]Response, error) {
	var out []Response
	for r := range respCh {
		out = append(out, r)
	}
	return out, <-errCh
}

func TestMockModel_StreamsChunks(t *testing.T) {
	m := NewMockModel("mock", 3).AddResponse("Answer: hi")

	resps, err := drain(m.Generate(context.Background(), Request{}))
	require.NoError(t, err)

	var sb strings.Builder
	for _, r := range resps[:len(resps)-1] {
		assert.True(t, r.Partial)
		assert.LessOrEqual(t, len(r.Content), 3)
		sb.WriteString(r.Content)
	}
	assert.Equal(t, "Answer: hi", sb.String())
	assert.False(t, resps[len(resps)-1].Partial)
	assert.Zero(t, m.Remaining())
}

func TestMockModel_ErrorsAndFallback(t *testing.T) {
	cause := errors.New("boom")
	m := NewMockModel("mock", 0).AddError("partial", cause)

	resps, err := drain(m.Generate(context.Background(), Request{}))
	assert.ErrorIs(t, err, cause)
	require.Len(t, resps, 1)

	_, err = drain(m.Generate(context.Background(), Request{}))
	assert.Error(t, err)

	m.WithFallback("Answer: again")
	for range 2 {
		resps, err = drain(m.Generate(context.Background(), Request{}))
		require.NoError(t, err)
		assert.Equal(t, "Answer: again", resps[0].Content)
	}
	assert.Len(t, m.Requests(), 4)
}

func TestMockModel_HangingStopsOnCancel(t *testing.T) {
	m := NewMockModel("mock", 0).AddHangingResponse("Thought: t")
	ctx, cancel := context.WithCancel(context.Background())

	respCh, errCh := m.Generate(ctx, Request{})
	first := <-respCh
	assert.Equal(t, "Thought: t", first.Content)
	cancel()

	_, err := drain(respCh, errCh)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitSystem(t *testing.T) {
	system, rest := SplitSystem([]core.Message{
		{Role: core.RoleSystem, Content: "a"},
		{Role: core.RoleUser, Content: "q"},
		{Role: core.RoleSystem, Content: "b"},
		{Role: core.RoleAssistant, Content: "r"},
	})
	assert.Equal(t, "a\n\nb", system)
	assert.Equal(t, []core.Message{{Role: core.RoleUser, Content: "q"}, {Role: core.RoleAssistant, Content: "r"}}, rest)
}

func TestSend_StopsOnDoneContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.False(t, Send(ctx, make(chan Response), Response{}))
}
