package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/internal/testutil"
	"github.com/hupe1980/reactmesh/model"
	"github.com/hupe1980/reactmesh/tool"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func searchTool(result string, err error) tool.Tool {
	return tool.NewTextTool("search", "search the web", func(_ context.Context, input string) (string, error) {
		if err != nil {
			return "", err
		}
		return result + " for " + input, nil
	})
}

func browseTool() tool.Tool {
	return tool.NewTextTool("browse", "read a web page", func(_ context.Context, input string) (string, error) {
		return "page " + input, nil
	})
}

func newAgent(t *testing.T, llm model.Model, optFns []func(o *Options), tools ...tool.Tool) *Agent {
	t.Helper()
	reg, err := tool.NewRegistry(tools...)
	require.NoError(t, err)
	a, err := New(llm, tool.NewDispatcher(reg), optFns...)
	require.NoError(t, err)
	return a
}

func run(t *testing.T, a *Agent, history []core.Turn) (core.Turn, testutil.Events, error) {
	t.Helper()
	events := make(chan core.Event, 256)
	turn, err := a.Run(context.Background(), history, events)
	close(events)
	return turn, testutil.Collect(events), err
}

func lastMessage(req model.Request) core.Message {
	return req.Messages[len(req.Messages)-1]
}

func TestNew_RendersSystemPrompt(t *testing.T) {
	a := newAgent(t, model.NewMockModel("m", 0), []func(o *Options){func(o *Options) {
		o.PromptTemplate = "tools: {{toolNames}}\n{{tools}}"
	}}, searchTool("", nil), browseTool())

	assert.Equal(t, "tools: search, browse\n  search: search the web\n\n  browse: read a web page", a.SystemPrompt())
}

func TestNew_Validation(t *testing.T) {
	reg, err := tool.NewRegistry()
	require.NoError(t, err)

	_, err = New(nil, tool.NewDispatcher(reg))
	assert.Error(t, err)

	_, err = New(model.NewMockModel("m", 0), nil)
	assert.Error(t, err)

	_, err = New(model.NewMockModel("m", 0), tool.NewDispatcher(reg), func(o *Options) { o.PromptTemplate = "{{broken" })
	assert.Error(t, err)
}

func TestRun_DirectAnswer(t *testing.T) {
	llm := model.NewMockModel("m", 4).AddResponse("Answer: The sky is blue.")
	a := newAgent(t, llm, nil, searchTool("", nil))

	turn, events, err := run(t, a, testutil.History("why is the sky blue?"))

	require.NoError(t, err)
	assert.Equal(t, core.RoleAssistant, turn.Role)
	assert.Empty(t, turn.Steps)
	assert.Equal(t, "The sky is blue.", turn.Content)
	assert.Empty(t, events.Steps())
	assert.Equal(t, "The sky is blue.", events.Content())
	assert.False(t, events[len(events)-1].Pending)

	reqs := llm.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, core.RoleSystem, reqs[0].Messages[0].Role)
	assert.Equal(t, core.Message{Role: core.RoleUser, Content: "why is the sky blue?"}, lastMessage(reqs[0]))
	assert.Equal(t, DefaultStop, reqs[0].Stop)
}

func TestRun_ActionObservationAnswer(t *testing.T) {
	llm := model.NewMockModel("m", 5).
		AddResponse("Thought: I should search.\nAction: search\nInput: \"weather today\"\nObservation: imagined rain").
		AddResponse("Thought: I know now.\nAnswer: It is sunny.")
	a := newAgent(t, llm, nil, searchTool("sunny", nil))

	turn, events, err := run(t, a, testutil.History("weather?"))
	require.NoError(t, err)

	want := testutil.NewTurnBuilder().
		Thought("I should search.").
		Action("search", "weather today").
		Observation("sunny for weather today").
		Thought("I know now.").
		Answer("It is sunny.").
		Build()

	if diff := cmp.Diff(want, turn, cmpopts.IgnoreFields(core.Turn{}, "ID", "Created")); diff != "" {
		t.Fatalf("turn mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []core.StepKind{core.StepThought, core.StepAction, core.StepObservation, core.StepThought}, events.Kinds())

	reqs := llm.Requests()
	require.Len(t, reqs, 2)
	synthetic := lastMessage(reqs[1])
	assert.Equal(t, core.RoleAssistant, synthetic.Role)
	assert.Equal(t, "Thought: I should search.\nAction: search\nInput: weather today\nObservation: sunny for weather today\n", synthetic.Content)
	assert.NotContains(t, synthetic.Content, "imagined")
}

func TestRun_ExpectedAbortIsSwallowed(t *testing.T) {
	// The first stream stays open after the action until the agent aborts it.
	llm := model.NewMockModel("m", 3).
		AddHangingResponse("Thought: look\nAction: search\nInput: go\nObservation:").
		AddResponse("Answer: done")
	a := newAgent(t, llm, nil, searchTool("hits", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	turn, err := a.Run(ctx, testutil.History("q"), nil)

	require.NoError(t, err)
	assert.Equal(t, "done", turn.Content)
	assert.Len(t, turn.Steps, 3)
	assert.Zero(t, llm.Remaining())
}

func TestRun_ThreeHopsShareOneAssistantMessage(t *testing.T) {
	llm := model.NewMockModel("m", 0).
		AddResponse("Thought: one\nAction: search\nInput: a\nObservation:").
		AddResponse("Thought: two\nAction: browse\nInput: b\nObservation:").
		AddResponse("Thought: three\nAction: search\nInput: c\nObservation:").
		AddResponse("Thought: four\nAnswer: final")
	a := newAgent(t, llm, nil, searchTool("r", nil), browseTool())

	history := testutil.History("first question", "first answer", "second question")
	turn, _, err := run(t, a, history)
	require.NoError(t, err)

	reqs := llm.Requests()
	require.Len(t, reqs, 4)
	for i, req := range reqs {
		// system + history + at most one assistant message for the turn in progress
		want := 1 + len(history)
		if i > 0 {
			want++
		}
		assert.Len(t, req.Messages, want, "request %d", i)
	}

	last := lastMessage(reqs[3]).Content
	assert.Equal(t, 3, strings.Count(last, "Observation: "))
	assert.True(t, strings.HasPrefix(last, "Thought: one\n"))
	assert.True(t, strings.HasSuffix(last, "Observation: r for c\n"))

	assert.Len(t, turn.Steps, 10)
	assert.Equal(t, "final", turn.Content)
}

func TestRun_ResumedTraceMergesIntoPrecedingAssistantTurn(t *testing.T) {
	llm := model.NewMockModel("m", 0).
		AddResponse("Thought: more\nAction: search\nInput: x\nObservation:").
		AddResponse("Answer: ok")
	a := newAgent(t, llm, nil, searchTool("r", nil))

	history := []core.Turn{
		core.NewUserTurn("q"),
		testutil.NewTurnBuilder().Thought("earlier").Build(),
	}
	_, _, err := run(t, a, history)
	require.NoError(t, err)

	second := llm.Requests()[1]
	require.Len(t, second.Messages, 3)
	assert.True(t, strings.HasPrefix(lastMessage(second).Content, "Thought: earlier\nThought: more\n"))
}

func TestRun_MissingInput(t *testing.T) {
	llm := model.NewMockModel("m", 2).
		AddResponse("Thought: search it\nAction: search\nObservation:").
		AddResponse("Answer: never requested")
	a := newAgent(t, llm, nil, searchTool("r", nil))

	turn, _, err := run(t, a, testutil.History("q"))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingInput)
	assert.Equal(t, 1, llm.Remaining())
	assert.Equal(t, []core.Step{core.NewThoughtStep("search it")}, turn.Steps)
}

func TestRun_UnknownTool(t *testing.T) {
	llm := model.NewMockModel("m", 0).AddResponse("Thought: translate\nAction: translate\nInput: hola\nObservation:")
	a := newAgent(t, llm, nil, searchTool("r", nil), browseTool())

	turn, events, err := run(t, a, testutil.History("translate hola"))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnknownTool)
	assert.Contains(t, err.Error(), "translate")
	assert.Equal(t, []core.StepKind{core.StepThought, core.StepAction}, events.Kinds())
	assert.Len(t, turn.Steps, 2)
}

func TestRun_ToolExecutionError(t *testing.T) {
	llm := model.NewMockModel("m", 0).AddResponse("Thought: t\nAction: Search\nInput: `weather`\nObservation:")
	a := newAgent(t, llm, nil, searchTool("", errors.New("network down")))

	_, events, err := run(t, a, testutil.History("q"))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrToolExecution)

	var agentErr *core.Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, "search", agentErr.Tool)
	assert.Equal(t, "weather", agentErr.Input)
	assert.Contains(t, err.Error(), "network down")
	assert.NotContains(t, events.Kinds(), core.StepObservation)
}

func TestRun_TransportFailure(t *testing.T) {
	cause := errors.New("503 service unavailable")
	llm := model.NewMockModel("m", 0).AddError("Thought: partial", cause)
	a := newAgent(t, llm, nil)

	_, _, err := run(t, a, testutil.History("q"))

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)

	var agentErr *core.Error
	assert.False(t, errors.As(err, &agentErr))
}

func TestRun_UnexpectedResponseIsNotAnError(t *testing.T) {
	llm := model.NewMockModel("m", 3).AddResponse("I refuse to use the format.")
	a := newAgent(t, llm, nil)

	turn, events, err := run(t, a, testutil.History("q"))

	require.NoError(t, err)
	assert.Equal(t, "I refuse to use the format.", turn.Content)
	assert.Equal(t, "I refuse to use the format.", events.Content())
}

func TestRun_MaxCycles(t *testing.T) {
	llm := model.NewMockModel("m", 0)
	for range 3 {
		llm.AddResponse("Thought: again\nAction: search\nInput: x\nObservation:")
	}
	a := newAgent(t, llm, []func(o *Options){func(o *Options) { o.MaxCycles = 2 }}, searchTool("r", nil))

	turn, _, err := run(t, a, testutil.History("q"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "exceeded max turn cycles")
	assert.Equal(t, 1, llm.Remaining())
	assert.Len(t, turn.Steps, 6)
}

// truncatedModel closes its stream without ever marking it complete.
type truncatedModel struct{ text string }

func (m truncatedModel) Generate(ctx context.Context, _ model.Request) (<-chan model.Response, <-chan error) {
	out := make(chan model.Response, 1)
	errCh := make(chan error, 1)
	out <- model.Response{Partial: true, Content: m.text}
	close(out)
	close(errCh)
	return out, errCh
}

func (m truncatedModel) Info() model.Info { return model.Info{Name: "truncated", Provider: "test"} }

func TestRun_UnexpectedState(t *testing.T) {
	a := newAgent(t, truncatedModel{text: "Thought: still thinking"}, nil)

	_, _, err := run(t, a, testutil.History("q"))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnexpectedState)

	var agentErr *core.Error
	require.ErrorAs(t, err, &agentErr)
	assert.Equal(t, core.StateThink.String(), agentErr.State)
}

func TestRun_UserCancellationIsSurfaced(t *testing.T) {
	llm := model.NewMockModel("m", 0).AddHangingResponse("Answer: partial")
	a := newAgent(t, llm, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := make(chan core.Event, 16)
	type result struct {
		turn core.Turn
		err  error
	}
	done := make(chan result, 1)
	go func() {
		turn, err := a.Run(ctx, testutil.History("q"), events)
		done <- result{turn, err}
	}()

	select {
	case ev := <-events:
		assert.Equal(t, "partial", ev.Content)
		assert.True(t, ev.Pending)
	case <-time.After(5 * time.Second):
		t.Fatal("no content event")
	}
	cancel()

	select {
	case res := <-done:
		assert.ErrorIs(t, res.err, context.Canceled)
		assert.Equal(t, "partial", res.turn.Content)
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after cancellation")
	}
}
