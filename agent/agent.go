package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/logging"
	"github.com/hupe1980/reactmesh/model"
	"github.com/hupe1980/reactmesh/parser"
	"github.com/hupe1980/reactmesh/prompt"
	"github.com/hupe1980/reactmesh/session"
	"github.com/hupe1980/reactmesh/tool"
)

// DefaultStop asks providers that support stop sequences to end the stream
// where the model would start imagining a tool result.
var DefaultStop = []string{"\nObservation:"}

// Options configures an Agent.
type Options struct {
	// PromptTemplate is rendered once at construction into the system prompt.
	// Defaults to prompt.Default.
	PromptTemplate string

	// MaxCycles bounds the model round trips of a single run. Zero means
	// unlimited.
	MaxCycles int

	// Stop is forwarded to the model as stop sequences.
	Stop []string

	// Logger receives run, cycle and model call logs.
	Logger logging.Logger
}

// Agent drives the reasoning-and-acting loop: it streams completions from the
// model, feeds them to the parser, executes the actions the parser schedules
// and folds the observations back into the next request until an answer is
// produced.
//
// An Agent holds no per-run state and may serve concurrent runs; each run
// owns its turn trace and a fresh core.TurnContext per cycle.
type Agent struct {
	llm        model.Model
	dispatcher *tool.Dispatcher
	parser     *parser.Parser
	system     string
	opts       Options
}

// New creates an Agent. The system prompt is rendered from the template and
// the dispatcher's registered tools.
func New(llm model.Model, dispatcher *tool.Dispatcher, optFns ...func(o *Options)) (*Agent, error) {
	opts := Options{
		PromptTemplate: prompt.Default,
		MaxCycles:      core.DefaultMaxCycles,
		Stop:           DefaultStop,
		Logger:         logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	opts.Logger = logging.Component(opts.Logger, "agent")

	if llm == nil {
		return nil, errors.New("agent: model is required")
	}

	if dispatcher == nil {
		return nil, errors.New("agent: dispatcher is required")
	}

	tools := dispatcher.Registry().Tools()
	described := make([]prompt.Tool, len(tools))
	for i, t := range tools {
		described[i] = t
	}

	system, err := prompt.Render(opts.PromptTemplate, described)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	return &Agent{
		llm:        llm,
		dispatcher: dispatcher,
		parser:     parser.New(),
		system:     system,
		opts:       opts,
	}, nil
}

// SystemPrompt returns the rendered system prompt.
func (a *Agent) SystemPrompt() string { return a.system }

// Run answers the conversation in history, whose last entry is normally the
// user's turn. Steps and answer content are sent to emit as they are parsed;
// emit may be nil. Run returns the assistant turn holding the whole reasoning
// trace, also when it fails, so callers can show partial progress.
//
// Cancelling ctx stops the run with the context error. Failures of the turn
// are *core.Error values, or the transport error of the model.
func (a *Agent) Run(ctx context.Context, history []core.Turn, emit chan<- core.Event) (core.Turn, error) {
	logger := a.opts.Logger
	trace := core.NewTurn(core.RoleAssistant, "")
	limiter := core.NewCycleLimiter(a.opts.MaxCycles)
	state := core.StateStart
	start := time.Now()

	logger.Info("agent.run.start", "turn.id", trace.ID, "history.len", len(history))

	for {
		if err := limiter.Increment(); err != nil {
			logger.Warn("agent.run.limit", "turn.id", trace.ID, "cycles", a.opts.MaxCycles)
			return finish(trace), err
		}

		tc := core.NewTurnContext(ctx, state, &trace, emit, logger)
		cycleStart := time.Now()
		done, err := a.cycle(tc, history, limiter.Count())
		tc.Close()

		logging.Cycle(logger, limiter.Count(), tc.State.String(), time.Since(cycleStart), err)

		if err != nil {
			logger.Error("agent.run.error", "turn.id", trace.ID, "cycles", limiter.Count(), "error", err.Error())
			return finish(trace), err
		}

		if done {
			break
		}

		state = core.StateExecute
	}

	logger.Info("agent.run.end", "turn.id", trace.ID, "cycles", limiter.Count(), "steps", len(trace.Steps), "duration_ms", time.Since(start).Milliseconds())

	return finish(trace), nil
}

// cycle performs one send-and-parse round trip. It reports whether the run
// reached its end.
func (a *Agent) cycle(tc *core.TurnContext, history []core.Turn, n int) (bool, error) {
	logger := a.opts.Logger
	start := time.Now()

	logger.Debug("agent.cycle.start", "cycle", n, "state", tc.State.String())

	tokens, streamErr, parseErr := a.stream(tc, a.request(history, *tc.Trace))

	outcome := tc.Outcome(streamErr)
	switch {
	case outcome.Kind == core.OutcomeCancelled && outcome.Expected:
		logging.LLMCall(logger, a.llm.Info().Name, tokens, time.Since(start), nil)
	default:
		logging.LLMCall(logger, a.llm.Info().Name, tokens, time.Since(start), outcome.Err)
	}

	if outcome.Kind == core.OutcomeCancelled && !outcome.Expected {
		tc.Transition(core.StateEnd)
		return false, outcome.Err
	}

	if parseErr != nil {
		return false, parseErr
	}

	if outcome.Fatal() {
		tc.Transition(core.StateEnd)
		return false, fmt.Errorf("model stream failed: %w", outcome.Err)
	}

	if action := tc.Scheduled(); action != nil {
		if _, err := a.dispatcher.Execute(tc.Run(), *action, tc.Emitter()); err != nil {
			tc.Transition(core.StateEnd)
			return false, err
		}
		return false, nil
	}

	if tc.State == core.StateEnd {
		return true, nil
	}

	state := tc.State
	tc.Transition(core.StateEnd)
	return false, core.NewUnexpectedStateError(state, "model stream ended without an action or an answer")
}

// stream sends req and feeds every delta to the parser. The response channel
// is always drained so the transport can shut down; after a parse failure the
// remaining deltas are discarded.
func (a *Agent) stream(tc *core.TurnContext, req model.Request) (tokens int, streamErr, parseErr error) {
	respCh, errCh := a.llm.Generate(tc.Context, req)

	for resp := range respCh {
		if resp.Usage != nil {
			tokens = resp.Usage.TotalTokens
		}
		if parseErr != nil {
			continue
		}
		if err := a.parser.Feed(tc, resp.Content, resp.Partial); err != nil {
			parseErr = err
			tc.Abort()
		}
	}

	return tokens, <-errCh, parseErr
}

// request builds the outbound conversation: the system prompt, the history,
// and the reasoning trace of the current turn reconciled into it.
func (a *Agent) request(history []core.Turn, trace core.Turn) model.Request {
	conversation := history
	if len(trace.Steps) > 0 || trace.Content != "" {
		conversation = session.Reconcile(history, trace)
	}

	msgs := make([]core.Message, 0, len(conversation)+1)
	msgs = append(msgs, core.Message{Role: core.RoleSystem, Content: a.system})
	for _, t := range conversation {
		msgs = append(msgs, t.Message())
	}

	return model.Request{Messages: msgs, Stop: a.opts.Stop}
}

func finish(trace core.Turn) core.Turn {
	trace.Content = strings.TrimSpace(trace.Content)
	return trace.Clone()
}
