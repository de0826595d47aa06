// Package reactmesh provides a high-level facade over the reasoning-and-acting
// agent loop, its tool registry and a conversation history store. Most
// applications interact with this package by:
//  1. Creating a ReactMesh via New() with the tools and the model to use
//  2. Invoking it asynchronously (Invoke) or synchronously (InvokeSync) per
//     session
//  3. Optionally regenerating the last answer of a session (Regenerate)
//
// All defaults are safe for local development and testing; production
// deployments typically supply a durable history store and a structured
// logger.
package reactmesh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/reactmesh/agent"
	"github.com/hupe1980/reactmesh/core"
	"github.com/hupe1980/reactmesh/logging"
	"github.com/hupe1980/reactmesh/model"
	"github.com/hupe1980/reactmesh/session"
	"github.com/hupe1980/reactmesh/tool"
)

// ErrNothingToRegenerate is returned by Regenerate when the session has no
// user turn to answer again.
var ErrNothingToRegenerate = errors.New("session has no user turn to regenerate from")

// Options configures the ReactMesh instance.
type Options struct {
	// HistoryStore persists conversation histories. Defaults to an in-memory
	// store.
	HistoryStore core.HistoryStore

	// EventBufferSize sets the buffer of the event channel returned by Invoke.
	EventBufferSize int

	// AgentOptions are applied to the underlying agent.
	AgentOptions []func(o *agent.Options)

	// DispatcherOptions are applied to the tool dispatcher.
	DispatcherOptions []func(o *tool.DispatcherOptions)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// ReactMesh is the high-level facade aggregating the agent and its services.
type ReactMesh struct {
	opts     Options
	registry *tool.Registry
	agent    *agent.Agent

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a ReactMesh answering with llm and the given tools. Tool names
// must be unique regardless of case.
func New(tools []tool.Tool, llm model.Model, optFns ...func(o *Options)) (*ReactMesh, error) {
	opts := Options{
		HistoryStore:    session.NewInMemoryStore(),
		EventBufferSize: 100,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	registry, err := tool.NewRegistry(tools...)
	if err != nil {
		return nil, err
	}

	dispatcher := tool.NewDispatcher(registry, append([]func(o *tool.DispatcherOptions){
		func(o *tool.DispatcherOptions) { o.Logger = opts.Logger },
	}, opts.DispatcherOptions...)...)

	a, err := agent.New(llm, dispatcher, append([]func(o *agent.Options){
		func(o *agent.Options) { o.Logger = opts.Logger },
	}, opts.AgentOptions...)...)
	if err != nil {
		return nil, err
	}

	return &ReactMesh{
		opts:     opts,
		registry: registry,
		agent:    a,
		locks:    make(map[string]*sync.Mutex),
	}, nil
}

// Tools returns the registered tools in registration order.
func (m *ReactMesh) Tools() []tool.Tool { return m.registry.Tools() }

// History returns the persisted history of a session.
func (m *ReactMesh) History(sessionID string) ([]core.Turn, error) {
	return m.opts.HistoryStore.Get(sessionID)
}

// Invoke answers userText within a session asynchronously. Events are
// streamed while the agent works; the events channel is closed when the run
// ends and the error channel then yields the terminal error, if any.
//
// The user turn and the assistant turn are persisted together once the run
// succeeds. Failed or cancelled runs leave the history untouched.
func (m *ReactMesh) Invoke(ctx context.Context, sessionID, userText string) (<-chan core.Event, <-chan error) {
	user := core.NewUserTurn(userText)

	return m.start(ctx, sessionID, func(history []core.Turn) ([]core.Turn, func(core.Turn) error) {
		history = append(history, user)
		return history, func(turn core.Turn) error {
			if err := m.opts.HistoryStore.Append(sessionID, user); err != nil {
				return fmt.Errorf("failed to append user turn: %w", err)
			}
			return session.Commit(m.opts.HistoryStore, sessionID, turn)
		}
	})
}

// Regenerate drops the trailing assistant turns of a session and answers its
// last user turn again.
func (m *ReactMesh) Regenerate(ctx context.Context, sessionID string) (<-chan core.Event, <-chan error) {
	return m.start(ctx, sessionID, func(history []core.Turn) ([]core.Turn, func(core.Turn) error) {
		rewound, ok := session.Rewind(history)
		if !ok {
			return nil, nil
		}
		return rewound, func(turn core.Turn) error {
			return m.opts.HistoryStore.Replace(sessionID, session.Reconcile(rewound, turn))
		}
	})
}

// InvokeSync is a synchronous helper that drains the async channels and
// returns all events.
func (m *ReactMesh) InvokeSync(ctx context.Context, sessionID, userText string) ([]core.Event, error) {
	eventsCh, errorsCh := m.Invoke(ctx, sessionID, userText)
	return drain(eventsCh, errorsCh)
}

// RegenerateSync is the synchronous variant of Regenerate.
func (m *ReactMesh) RegenerateSync(ctx context.Context, sessionID string) ([]core.Event, error) {
	eventsCh, errorsCh := m.Regenerate(ctx, sessionID)
	return drain(eventsCh, errorsCh)
}

// prepareFunc turns the stored history into the conversation to answer and a
// commit callback. A nil conversation means there is nothing to answer.
type prepareFunc func(history []core.Turn) ([]core.Turn, func(core.Turn) error)

func (m *ReactMesh) start(ctx context.Context, sessionID string, prepare prepareFunc) (<-chan core.Event, <-chan error) {
	eventsCh := make(chan core.Event, m.opts.EventBufferSize)
	errorsCh := make(chan error, 1)

	go func() {
		defer close(errorsCh)
		defer close(eventsCh)

		if err := m.run(ctx, sessionID, prepare, eventsCh); err != nil {
			errorsCh <- err
		}
	}()

	return eventsCh, errorsCh
}

func (m *ReactMesh) run(ctx context.Context, sessionID string, prepare prepareFunc, emit chan<- core.Event) error {
	// Runs of one session are serialized so each sees the previous result.
	lock := m.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	runID := core.NewID()
	logger := logging.Session(m.opts.Logger, sessionID, runID)
	start := time.Now()

	history, err := m.opts.HistoryStore.Get(sessionID)
	if err != nil {
		return fmt.Errorf("failed to get history: %w", err)
	}

	conversation, commit := prepare(history)
	if conversation == nil {
		return ErrNothingToRegenerate
	}

	logger.Info("mesh.invoke.start", "session.id", sessionID, "history.len", len(history))

	turn, err := m.agent.Run(ctx, conversation, emit)
	if err != nil {
		logger.Warn("mesh.invoke.failed", "session.id", sessionID, "error", err.Error())
		return err
	}

	if err := commit(turn); err != nil {
		return fmt.Errorf("failed to persist turn: %w", err)
	}

	logger.Info("mesh.invoke.end", "session.id", sessionID, "turn.id", turn.ID, "duration_ms", time.Since(start).Milliseconds())

	return nil
}

func (m *ReactMesh) sessionLock(sessionID string) *sync.Mutex {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.locks[sessionID]
	if !ok {
		l = &sync.Mutex{}
		m.locks[sessionID] = l
	}
	return l
}

func drain(eventsCh <-chan core.Event, errorsCh <-chan error) ([]core.Event, error) {
	var events []core.Event
	for ev := range eventsCh {
		events = append(events, ev)
	}
	return events, <-errorsCh
}
