package model

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockModel is a lightweight in-memory Model useful for tests & examples.
// Each Generate call consumes the next scripted completion and streams it in
// chunks of ChunkSize bytes.
type MockModel struct {
	info      Info
	chunkSize int
	delay     time.Duration

	mu       sync.Mutex
	scripts  []mockScript
	fallback *mockScript
	requests []Request
}

type mockScript struct {
	text string
	err  error
	// hang keeps the stream open after the text until ctx is done.
	hang bool
}

// NewMockModel constructs a MockModel streaming chunks of chunkSize bytes.
// A chunkSize below one streams the whole completion in one chunk.
func NewMockModel(name string, chunkSize int) *MockModel {
	return &MockModel{
		info:      Info{Name: name, Provider: "mock"},
		chunkSize: chunkSize,
	}
}

// WithDelay sets a pause between chunks.
func (m *MockModel) WithDelay(d time.Duration) *MockModel {
	m.delay = d
	return m
}

// WithFallback sets the completion streamed once the queue is empty.
func (m *MockModel) WithFallback(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallback = &mockScript{text: text}
	return m
}

// AddResponse queues a completion for the next Generate call.
func (m *MockModel) AddResponse(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, mockScript{text: text})
	return m
}

// AddHangingResponse queues a completion whose stream stays open after the
// text has been sent, until the caller cancels.
func (m *MockModel) AddHangingResponse(text string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, mockScript{text: text, hang: true})
	return m
}

// AddError queues a transport failure reported after text has been streamed.
func (m *MockModel) AddError(text string, err error) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripts = append(m.scripts, mockScript{text: text, err: err})
	return m
}

// Requests returns the requests received so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

// Remaining returns the number of unconsumed scripted completions.
func (m *MockModel) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.scripts)
}

// Generate implements Model.
func (m *MockModel) Generate(ctx context.Context, req Request) (<-chan Response, <-chan error) {
	respCh := make(chan Response)
	errCh := make(chan error, 1)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	var (
		script mockScript
		ok     bool
	)
	switch {
	case len(m.scripts) > 0:
		script, m.scripts, ok = m.scripts[0], m.scripts[1:], true
	case m.fallback != nil:
		script, ok = *m.fallback, true
	}
	m.mu.Unlock()

	go func() {
		defer close(respCh)
		defer close(errCh)

		if !ok {
			errCh <- fmt.Errorf("mock model %s: no scripted response left", m.info.Name)
			return
		}

		for _, chunk := range m.chunks(script.text) {
			if m.delay > 0 {
				select {
				case <-time.After(m.delay):
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
			if !Send(ctx, respCh, Response{Partial: true, Content: chunk}) {
				errCh <- ctx.Err()
				return
			}
		}

		if script.hang {
			<-ctx.Done()
			errCh <- ctx.Err()
			return
		}

		if script.err != nil {
			errCh <- script.err
			return
		}

		if !Send(ctx, respCh, Response{Partial: false, FinishReason: "stop"}) {
			errCh <- ctx.Err()
		}
	}()

	return respCh, errCh
}

func (m *MockModel) chunks(text string) []string {
	if m.chunkSize < 1 || len(text) <= m.chunkSize {
		if text == "" {
			return nil
		}
		return []string{text}
	}
	var out []string
	for i := 0; i < len(text); i += m.chunkSize {
		out = append(out, text[i:min(i+m.chunkSize, len(text))])
	}
	return out
}

// Info implements Model interface.
func (m *MockModel) Info() Info { return m.info }
