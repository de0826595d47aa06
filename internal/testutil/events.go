package testutil

import (
	"strings"

	"github.com/hupe1980/reactmesh/core"
)

// Events is a collected event stream with convenience filters.
type Events []core.Event

// Collect drains ch until it is closed.
func Collect(ch <-chan core.Event) Events {
	var out Events
	for ev := range ch {
		out = append(out, ev)
	}
	return out
}

// Steps returns the steps carried by step events, in order.
func (e Events) Steps() []core.Step {
	var steps []core.Step
	for _, ev := range e {
		if ev.Kind == core.EventStep && ev.Step != nil {
			steps = append(steps, *ev.Step)
		}
	}
	return steps
}

// Kinds returns the step kinds carried by step events, in order.
func (e Events) Kinds() []core.StepKind {
	var kinds []core.StepKind
	for _, s := range e.Steps() {
		kinds = append(kinds, s.Kind)
	}
	return kinds
}

// Content concatenates the content of all content events.
func (e Events) Content() string {
	var sb strings.Builder
	for _, ev := range e {
		if ev.Kind == core.EventContent {
			sb.WriteString(ev.Content)
		}
	}
	return sb.String()
}
