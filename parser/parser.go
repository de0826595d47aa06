package parser

import (
	"fmt"
	"strings"

	"github.com/hupe1980/reactmesh/core"
)

// Parser drives the step state machine of a core.TurnContext. It holds no
// per-stream state of its own, so a single Parser can serve any number of
// independent agents.
type Parser struct{}

// New creates a Parser.
func New() *Parser { return &Parser{} }

// Feed appends delta to the cycle buffer and advances the state machine as
// far as the buffered text allows. pending is false for the last delta of the
// stream. Once an action is scheduled the remaining deltas of the cycle are
// the model's imagined continuation and are ignored.
//
// Feed returns a *core.Error with code MISSING_INPUT when an Action section
// closes without an Input; the cycle is then in StateEnd and its stream has
// been aborted.
func (p *Parser) Feed(tc *core.TurnContext, delta string, pending bool) error {
	if tc.Scheduled() != nil {
		return nil
	}
	tc.Buffer.WriteString(delta)
	if !pending {
		tc.Closed = true
	}

	for {
		var (
			advance bool
			err     error
		)

		switch tc.State {
		case core.StateStart, core.StateExecute:
			advance = p.await(tc, pending)
		case core.StateThink:
			advance = p.think(tc, pending)
		case core.StateAction:
			err = p.action(tc, pending)
		case core.StateBeginAnswer:
			p.beginAnswer(tc, pending)
		case core.StateAnswer:
			tc.EmitContent(delta, pending)
			if !pending {
				tc.Transition(core.StateEnd)
			}
		case core.StateEnd:
			tc.EmitContent(delta, pending)
		default:
			return core.NewUnexpectedStateError(tc.State, fmt.Sprintf("cannot parse delta %q", delta))
		}

		if err != nil || !advance {
			return err
		}
	}
}

// await handles the states that wait for the first section of a response:
// start, and execute when a cycle resumes after an observation.
func (p *Parser) await(tc *core.TurnContext, pending bool) bool {
	buf := tc.Buffer.String()
	if m, ok := next(tc, buf); ok {
		tc.Cursor.Section = m.body
		switch m.label {
		case string(core.StepThought):
			tc.Transition(core.StateThink)
		case string(core.StepAnswer):
			tc.Transition(core.StateBeginAnswer)
		case string(core.StepAction):
			tc.Transition(core.StateAction)
		default:
			// Input or Observation before any section; keep looking.
		}
		return true
	}
	if !pending {
		p.unexpected(tc, buf)
	}
	return false
}

// think waits for the label that closes the current Thought section.
func (p *Parser) think(tc *core.TurnContext, pending bool) bool {
	buf := tc.Buffer.String()
	for {
		m, ok := next(tc, buf)
		if !ok {
			break
		}
		switch m.label {
		case string(core.StepThought):
			p.emitThought(tc, buf[tc.Cursor.Section:m.start])
			tc.Cursor.Section = m.body
		case string(core.StepAction):
			p.emitThought(tc, buf[tc.Cursor.Section:m.start])
			tc.Cursor.Section = m.body
			tc.Transition(core.StateAction)
			return true
		case string(core.StepAnswer):
			p.emitThought(tc, buf[tc.Cursor.Section:m.start])
			tc.Cursor.Section = m.body
			tc.Transition(core.StateBeginAnswer)
			return true
		}
	}
	if !pending {
		p.unexpected(tc, buf)
	}
	return false
}

func (p *Parser) emitThought(tc *core.TurnContext, text string) {
	if text = strings.TrimSpace(text); text != "" {
		tc.EmitStep(core.NewThoughtStep(text))
	}
}

// action waits for the end of an Action section. The section ends at the
// Observation the model hallucinates, at any other label after Input, or when
// the stream closes.
func (p *Parser) action(tc *core.TurnContext, pending bool) error {
	buf := tc.Buffer.String()
	for {
		m, ok := next(tc, buf)
		if !ok {
			break
		}
		if m.label == core.LabelInput {
			if tc.Cursor.Mark == 0 {
				tc.Cursor.Mark = m.start
			}
			continue
		}
		return p.schedule(tc, buf, m.start)
	}
	if !pending {
		return p.schedule(tc, buf, len(buf))
	}
	return nil
}

// schedule extracts the action from buf[Section:end], emits it and asks the
// loop to execute it, aborting the model stream.
func (p *Parser) schedule(tc *core.TurnContext, buf string, end int) error {
	section := buf[tc.Cursor.Section:end]

	toolEnd := end
	if tc.Cursor.Mark > 0 {
		toolEnd = tc.Cursor.Mark
	}
	tool := strings.ToLower(strings.TrimSpace(buf[tc.Cursor.Section:toolEnd]))

	input, ok := Extract(section, core.LabelInput, "")
	if ok {
		input = StripQuotes(input)
	}
	if strings.TrimSpace(input) == "" {
		tc.Transition(core.StateEnd)
		tc.Abort()
		return core.NewMissingInputError(tool)
	}

	tc.EmitStep(core.NewActionStep(tool, input))
	tc.Transition(core.StateBeforeExecute)
	if err := tc.Schedule(core.Action{Tool: tool, Input: input}); err != nil {
		tc.Transition(core.StateEnd)
		tc.Abort()
		return core.NewUnexpectedStateError(core.StateBeforeExecute, err.Error())
	}
	tc.Transition(core.StateExecute)
	tc.Abort()
	return nil
}

// beginAnswer emits the answer text received so far, skipping the blank
// space after the label.
func (p *Parser) beginAnswer(tc *core.TurnContext, pending bool) {
	text := strings.TrimLeft(tc.Buffer.String()[tc.Cursor.Section:], " \t\r\n")
	if text == "" && pending {
		return
	}
	tc.EmitContent(text, pending)
	if pending {
		tc.Transition(core.StateAnswer)
		return
	}
	tc.Transition(core.StateEnd)
}

// unexpected ends the turn with whatever the model produced when the stream
// closed while a marker was still required.
func (p *Parser) unexpected(tc *core.TurnContext, buf string) {
	tc.LogWarn("parser.unexpected_response", "state", tc.State.String(), "buffer.len", len(buf))
	tc.Transition(core.StateEnd)
	tc.EmitContent(buf, false)
}
