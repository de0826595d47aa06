package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StepKind tags a reasoning step. Values double as the labels the model emits.
type StepKind string

const (
	// StepThought is free-form reasoning text.
	StepThought StepKind = "Thought"
	// StepAction is a request to run a named tool.
	StepAction StepKind = "Action"
	// StepObservation carries a tool result back to the model.
	StepObservation StepKind = "Observation"
	// StepAnswer is the final answer text.
	StepAnswer StepKind = "Answer"
)

// Action names the tool the model wants to run and the raw input text for it.
type Action struct {
	Tool  string `json:"tool"`
	Input string `json:"input"`
}

// ExecutionResult is the normalized outcome of a tool execution. The human
// string is for display; the model string is folded back into the prompt.
type ExecutionResult struct {
	ResultForHuman string `json:"resultForHuman"`
	ResultForModel string `json:"resultForModel"`
}

// Step is one element of a reasoning trace. Exactly one payload field is
// meaningful, selected by Kind: Text for Thought and Answer, Action for
// Action and Observation for Observation.
type Step struct {
	Kind        StepKind
	Text        string
	Action      *Action
	Observation *ExecutionResult
}

// NewThoughtStep creates a Thought step.
func NewThoughtStep(text string) Step { return Step{Kind: StepThought, Text: text} }

// NewActionStep creates an Action step.
func NewActionStep(tool, input string) Step {
	return Step{Kind: StepAction, Action: &Action{Tool: tool, Input: input}}
}

// NewObservationStep creates an Observation step from a tool result.
func NewObservationStep(res ExecutionResult) Step {
	return Step{Kind: StepObservation, Observation: &res}
}

// NewAnswerStep creates an Answer step.
func NewAnswerStep(text string) Step { return Step{Kind: StepAnswer, Text: text} }

// Render returns the model-facing serialization of the step, newline
// terminated. Observations render the model result, never the human one.
func (s Step) Render() string {
	switch s.Kind {
	case StepAction:
		a := s.action()
		return fmt.Sprintf("%s: %s\n%s: %s\n", StepAction, a.Tool, LabelInput, a.Input)
	case StepObservation:
		return fmt.Sprintf("%s: %s\n", StepObservation, s.observation().ResultForModel)
	default:
		return fmt.Sprintf("%s: %s\n", s.Kind, s.Text)
	}
}

// String returns the human-facing form used by chat views.
func (s Step) String() string {
	switch s.Kind {
	case StepAction:
		a := s.action()
		return fmt.Sprintf("%s: %s(%q)", StepAction, a.Tool, a.Input)
	case StepObservation:
		return fmt.Sprintf("%s: %s", StepObservation, s.observation().ResultForHuman)
	default:
		return fmt.Sprintf("%s: %s", s.Kind, s.Text)
	}
}

func (s Step) action() Action {
	if s.Action == nil {
		return Action{}
	}
	return *s.Action
}

func (s Step) observation() ExecutionResult {
	if s.Observation == nil {
		return ExecutionResult{}
	}
	return *s.Observation
}

// stepJSON is the persisted shape: {"name": "Action", "value": {...}}.
type stepJSON struct {
	Name  StepKind        `json:"name"`
	Value json.RawMessage `json:"value"`
}

// MarshalJSON implements json.Marshaler.
func (s Step) MarshalJSON() ([]byte, error) {
	var value any
	switch s.Kind {
	case StepAction:
		value = s.action()
	case StepObservation:
		value = s.observation()
	default:
		value = s.Text
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return json.Marshal(stepJSON{Name: s.Kind, Value: raw})
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Step) UnmarshalJSON(data []byte) error {
	var raw stepJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	step := Step{Kind: raw.Name}
	switch raw.Name {
	case StepAction:
		step.Action = &Action{}
		if err := json.Unmarshal(raw.Value, step.Action); err != nil {
			return fmt.Errorf("decode action step: %w", err)
		}
	case StepObservation:
		step.Observation = &ExecutionResult{}
		if err := json.Unmarshal(raw.Value, step.Observation); err != nil {
			return fmt.Errorf("decode observation step: %w", err)
		}
	case StepThought, StepAnswer:
		if err := json.Unmarshal(raw.Value, &step.Text); err != nil {
			return fmt.Errorf("decode %s step: %w", strings.ToLower(string(raw.Name)), err)
		}
	default:
		return fmt.Errorf("unknown step kind %q", raw.Name)
	}
	*s = step
	return nil
}
