package core

// State is the position of the streaming parser within a turn cycle.
type State int

const (
	StateStart State = iota
	StateThink
	StateAction
	StateBeforeExecute
	StateExecute
	StateBeginAnswer
	StateAnswer
	StateEnd
)

// String returns the lower-case state name.
func (s State) String() string {
	switch s {
	case StateStart:
		return "start"
	case StateThink:
		return "think"
	case StateAction:
		return "action"
	case StateBeforeExecute:
		return "before-execute"
	case StateExecute:
		return "execute"
	case StateBeginAnswer:
		return "begin-answer"
	case StateAnswer:
		return "answer"
	case StateEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends the run.
func (s State) Terminal() bool { return s == StateEnd }
