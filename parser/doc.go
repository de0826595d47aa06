// Package parser implements the streaming step parser: a state machine that
// consumes incremental model output, recognises the labeled sections of the
// reasoning protocol (Thought, Action, Input, Observation, Answer) and emits
// typed steps through a core.TurnContext as soon as each section is complete.
//
// The parser never rewinds. Marker searches resume from the cursor stored in
// the TurnContext, so a stream is scanned in time linear in its length.
package parser
