// Package core provides the foundational domain types shared by the parser,
// the tool dispatcher and the agent loop:
//
//   - Steps (Thought, Action, Observation, Answer) and their wire format
//   - Turns (conversation history entries) and their rendering
//   - State, the position of the streaming parser within a cycle
//   - TurnContext, the per-cycle buffer, state and cancellation handle
//   - Outcome, the classification of how a model stream ended
//   - Error, the code-tagged error taxonomy surfaced to callers
//   - HistoryStore, the pluggable persistence contract
//
// Implementation concerns (transports, concrete tools, storage backends) live
// in their own packages and depend on core, never the other way round.
package core
