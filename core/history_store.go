package core

// HistoryStore persists the conversation history of a session as an ordered
// list of turns. Implementations must be safe for concurrent access and must
// return copies so callers cannot mutate stored turns.
type HistoryStore interface {
	// Get returns the turns of a session, or an empty slice for unknown ids.
	Get(sessionID string) ([]Turn, error)
	// Append adds a turn to the end of the session history.
	Append(sessionID string, turn Turn) error
	// Replace overwrites the whole session history.
	Replace(sessionID string, turns []Turn) error
}
