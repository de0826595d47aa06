package session

import (
	"fmt"

	"github.com/hupe1980/reactmesh/core"
)

// Reconcile returns history with turn folded in. An assistant turn that
// follows an assistant turn is merged into it, so a whole reasoning trace is
// always represented by a single assistant entry; anything else is appended.
// The input slice is not modified.
func Reconcile(history []core.Turn, turn core.Turn) []core.Turn {
	out := make([]core.Turn, len(history), len(history)+1)
	copy(out, history)

	if n := len(out); n > 0 && turn.Role == core.RoleAssistant && out[n-1].Role == core.RoleAssistant {
		out[n-1] = out[n-1].Merge(turn)
		return out
	}

	return append(out, turn.Clone())
}

// Commit reconciles turn into the stored history of a session.
func Commit(store core.HistoryStore, sessionID string, turn core.Turn) error {
	history, err := store.Get(sessionID)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	if n := len(history); n == 0 || turn.Role != core.RoleAssistant || history[n-1].Role != core.RoleAssistant {
		if err := store.Append(sessionID, turn); err != nil {
			return fmt.Errorf("append turn: %w", err)
		}
		return nil
	}

	if err := store.Replace(sessionID, Reconcile(history, turn)); err != nil {
		return fmt.Errorf("replace history: %w", err)
	}
	return nil
}

// Rewind drops trailing assistant turns and returns the history up to and
// including the last user turn. ok is false when there is no user turn to
// regenerate from.
func Rewind(history []core.Turn) ([]core.Turn, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		switch history[i].Role {
		case core.RoleUser:
			return history[:i+1], true
		case core.RoleAssistant:
			continue
		default:
			return nil, false
		}
	}
	return nil, false
}
