// Package agent implements the turn-cycle loop of a reasoning-and-acting
// agent.
//
// A run repeats turn-cycles until the model produces an answer:
//
//  1. A fresh core.TurnContext is created with its own buffer, state and
//     cancellation handle.
//  2. The outbound conversation is the system prompt, the history and the
//     trace of the current turn so far, merged into one assistant message.
//  3. Every delta of the model stream is fed to the parser. Once an Action is
//     complete the parser aborts the stream with core.ErrExpectedAbort; that
//     cancellation is recognised through core.Outcome and never surfaced.
//  4. The scheduled action is executed by the tool dispatcher and its
//     Observation joins the trace for the next cycle.
//
// The run ends when the parser reaches core.StateEnd. Missing inputs, unknown
// tools, tool failures, transport failures and streams that end without an
// action or an answer stop the run with an error.
package agent
