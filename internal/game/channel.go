// Package game is the oracle channel: the send-prompt/receive-reply boundary
// between the solver core and the HackMerlin game. Two implementations
// exist, a rod-driven browser session and a manual copy/paste mode; the
// solver core only sees the Channel interface and treats its replies as
// opaque text.
package game

import (
	"context"
	"errors"
)

// ErrTimeout marks a channel round-trip that exceeded its deadline. The
// session controller treats it like an unparseable reply, not a fatal error.
var ErrTimeout = errors.New("oracle channel timed out")

// Channel is a blocking, turn-based line to the oracle. One outstanding
// question at a time; there is no concurrent use.
type Channel interface {
	// Ask sends a clue question and returns the oracle's free-text reply.
	Ask(ctx context.Context, question string) (string, error)

	// SubmitGuess submits the word for the current level and returns the
	// oracle's verdict text.
	SubmitGuess(ctx context.Context, word string) (string, error)

	// Close releases the channel's resources.
	Close() error
}
