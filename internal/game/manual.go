package game

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// Manual is the copy/paste channel: it prints each prompt for a human to
// relay to the game and reads Merlin's reply back from the input stream.
// Useful when the site layout changes faster than the browser driver.
type Manual struct {
	in  *bufio.Scanner
	out io.Writer
}

// NewManual creates a manual channel over the given streams.
func NewManual(in io.Reader, out io.Writer) *Manual {
	return &Manual{in: bufio.NewScanner(in), out: out}
}

// Ask prints the question and reads the pasted reply. The read blocks until
// the human responds; cancellation is honored between prompts only.
func (m *Manual) Ask(ctx context.Context, question string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(m.out, "\nASK MERLIN:\n  %s\n", question)
	fmt.Fprint(m.out, "Paste Merlin's reply: ")
	return m.readLine()
}

// SubmitGuess prints the word to submit and reads Merlin's verdict.
func (m *Manual) SubmitGuess(ctx context.Context, word string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprintf(m.out, "\nSUBMIT PASSWORD: %s\n", strings.ToUpper(word))
	fmt.Fprint(m.out, "Paste Merlin's reaction (or 'correct' if the level advanced): ")
	return m.readLine()
}

// Close is a no-op; the streams belong to the caller.
func (m *Manual) Close() error { return nil }

func (m *Manual) readLine() (string, error) {
	if !m.in.Scan() {
		if err := m.in.Err(); err != nil {
			return "", fmt.Errorf("failed to read reply: %w", err)
		}
		return "", io.EOF
	}
	return strings.TrimSpace(m.in.Text()), nil
}
