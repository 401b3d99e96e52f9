// Package session drives levels of the guessing game to completion: it runs
// the ask/parse/merge loop against the oracle channel, invokes the
// reconstructor, submits the guess, and handles wrong-guess retries.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"merlinsolver/internal/game"
	"merlinsolver/internal/letters"
	"merlinsolver/internal/parser"
	"merlinsolver/internal/planner"
	"merlinsolver/internal/reconstruct"
)

// ErrRetriesExhausted is returned when a level's guess retries are used up.
// It is fatal for the level only; the run driver decides whether to move on.
var ErrRetriesExhausted = errors.New("guess retries exhausted")

// Config holds the per-level limits, read once at session start.
type Config struct {
	MaxQuestions int // oracle questions allowed per level
	MaxRetries   int // guess submissions allowed per level
	MaxLevels    int // levels attempted per run
}

// DefaultConfig mirrors the game's practical limits.
func DefaultConfig() Config {
	return Config{
		MaxQuestions: 10,
		MaxRetries:   10,
		MaxLevels:    6,
	}
}

// LevelResult summarizes one level attempt.
type LevelResult struct {
	Level      int
	Word       string
	Solved     bool
	Questions  int
	Retries    int
	Confidence reconstruct.Confidence
}

// Controller solves one level at a time. The letter state and the asked-set
// live only for the duration of one SolveLevel call; nothing persists across
// levels because every level has an independent secret word.
type Controller struct {
	ch  game.Channel
	rec reconstruct.Reconstructor
	cfg Config
	log *zap.Logger
}

// NewController wires a controller to its channel and reconstructor.
func NewController(ch game.Channel, rec reconstruct.Reconstructor, cfg Config, log *zap.Logger) *Controller {
	if log == nil {
		log = zap.NewNop()
	}
	return &Controller{ch: ch, rec: rec, cfg: cfg, log: log}
}

// SolveLevel runs the level state machine: gather facts until the state is
// complete or the question budget runs out, reconstruct, submit, and on a
// rejected guess forget the suspect positions and try again while retries
// remain.
func (c *Controller) SolveLevel(ctx context.Context, level int) (LevelResult, error) {
	st := letters.NewState()
	asked := make(map[string]bool)
	var clues []string
	res := LevelResult{Level: level}

	c.log.Info("starting level", zap.Int("level", level))

	for attempt := 0; attempt < c.cfg.MaxRetries; attempt++ {
		res.Retries = attempt
		if err := c.gather(ctx, st, asked, &clues, &res.Questions); err != nil {
			return res, err
		}

		word, conf := c.buildGuess(ctx, st, clues)
		if word == "" {
			// Not even a length to build on; nothing sane to submit.
			c.log.Warn("nothing to guess with, gathering again",
				zap.Int("level", level), zap.Int("attempt", attempt+1))
			c.reopenQuestions(asked)
			continue
		}

		c.log.Info("submitting guess",
			zap.Int("level", level),
			zap.String("word", word),
			zap.String("confidence", conf.String()))
		reply, err := c.ch.SubmitGuess(ctx, word)
		if err != nil {
			if errors.Is(err, game.ErrTimeout) {
				c.log.Warn("guess verdict timed out, treating as rejection", zap.Error(err))
				continue
			}
			return res, fmt.Errorf("guess submission failed: %w", err)
		}

		if parser.ParseGuessReply(reply) == parser.GuessAdvance {
			res.Word = word
			res.Solved = true
			res.Confidence = conf
			c.log.Info("level solved",
				zap.Int("level", level),
				zap.String("word", word),
				zap.Int("questions", res.Questions))
			return res, nil
		}

		c.log.Warn("guess rejected",
			zap.Int("level", level),
			zap.String("word", word),
			zap.String("verdict", reply))
		c.markSuspects(st)
		c.reopenQuestions(asked)
	}

	res.Retries = c.cfg.MaxRetries
	return res, fmt.Errorf("level %d: %w", level, ErrRetriesExhausted)
}

// gather asks planner questions until the state is complete, the budget is
// spent, or the planner has nothing left to propose. Conflicting facts are
// logged and dropped; the first-confirmed letter always wins.
func (c *Controller) gather(ctx context.Context, st *letters.State, asked map[string]bool, clues *[]string, questions *int) error {
	for *questions < c.cfg.MaxQuestions && !st.IsComplete() {
		// Cancellation is cooperative: checked between round-trips, never
		// mid-call.
		if err := ctx.Err(); err != nil {
			return err
		}

		q, ok := planner.Next(st, asked)
		if !ok {
			return nil
		}
		asked[q.Key()] = true

		reply, err := c.ch.Ask(ctx, q.Text)
		*questions++
		if err != nil {
			if errors.Is(err, game.ErrTimeout) {
				c.log.Warn("question timed out",
					zap.String("question", q.Key()), zap.Error(err))
				delete(asked, q.Key())
				continue
			}
			return fmt.Errorf("oracle channel failed: %w", err)
		}

		facts, perr := parser.Parse(q, reply)
		if perr != nil {
			c.log.Warn("unparseable reply",
				zap.String("question", q.Key()), zap.String("reply", reply))
			delete(asked, q.Key())
			continue
		}
		if len(facts) == 0 {
			c.log.Debug("reply yielded no facts",
				zap.String("question", q.Key()), zap.String("reply", reply))
			delete(asked, q.Key())
			continue
		}

		*clues = append(*clues, reply)
		src := letters.SourceBatch
		if q.Kind == planner.KindLetterAt {
			src = letters.SourceAnswer
		}
		for _, f := range facts {
			if st.Merge(f, src) == letters.Conflict {
				c.log.Warn("conflicting fact rejected, keeping first-confirmed value",
					zap.String("question", q.Key()),
					zap.Any("fact", f),
					zap.String("pattern", st.Pattern().String()))
			}
		}
		c.log.Debug("state after merge",
			zap.String("pattern", st.Pattern().String()),
			zap.Ints("missing", st.MissingPositions()))
	}
	return nil
}

// buildGuess reconstructs a word, degrading to the best-known partial with a
// common-letter fill when no tier produced a match. The fill is a last
// resort: low tier deliberately fails instead of fabricating, but an
// unsubmitted level is worth less than a long-shot guess.
func (c *Controller) buildGuess(ctx context.Context, st *letters.State, clues []string) (string, reconstruct.Confidence) {
	res, err := c.rec.Reconstruct(ctx, st, strings.Join(clues, "\n"))
	if err == nil {
		return res.Word, res.Confidence
	}
	c.log.Warn("reconstruction failed, falling back to common-letter fill",
		zap.String("pattern", st.Pattern().String()), zap.Error(err))
	return fillCommon(st.Pattern()), reconstruct.Inferred
}

// commonFill orders fill letters by English frequency, vowels first, the
// same heuristic the game's short words respond best to.
var commonFill = []rune{'a', 'e', 'i', 'o', 'u', 'r', 's', 't', 'n', 'l'}

func fillCommon(p letters.Pattern) string {
	if p.Length == 0 {
		return ""
	}
	var b strings.Builder
	for i := 1; i <= p.Length; i++ {
		if ch, ok := p.Known[i]; ok {
			b.WriteRune(ch)
			continue
		}
		b.WriteRune(commonFill[(i-1)%len(commonFill)])
	}
	return b.String()
}

// markSuspects discards the positions most likely to be wrong after a
// rejected guess. Directly-answered letters are kept; letters that only came
// from batch prefix/suffix answers are the usual culprits and get re-asked.
// Inferred positions were never in the state, so the planner re-targets them
// without help.
func (c *Controller) markSuspects(st *letters.State) {
	if !st.IsComplete() {
		return
	}
	suspects := st.BatchPositions()
	if len(suspects) == 0 {
		return
	}
	c.log.Info("forgetting batch-derived positions for retry", zap.Ints("positions", suspects))
	for _, pos := range suspects {
		st.Forget(pos)
	}
}

// reopenQuestions clears the asked-set for a fresh retry sub-round, keeping
// the length question: its answer merged cleanly and re-asking it cannot
// change anything (a different answer would be a rejected conflict).
func (c *Controller) reopenQuestions(asked map[string]bool) {
	for k := range asked {
		if k != "length" {
			delete(asked, k)
		}
	}
}
