// Package reconstruct produces the final word guess from a (possibly
// incomplete) letter state. Three interchangeable strategies are selected by
// the configured resource tier and chained by strict delegation: the high
// tier falls back to medium, medium to low, never the other way around.
package reconstruct

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"merlinsolver/internal/letters"
)

var (
	// ErrIncomplete means the state has unknown positions and the active
	// tier refuses to fabricate letters.
	ErrIncomplete = errors.New("cannot reconstruct: positions still unknown")
	// ErrNoPattern means the length is unknown, so no oracle can be queried.
	ErrNoPattern = errors.New("cannot reconstruct: length unknown")
)

// Confidence distinguishes a word read straight off the state from one with
// inferred positions.
type Confidence int

const (
	// Exact means every letter was directly confirmed before reconstruction.
	Exact Confidence = iota
	// Inferred means at least one position was filled by a tier strategy.
	Inferred
)

func (c Confidence) String() string {
	if c == Exact {
		return "exact"
	}
	return "inferred"
}

// Result is a reconstructed word with its confidence.
type Result struct {
	Word       string
	Confidence Confidence
}

// SimilarityOracle proposes candidate words for a pattern, best first.
// The medium tier consumes it; clueText may refine the ranking and may be
// empty.
type SimilarityOracle interface {
	Suggest(ctx context.Context, p letters.Pattern, clueText string) ([]string, error)
}

// GenerativeOracle infers a full word from a pattern and gathered clue text.
// The high tier consumes it.
type GenerativeOracle interface {
	Infer(ctx context.Context, p letters.Pattern, clueText string) (string, error)
}

// Reconstructor turns a letter state into a word guess.
type Reconstructor interface {
	Reconstruct(ctx context.Context, st *letters.State, clueText string) (Result, error)
}

// Tier is the configured strategy strength.
type Tier int

const (
	TierLow Tier = iota
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "unknown"
	}
}

// ParseTier parses a configured tier name.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	default:
		return TierLow, fmt.Errorf("unknown resource tier %q (use low, medium or high)", s)
	}
}

// New builds the reconstructor chain for a tier. sim and gen may be nil when
// the tier does not need them; a nil oracle simply delegates down the chain.
func New(tier Tier, sim SimilarityOracle, gen GenerativeOracle, log *zap.Logger) Reconstructor {
	if log == nil {
		log = zap.NewNop()
	}
	low := concatenator{}
	switch tier {
	case TierHigh:
		return inferencer{gen: gen, next: searcher{sim: sim, next: low, log: log}, log: log}
	case TierMedium:
		return searcher{sim: sim, next: low, log: log}
	default:
		return low
	}
}

// =============================================================================
// LOW TIER: CONCATENATION
// =============================================================================

// concatenator only succeeds when the state is complete. It never guesses:
// an incomplete state is a failure that tells the controller to keep
// extracting rather than submit a fabricated word.
type concatenator struct{}

func (concatenator) Reconstruct(_ context.Context, st *letters.State, _ string) (Result, error) {
	if word, err := st.AsWord(); err == nil {
		return Result{Word: word, Confidence: Exact}, nil
	}
	if st.Length() == 0 {
		return Result{}, ErrNoPattern
	}
	return Result{}, ErrIncomplete
}

// =============================================================================
// MEDIUM TIER: SIMILARITY SEARCH
// =============================================================================

type searcher struct {
	sim  SimilarityOracle
	next Reconstructor
	log  *zap.Logger
}

func (s searcher) Reconstruct(ctx context.Context, st *letters.State, clueText string) (Result, error) {
	if st.IsComplete() || s.sim == nil || st.Length() == 0 {
		return s.next.Reconstruct(ctx, st, clueText)
	}
	pattern := st.Pattern()
	candidates, err := s.sim.Suggest(ctx, pattern, clueText)
	if err != nil {
		s.log.Warn("similarity oracle failed, falling back",
			zap.String("pattern", pattern.String()), zap.Error(err))
		return s.next.Reconstruct(ctx, st, clueText)
	}
	for _, cand := range candidates {
		if pattern.Matches(cand) {
			return Result{Word: strings.ToLower(strings.TrimSpace(cand)), Confidence: Inferred}, nil
		}
	}
	s.log.Debug("no candidate matched pattern",
		zap.String("pattern", pattern.String()), zap.Int("candidates", len(candidates)))
	return s.next.Reconstruct(ctx, st, clueText)
}

// =============================================================================
// HIGH TIER: GENERATIVE INFERENCE
// =============================================================================

type inferencer struct {
	gen  GenerativeOracle
	next Reconstructor
	log  *zap.Logger
}

func (g inferencer) Reconstruct(ctx context.Context, st *letters.State, clueText string) (Result, error) {
	if st.IsComplete() || g.gen == nil || st.Length() == 0 {
		return g.next.Reconstruct(ctx, st, clueText)
	}
	pattern := st.Pattern()
	word, err := g.gen.Infer(ctx, pattern, clueText)
	if err != nil {
		g.log.Warn("generative oracle failed, falling back",
			zap.String("pattern", pattern.String()), zap.Error(err))
		return g.next.Reconstruct(ctx, st, clueText)
	}
	if pattern.Matches(word) {
		return Result{Word: strings.ToLower(strings.TrimSpace(word)), Confidence: Inferred}, nil
	}
	g.log.Debug("inferred word rejected by pattern",
		zap.String("pattern", pattern.String()), zap.String("word", word))
	return g.next.Reconstruct(ctx, st, clueText)
}
