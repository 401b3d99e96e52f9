package reconstruct

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlinsolver/internal/letters"
)

type fakeSim struct {
	words []string
	err   error
	calls int
}

func (f *fakeSim) Suggest(_ context.Context, _ letters.Pattern, _ string) ([]string, error) {
	f.calls++
	return f.words, f.err
}

type fakeGen struct {
	word  string
	err   error
	calls int
}

func (f *fakeGen) Infer(_ context.Context, _ letters.Pattern, _ string) (string, error) {
	f.calls++
	return f.word, f.err
}

// appleState is missing positions 3 and 4 of "apple".
func appleState(t *testing.T) *letters.State {
	t.Helper()
	st := letters.NewState()
	st.Merge(letters.LengthFact{Count: 5}, letters.SourceAnswer)
	st.Merge(letters.SubstringFact{Position: 1, Text: "ap"}, letters.SourceBatch)
	st.Merge(letters.LetterFact{Position: 5, Char: 'e'}, letters.SourceAnswer)
	require.Equal(t, "ap??e", st.Pattern().String())
	return st
}

func completeState(t *testing.T, word string) *letters.State {
	t.Helper()
	st := letters.NewState()
	st.Merge(letters.LengthFact{Count: len(word)}, letters.SourceAnswer)
	st.Merge(letters.SubstringFact{Position: 1, Text: word}, letters.SourceAnswer)
	return st
}

func TestParseTier(t *testing.T) {
	for name, want := range map[string]Tier{
		"low": TierLow, "": TierLow, " Medium ": TierMedium, "HIGH": TierHigh,
	} {
		got, err := ParseTier(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseTier("extreme")
	assert.Error(t, err)
}

func TestLowTier(t *testing.T) {
	rec := New(TierLow, nil, nil, nil)

	t.Run("complete state concatenates exactly", func(t *testing.T) {
		res, err := rec.Reconstruct(context.Background(), completeState(t, "cat"), "")
		require.NoError(t, err)
		assert.Equal(t, Result{Word: "cat", Confidence: Exact}, res)
	})

	t.Run("incomplete state refuses to fabricate", func(t *testing.T) {
		_, err := rec.Reconstruct(context.Background(), appleState(t), "")
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("no length means no pattern", func(t *testing.T) {
		_, err := rec.Reconstruct(context.Background(), letters.NewState(), "")
		assert.ErrorIs(t, err, ErrNoPattern)
	})
}

func TestMediumTier(t *testing.T) {
	t.Run("first pattern-matching candidate wins", func(t *testing.T) {
		sim := &fakeSim{words: []string{"angle", "apply", "apple"}}
		rec := New(TierMedium, sim, nil, nil)
		res, err := rec.Reconstruct(context.Background(), appleState(t), "")
		require.NoError(t, err)
		// "angle" fails at position 2, "apply" at position 5.
		assert.Equal(t, Result{Word: "apple", Confidence: Inferred}, res)
	})

	t.Run("complete state skips the oracle", func(t *testing.T) {
		sim := &fakeSim{words: []string{"wrong"}}
		rec := New(TierMedium, sim, nil, nil)
		res, err := rec.Reconstruct(context.Background(), completeState(t, "cat"), "")
		require.NoError(t, err)
		assert.Equal(t, Result{Word: "cat", Confidence: Exact}, res)
		assert.Zero(t, sim.calls)
	})

	t.Run("no match falls through to low", func(t *testing.T) {
		sim := &fakeSim{words: []string{"zebra", "ghost"}}
		rec := New(TierMedium, sim, nil, nil)
		_, err := rec.Reconstruct(context.Background(), appleState(t), "")
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("oracle failure falls through to low", func(t *testing.T) {
		sim := &fakeSim{err: errors.New("store offline")}
		rec := New(TierMedium, sim, nil, nil)
		_, err := rec.Reconstruct(context.Background(), appleState(t), "")
		assert.ErrorIs(t, err, ErrIncomplete)
	})

	t.Run("nil oracle behaves as low", func(t *testing.T) {
		rec := New(TierMedium, nil, nil, nil)
		_, err := rec.Reconstruct(context.Background(), appleState(t), "")
		assert.ErrorIs(t, err, ErrIncomplete)
	})
}

func TestHighTier(t *testing.T) {
	t.Run("pattern-matching inference wins", func(t *testing.T) {
		gen := &fakeGen{word: "apple"}
		sim := &fakeSim{words: []string{"apply"}}
		rec := New(TierHigh, sim, gen, nil)
		res, err := rec.Reconstruct(context.Background(), appleState(t), "it is a fruit")
		require.NoError(t, err)
		assert.Equal(t, Result{Word: "apple", Confidence: Inferred}, res)
		assert.Zero(t, sim.calls, "similarity tier must not run when inference matches")
	})

	t.Run("non-matching inference delegates to medium", func(t *testing.T) {
		gen := &fakeGen{word: "zebra"}
		sim := &fakeSim{words: []string{"apple"}}
		rec := New(TierHigh, sim, gen, nil)
		res, err := rec.Reconstruct(context.Background(), appleState(t), "")
		require.NoError(t, err)
		assert.Equal(t, Result{Word: "apple", Confidence: Inferred}, res)
	})

	t.Run("oracle error delegates to medium", func(t *testing.T) {
		gen := &fakeGen{err: errors.New("quota exceeded")}
		sim := &fakeSim{words: []string{"apple"}}
		rec := New(TierHigh, sim, gen, nil)
		res, err := rec.Reconstruct(context.Background(), appleState(t), "")
		require.NoError(t, err)
		assert.Equal(t, "apple", res.Word)
	})

	// A high reconstructor whose inference never matches must behave exactly
	// like the medium reconstructor over the same oracles.
	t.Run("degenerate high equals medium", func(t *testing.T) {
		st := appleState(t)
		gen := &fakeGen{word: "toolongword"}
		high := New(TierHigh, &fakeSim{words: []string{"apply", "apple"}}, gen, nil)
		medium := New(TierMedium, &fakeSim{words: []string{"apply", "apple"}}, nil, nil)

		hres, herr := high.Reconstruct(context.Background(), st, "")
		mres, merr := medium.Reconstruct(context.Background(), st, "")
		require.NoError(t, herr)
		require.NoError(t, merr)
		assert.Equal(t, mres, hres)
	})
}
