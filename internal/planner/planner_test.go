package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlinsolver/internal/letters"
)

func TestNextPriority(t *testing.T) {
	st := letters.NewState()
	asked := make(map[string]bool)

	q, ok := Next(st, asked)
	require.True(t, ok)
	assert.Equal(t, KindLength, q.Kind)
	assert.Equal(t, "length", q.Key())
	asked[q.Key()] = true

	// No letters can be positioned until the length lands.
	_, ok = Next(st, asked)
	assert.False(t, ok)

	st.Merge(letters.LengthFact{Count: 5}, letters.SourceAnswer)
	q, ok = Next(st, asked)
	require.True(t, ok)
	assert.Equal(t, KindPrefix, q.Kind)
	assert.Equal(t, 3, q.Count)
	assert.Equal(t, "prefix:3", q.Key())
	assert.Contains(t, q.Text, "first three letters")
	asked[q.Key()] = true

	q, ok = Next(st, asked)
	require.True(t, ok)
	assert.Equal(t, KindSuffix, q.Kind)
	assert.Equal(t, 3, q.Count)
	asked[q.Key()] = true

	q, ok = Next(st, asked)
	require.True(t, ok)
	assert.Equal(t, KindLetterAt, q.Kind)
	assert.Equal(t, 1, q.Pos)
	assert.Contains(t, q.Text, "1st letter")
}

func TestNextAfterPrefix(t *testing.T) {
	st := letters.NewState()
	st.Merge(letters.LengthFact{Count: 5}, letters.SourceAnswer)
	st.Merge(letters.SubstringFact{Position: 1, Text: "app"}, letters.SourceBatch)
	asked := map[string]bool{"length": true}

	// Only two unknowns remain, so the suffix batch shrinks to cover them.
	q, ok := Next(st, asked)
	require.True(t, ok)
	assert.Equal(t, KindSuffix, q.Kind)
	assert.Equal(t, 2, q.Count)
	assert.Equal(t, "suffix:2", q.Key())
}

func TestNextSkipsSingleLetterBatch(t *testing.T) {
	st := letters.NewState()
	st.Merge(letters.LengthFact{Count: 4}, letters.SourceAnswer)
	st.Merge(letters.SubstringFact{Position: 1, Text: "wor"}, letters.SourceBatch)
	asked := map[string]bool{"length": true}

	// A one-letter suffix batch is never worth it; go straight to the position.
	q, ok := Next(st, asked)
	require.True(t, ok)
	assert.Equal(t, KindLetterAt, q.Kind)
	assert.Equal(t, 4, q.Pos)
}

func TestNextOneLetterWord(t *testing.T) {
	st := letters.NewState()
	st.Merge(letters.LengthFact{Count: 1}, letters.SourceAnswer)
	asked := map[string]bool{"length": true}

	q, ok := Next(st, asked)
	require.True(t, ok)
	assert.Equal(t, KindLetterAt, q.Kind)
	assert.Equal(t, 1, q.Pos)
}

func TestNextDoneStates(t *testing.T) {
	t.Run("complete state has no question", func(t *testing.T) {
		st := letters.NewState()
		st.Merge(letters.LengthFact{Count: 2}, letters.SourceAnswer)
		st.Merge(letters.SubstringFact{Position: 1, Text: "ox"}, letters.SourceBatch)
		_, ok := Next(st, make(map[string]bool))
		assert.False(t, ok)
	})

	t.Run("every position spent", func(t *testing.T) {
		st := letters.NewState()
		st.Merge(letters.LengthFact{Count: 3}, letters.SourceAnswer)
		st.Merge(letters.LetterFact{Position: 1, Char: 'c'}, letters.SourceAnswer)
		st.Merge(letters.LetterFact{Position: 3, Char: 't'}, letters.SourceAnswer)
		asked := map[string]bool{"length": true, "letter:2": true}
		_, ok := Next(st, asked)
		assert.False(t, ok)
	})
}

func TestOrdinal(t *testing.T) {
	tests := map[int]string{
		1: "1st", 2: "2nd", 3: "3rd", 4: "4th",
		11: "11th", 12: "12th", 13: "13th",
		21: "21st", 22: "22nd", 23: "23rd",
	}
	for n, want := range tests {
		assert.Equal(t, want, Ordinal(n))
	}
}
