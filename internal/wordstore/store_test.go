package wordstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"merlinsolver/internal/letters"
)

func TestVectorSerialization(t *testing.T) {
	vec := []float32{0.1, -2.5, 0, 42.75}
	assert.Equal(t, vec, deserializeVector(serializeVector(vec)))

	assert.Empty(t, serializeVector(nil))
	assert.Empty(t, deserializeVector(nil))
}

func TestOpenLoadsLexicon(t *testing.T) {
	s, err := Open("", nil, nil)
	require.NoError(t, err)
	defer s.Close()

	var count int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM words").Scan(&count))
	assert.Greater(t, count, 500, "bundled lexicon should load")

	var rank int
	require.NoError(t, s.db.QueryRow("SELECT rank FROM words WHERE word = 'apple'").Scan(&rank))
	assert.Positive(t, rank)
}

func TestSuggestByPattern(t *testing.T) {
	s, err := Open("", nil, nil)
	require.NoError(t, err)
	defer s.Close()

	t.Run("best letter agreement first", func(t *testing.T) {
		p := letters.Pattern{Length: 5, Known: map[int]rune{1: 'a', 2: 'p', 5: 'e'}}
		words, err := s.Suggest(context.Background(), p, "")
		require.NoError(t, err)
		require.NotEmpty(t, words)
		assert.Equal(t, "apple", words[0])
	})

	t.Run("length filters candidates", func(t *testing.T) {
		p := letters.Pattern{Length: 3}
		words, err := s.Suggest(context.Background(), p, "")
		require.NoError(t, err)
		require.NotEmpty(t, words)
		assert.LessOrEqual(t, len(words), suggestLimit)
		for _, w := range words {
			assert.Len(t, w, 3)
		}
	})

	t.Run("no length is an error", func(t *testing.T) {
		_, err := s.Suggest(context.Background(), letters.Pattern{}, "")
		assert.Error(t, err)
	})
}

// fakeEngine gives "dog" a distinct direction so clue similarity is
// deterministic.
type fakeEngine struct{}

func (fakeEngine) embedOne(text string) []float32 {
	if text == "dog" || text == "a loyal barking pet" {
		return []float32{1, 0, 0, 0}
	}
	return []float32{0, 1, 0, 0}
}

func (e fakeEngine) Embed(_ context.Context, text string) ([]float32, error) {
	return e.embedOne(text), nil
}

func (e fakeEngine) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		out[i] = e.embedOne(txt)
	}
	return out, nil
}

func (fakeEngine) Dimensions() int { return 4 }
func (fakeEngine) Name() string    { return "fake" }

func TestSuggestWithClueSimilarity(t *testing.T) {
	s, err := Open("", fakeEngine{}, nil)
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.Index(ctx))

	var indexed int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM vectors").Scan(&indexed))
	assert.Positive(t, indexed)

	// Re-indexing embeds nothing new.
	require.NoError(t, s.Index(ctx))

	// With no fixed letters every 3-letter word ties on agreement, so the
	// clue similarity decides the winner.
	p := letters.Pattern{Length: 3}
	words, err := s.Suggest(ctx, p, "a loyal barking pet")
	require.NoError(t, err)
	require.NotEmpty(t, words)
	assert.Equal(t, "dog", words[0])
}
