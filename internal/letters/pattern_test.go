package letters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternString(t *testing.T) {
	p := Pattern{Length: 5, Known: map[int]rune{1: 'a', 2: 'p', 5: 'e'}}
	assert.Equal(t, "ap??e", p.String())
	assert.Equal(t, "", Pattern{}.String())
}

func TestPatternMatches(t *testing.T) {
	p := Pattern{Length: 5, Known: map[int]rune{1: 'a', 2: 'p', 5: 'e'}}

	assert.True(t, p.Matches("apple"))
	assert.True(t, p.Matches("APPLE"), "matching is case-insensitive")
	assert.False(t, p.Matches("apply"))
	assert.False(t, p.Matches("ape"), "length must agree")
	assert.False(t, p.Matches(""))
}

func TestPatternMatchScore(t *testing.T) {
	p := Pattern{Length: 5, Known: map[int]rune{1: 'a', 2: 'p', 5: 'e'}}

	assert.Equal(t, 3, p.MatchScore("apple"))
	assert.Equal(t, 2, p.MatchScore("apply"))
	assert.Equal(t, 2, p.MatchScore("angle"))
	assert.Equal(t, 0, p.MatchScore("too long to count"))
}
