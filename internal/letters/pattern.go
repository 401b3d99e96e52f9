package letters

import "strings"

// Pattern is an immutable word template: a length plus fixed letters at
// 1-based positions. It is the input contract for the similarity and
// generative oracles.
type Pattern struct {
	Length int
	Known  map[int]rune
}

// String renders the template with '?' for unknown positions, e.g. "ap??e".
func (p Pattern) String() string {
	if p.Length == 0 {
		return ""
	}
	var b strings.Builder
	for i := 1; i <= p.Length; i++ {
		if ch, ok := p.Known[i]; ok {
			b.WriteRune(ch)
		} else {
			b.WriteByte('?')
		}
	}
	return b.String()
}

// Matches reports whether word has the template's length and agrees with
// every fixed position. Comparison is case-insensitive.
func (p Pattern) Matches(word string) bool {
	runes := []rune(strings.ToLower(strings.TrimSpace(word)))
	if p.Length == 0 || len(runes) != p.Length {
		return false
	}
	for pos, want := range p.Known {
		if runes[pos-1] != want {
			return false
		}
	}
	return true
}

// MatchScore counts position-weighted agreement between word and the fixed
// letters, for ranking candidates that are not exact matches. Length
// mismatches score zero.
func (p Pattern) MatchScore(word string) int {
	runes := []rune(strings.ToLower(word))
	if len(runes) != p.Length {
		return 0
	}
	score := 0
	for pos, want := range p.Known {
		if runes[pos-1] == want {
			score++
		}
	}
	return score
}
