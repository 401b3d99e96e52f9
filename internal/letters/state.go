// Package letters tracks everything learned about a level's secret word:
// its length, confirmed letters at 1-based positions, and suffix letters
// parked before the length is known. The state is the single source of truth
// for the planner and the reconstructor; it never performs I/O.
package letters

import (
	"errors"
	"sort"
	"strings"
	"unicode"
)

// ErrIncomplete is returned by AsWord when positions are still unknown.
var ErrIncomplete = errors.New("letter state incomplete")

// Outcome reports how a fact interacted with the existing state.
type Outcome int

const (
	// Applied means the fact added at least one new letter or the length.
	Applied Outcome = iota
	// Redundant means the fact repeated information already confirmed.
	Redundant
	// Conflict means the fact contradicted a confirmed value. The earlier
	// value is kept; the caller decides whether to log or re-ask.
	Conflict
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Redundant:
		return "redundant"
	case Conflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// Source records which kind of question produced a confirmed letter.
// Single-letter answers are more trustworthy than batch prefix/suffix
// answers, which the oracle garbles more often; the session controller uses
// this to pick suspect positions after a rejected guess.
type Source int

const (
	// SourceAnswer marks a letter confirmed by a single-letter question.
	SourceAnswer Source = iota
	// SourceBatch marks a letter derived from a prefix/suffix answer.
	SourceBatch
)

// Fact is one structured piece of information extracted from an oracle reply.
type Fact interface {
	fact()
}

// LengthFact states the total letter count of the word.
type LengthFact struct {
	Count int
}

// SubstringFact states a contiguous run of letters starting at Position.
type SubstringFact struct {
	Position int
	Text     string
}

// SuffixFact states the trailing letters of the word. It is kept separate
// from SubstringFact because its absolute positions depend on the length:
// if the length is not known yet the letters are parked by offset from the
// end and resolved when a LengthFact arrives.
type SuffixFact struct {
	Text string
}

// LetterFact states a single letter at a 1-based position.
type LetterFact struct {
	Position int
	Char     rune
}

func (LengthFact) fact()    {}
func (SubstringFact) fact() {}
func (SuffixFact) fact()    {}
func (LetterFact) fact()    {}

// State is the evolving partial-word record for one level. It is owned
// exclusively by one session controller and is not safe for concurrent use.
type State struct {
	length  int // 0 until learned
	known   map[int]rune
	source  map[int]Source
	pending map[int]rune // offset from end (1 = last letter) -> letter

	// Maximal contiguous runs, recomputed on every mutation.
	prefixRun  int // highest position such that 1..prefixRun are all known
	suffixFrom int // lowest position such that suffixFrom..length are all known; 0 if none
}

// NewState returns an empty state with no length and no known letters.
func NewState() *State {
	return &State{
		known:   make(map[int]rune),
		source:  make(map[int]Source),
		pending: make(map[int]rune),
	}
}

// Merge folds one fact into the state. src tells the state which question
// kind produced the fact; it is ignored for LengthFact. A Conflict outcome
// means at least one letter contradicted a confirmed value; non-conflicting
// parts of the same fact are still applied.
func (s *State) Merge(f Fact, src Source) Outcome {
	switch f := f.(type) {
	case LengthFact:
		return s.mergeLength(f.Count)
	case SubstringFact:
		return s.mergeRun(f.Position, f.Text, src)
	case SuffixFact:
		return s.mergeSuffix(f.Text, src)
	case LetterFact:
		out := s.setLetter(f.Position, f.Char, src)
		s.recompute()
		return out
	default:
		return Redundant
	}
}

func (s *State) mergeLength(n int) Outcome {
	if n < 1 {
		return Conflict
	}
	if s.length != 0 {
		if s.length == n {
			return Redundant
		}
		return Conflict
	}
	s.length = n
	out := Applied
	// Resolve parked suffix letters now that positions can be computed.
	for off, ch := range s.pending {
		pos := s.length - off + 1
		if pos < 1 {
			out = Conflict
			continue
		}
		if s.setLetter(pos, ch, SourceBatch) == Conflict {
			out = Conflict
		}
	}
	s.pending = make(map[int]rune)
	s.recompute()
	return out
}

func (s *State) mergeRun(pos int, text string, src Source) Outcome {
	if pos < 1 || text == "" {
		return Conflict
	}
	out := Redundant
	for i, ch := range strings.ToLower(text) {
		switch s.setLetter(pos+i, ch, src) {
		case Applied:
			if out != Conflict {
				out = Applied
			}
		case Conflict:
			out = Conflict
		}
	}
	s.recompute()
	return out
}

func (s *State) mergeSuffix(text string, src Source) Outcome {
	if text == "" {
		return Conflict
	}
	text = strings.ToLower(text)
	if s.length == 0 {
		// Length unknown: park by offset from the end.
		out := Redundant
		runes := []rune(text)
		for i, ch := range runes {
			off := len(runes) - i
			if prev, ok := s.pending[off]; ok {
				if prev != ch {
					out = Conflict
				}
				continue
			}
			s.pending[off] = ch
			if out != Conflict {
				out = Applied
			}
		}
		return out
	}
	start := s.length - len([]rune(text)) + 1
	if start < 1 {
		return Conflict
	}
	return s.mergeRun(start, text, src)
}

// setLetter applies a single letter without recomputing runs. The first
// confirmed value always wins; a differing later value is a Conflict.
func (s *State) setLetter(pos int, ch rune, src Source) Outcome {
	if pos < 1 || !unicode.IsLetter(ch) {
		return Conflict
	}
	if s.length != 0 && pos > s.length {
		return Conflict
	}
	ch = unicode.ToLower(ch)
	if prev, ok := s.known[pos]; ok {
		if prev == ch {
			// A direct answer upgrades the trust level of a batch letter.
			if src == SourceAnswer {
				s.source[pos] = SourceAnswer
			}
			return Redundant
		}
		return Conflict
	}
	s.known[pos] = ch
	s.source[pos] = src
	return Applied
}

// Forget discards a confirmed position, e.g. when a guess built on it was
// rejected and the position is suspect.
func (s *State) Forget(pos int) {
	delete(s.known, pos)
	delete(s.source, pos)
	s.recompute()
}

// recompute rebuilds the contiguous prefix/suffix runs from known. The runs
// are always derived, never maintained incrementally.
func (s *State) recompute() {
	s.prefixRun = 0
	for p := 1; ; p++ {
		if _, ok := s.known[p]; !ok {
			break
		}
		s.prefixRun = p
	}
	s.suffixFrom = 0
	if s.length == 0 {
		return
	}
	for p := s.length; p >= 1; p-- {
		if _, ok := s.known[p]; !ok {
			break
		}
		s.suffixFrom = p
	}
}

// Length returns the learned letter count, or 0 if not known yet.
func (s *State) Length() int { return s.length }

// PrefixKnownUpTo returns the highest position such that every position
// from 1 up to it is confirmed; 0 when position 1 is unknown.
func (s *State) PrefixKnownUpTo() int { return s.prefixRun }

// SuffixKnownFrom returns the lowest position such that every position from
// it down to the length is confirmed; 0 when the last letter (or the
// length) is unknown.
func (s *State) SuffixKnownFrom() int { return s.suffixFrom }

// KnownAt returns the confirmed letter at pos, if any.
func (s *State) KnownAt(pos int) (rune, bool) {
	ch, ok := s.known[pos]
	return ch, ok
}

// KnownCount returns the number of confirmed positions.
func (s *State) KnownCount() int { return len(s.known) }

// BatchPositions returns, ascending, the confirmed positions whose letters
// came only from batch (prefix/suffix) answers.
func (s *State) BatchPositions() []int {
	var out []int
	for p, src := range s.source {
		if src == SourceBatch {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

// IsComplete reports whether the length is known and every position is
// confirmed.
func (s *State) IsComplete() bool {
	if s.length == 0 {
		return false
	}
	return len(s.known) >= s.length && s.prefixRun == s.length
}

// MissingPositions returns the unknown positions in ascending order. It
// returns nil while the length is unknown.
func (s *State) MissingPositions() []int {
	if s.length == 0 {
		return nil
	}
	var out []int
	for p := 1; p <= s.length; p++ {
		if _, ok := s.known[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}

// AsWord concatenates the confirmed letters. Valid only when complete.
func (s *State) AsWord() (string, error) {
	if !s.IsComplete() {
		return "", ErrIncomplete
	}
	var b strings.Builder
	for p := 1; p <= s.length; p++ {
		b.WriteRune(s.known[p])
	}
	return b.String(), nil
}

// Pattern returns the current template of the word for the reconstruction
// oracles.
func (s *State) Pattern() Pattern {
	known := make(map[int]rune, len(s.known))
	for p, ch := range s.known {
		known[p] = ch
	}
	return Pattern{Length: s.length, Known: known}
}
