// Package planner selects the next highest-information question to ask the
// oracle given the current letter state. It is a pure function: the question
// budget and the asked-question bookkeeping belong to the session controller.
package planner

import (
	"fmt"

	"merlinsolver/internal/letters"
)

// Kind is the category of a question. The parser needs it to know how to
// read the reply.
type Kind int

const (
	// KindLength asks for the total letter count.
	KindLength Kind = iota
	// KindPrefix asks for the first Count letters.
	KindPrefix
	// KindSuffix asks for the last Count letters.
	KindSuffix
	// KindLetterAt asks for the single letter at Pos.
	KindLetterAt
)

func (k Kind) String() string {
	switch k {
	case KindLength:
		return "length"
	case KindPrefix:
		return "prefix"
	case KindSuffix:
		return "suffix"
	case KindLetterAt:
		return "letter-at"
	default:
		return "unknown"
	}
}

// Question is one planned oracle exchange: its category, parameters, and the
// natural-language prompt to send.
type Question struct {
	Kind  Kind
	Pos   int // set for KindLetterAt
	Count int // set for KindPrefix / KindSuffix
	Text  string
}

// Key identifies the question for duplicate suppression within a level.
func (q Question) Key() string {
	switch q.Kind {
	case KindLength:
		return "length"
	case KindPrefix:
		return fmt.Sprintf("prefix:%d", q.Count)
	case KindSuffix:
		return fmt.Sprintf("suffix:%d", q.Count)
	default:
		return fmt.Sprintf("letter:%d", q.Pos)
	}
}

// batchSpan is the most letters a prefix/suffix question asks for at once.
// Longer spans make the oracle evasive; three matches the game's tolerance.
const batchSpan = 3

// Next proposes the best next question, skipping any whose Key is in asked.
// It returns false when the state is complete or no useful question remains.
//
// Priority: length, then a prefix batch, then a suffix batch, then single
// letters at missing positions in ascending order. Batch questions are only
// proposed while they can still cover at least two unknown positions;
// otherwise single-letter questions are cheaper per unknown.
func Next(st *letters.State, asked map[string]bool) (Question, bool) {
	if st.IsComplete() {
		return Question{}, false
	}

	if st.Length() == 0 {
		q := Question{Kind: KindLength, Text: "How many letters does the secret word have?"}
		if !asked[q.Key()] {
			return q, true
		}
		// Length still unknown and the question is spent: nothing else can
		// be positioned yet. The controller may clear the asked entry to
		// retry after a parse failure.
		return Question{}, false
	}

	if st.PrefixKnownUpTo() == 0 && st.Length() > 1 {
		k := min(batchSpan, st.Length())
		q := Question{
			Kind:  KindPrefix,
			Count: k,
			Text:  fmt.Sprintf("What are the first %s letters of the word?", numberWord(k)),
		}
		if k == 1 {
			q.Text = "What is the first letter of the word?"
		}
		if !asked[q.Key()] {
			return q, true
		}
	}

	if st.SuffixKnownFrom() == 0 {
		k := min(batchSpan, st.Length()-st.PrefixKnownUpTo())
		if k >= 2 {
			q := Question{
				Kind:  KindSuffix,
				Count: k,
				Text:  fmt.Sprintf("What are the last %s letters of the word?", numberWord(k)),
			}
			if !asked[q.Key()] {
				return q, true
			}
		}
	}

	for _, pos := range st.MissingPositions() {
		q := Question{
			Kind: KindLetterAt,
			Pos:  pos,
			Text: fmt.Sprintf("What is the %s letter of the word?", Ordinal(pos)),
		}
		if !asked[q.Key()] {
			return q, true
		}
	}

	return Question{}, false
}

// Ordinal renders 1 -> "1st", 2 -> "2nd", 11 -> "11th", etc.
func Ordinal(n int) string {
	suffix := "th"
	if n%100 < 11 || n%100 > 13 {
		switch n % 10 {
		case 1:
			suffix = "st"
		case 2:
			suffix = "nd"
		case 3:
			suffix = "rd"
		}
	}
	return fmt.Sprintf("%d%s", n, suffix)
}

var numberWords = []string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

func numberWord(n int) string {
	if n >= 0 && n < len(numberWords) {
		return numberWords[n]
	}
	return fmt.Sprintf("%d", n)
}
