// Package parser turns the oracle's free-text replies into structured letter
// facts. Parsing is context-sensitive: the same reply text means different
// things depending on which question produced it, so every entry point takes
// the planned question alongside the reply.
//
// The oracle's prose is evasive and noisy, so extraction is liberal in what
// it scans for (quoted tokens, spelled-out letter sequences, anchored
// phrases, bare tokens) but conservative in what it commits: it never emits
// a letter it did not actually see.
package parser

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"merlinsolver/internal/letters"
	"merlinsolver/internal/planner"
)

// ErrUnparseable marks a reply with no usable content at all: empty, free of
// letters and digits, or pure refusal language. It is distinct from a parsed
// reply that simply yielded no facts; the controller counts both against the
// question budget but logs them differently.
var ErrUnparseable = errors.New("reply is unparseable")

// Parse extracts zero or more facts from reply given the question that
// produced it. A nil fact slice with a nil error means the reply was
// readable prose that contained no committable information.
func Parse(q planner.Question, reply string) ([]letters.Fact, error) {
	trimmed := strings.TrimSpace(reply)
	if trimmed == "" || !hasAlnum(trimmed) {
		return nil, ErrUnparseable
	}

	var facts []letters.Fact
	switch q.Kind {
	case planner.KindLength:
		if n, ok := extractLength(trimmed); ok {
			facts = append(facts, letters.LengthFact{Count: n})
		}
	case planner.KindPrefix:
		got := extractLetterRun(trimmed, q.Count, false)
		switch {
		case len(got) == q.Count:
			facts = append(facts, letters.SubstringFact{Position: 1, Text: got})
		case len(got) > 0:
			// Partial credit: commit only the confirmed leading letters.
			for i, ch := range got {
				facts = append(facts, letters.LetterFact{Position: i + 1, Char: ch})
			}
		}
	case planner.KindSuffix:
		if got := extractLetterRun(trimmed, q.Count, true); got != "" {
			// Trailing letters stay trailing even when fewer than asked;
			// the state resolves their absolute positions.
			facts = append(facts, letters.SuffixFact{Text: got})
		}
	case planner.KindLetterAt:
		if ch, ok := extractSingleLetter(trimmed); ok {
			facts = append(facts, letters.LetterFact{Position: q.Pos, Char: ch})
		}
	}

	if len(facts) == 0 && isRefusal(trimmed) {
		return nil, ErrUnparseable
	}
	return facts, nil
}

// GuessOutcome is the oracle's verdict on a submitted word.
type GuessOutcome int

const (
	// GuessUnclear means the reply matched neither verdict; the controller
	// treats it as a rejection.
	GuessUnclear GuessOutcome = iota
	// GuessAdvance means the word was accepted and the level is solved.
	GuessAdvance
	// GuessRejected means the word was wrong.
	GuessRejected
)

var (
	advanceRe = regexp.MustCompile(`(?i)\b(correct|congratulations?|well done|you (?:got|guessed) it|next level|level up|advancing|impressive|you have bested me)\b`)
	rejectRe  = regexp.MustCompile(`(?i)\b(wrong|incorrect|not (?:the|it|correct)|try again|nope|that'?s not|afraid not|no[,.!])`)
)

// ParseGuessReply classifies the reply to a guess submission.
func ParseGuessReply(reply string) GuessOutcome {
	switch {
	case advanceRe.MatchString(reply):
		return GuessAdvance
	case rejectRe.MatchString(reply):
		return GuessRejected
	default:
		return GuessUnclear
	}
}

// =============================================================================
// LENGTH EXTRACTION
// =============================================================================

var digitsRe = regexp.MustCompile(`\d+`)

// spelled-out counts appear often ("the word has seven letters").
var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
}

// maxWordLength bounds sane answers; the game never uses longer secrets.
const maxWordLength = 24

func extractLength(reply string) (int, bool) {
	if m := digitsRe.FindString(reply); m != "" {
		n, err := strconv.Atoi(m)
		if err == nil && n >= 1 && n <= maxWordLength {
			return n, true
		}
		return 0, false
	}
	for _, tok := range wordTokens(reply) {
		if n, ok := numberWords[strings.ToLower(tok)]; ok {
			return n, true
		}
	}
	return 0, false
}

// =============================================================================
// LETTER RUN EXTRACTION (prefix / suffix)
// =============================================================================

var (
	quotedRe   = regexp.MustCompile(`['"` + "`" + `]([A-Za-z]{1,12})['"` + "`" + `]`)
	prefixAnch = regexp.MustCompile(`(?i)(?:starts?\s+with|begins?\s+with|first\s+(?:\w+\s+)?letters?\s+(?:are|is))\s*:?\s*([A-Za-z]+)`)
	suffixAnch = regexp.MustCompile(`(?i)(?:ends?\s+with|finish(?:es)?\s+with|last\s+(?:\w+\s+)?letters?\s+(?:are|is))\s*:?\s*([A-Za-z]+)`)
	wordRe     = regexp.MustCompile(`[A-Za-z]+(?:'[A-Za-z]+)?`)
)

// stopwords are prose tokens that must never be mistaken for the answer.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "can": true, "do": true, "for": true,
	"has": true, "i": true, "in": true, "is": true, "it": true, "its": true,
	"letter": true, "letters": true, "my": true, "no": true, "not": true,
	"of": true, "oh": true, "or": true, "so": true, "the": true, "to": true,
	"was": true, "with": true, "word": true, "yes": true, "you": true,
}

// extractLetterRun pulls at most k contiguous letters out of a noisy reply.
// fromEnd selects the trailing-biased strategies used for suffix questions.
// The strategies are tried in order of reliability:
//
//  1. a quoted token of plausible size,
//  2. a spelled-out sequence of single letters ("C, A, T"),
//  3. a token anchored to the asking phrase ("starts with cat"),
//  4. the first (or last) non-stopword token no longer than k.
func extractLetterRun(reply string, k int, fromEnd bool) string {
	if k < 1 {
		return ""
	}

	if quoted := pickQuoted(reply, k, fromEnd); quoted != "" {
		return quoted
	}

	if run := pickSpelledRun(reply, k, fromEnd); run != "" {
		return run
	}

	anchor := prefixAnch
	if fromEnd {
		anchor = suffixAnch
	}
	if m := anchor.FindStringSubmatch(reply); m != nil {
		tok := strings.ToLower(m[1])
		if !stopwords[tok] && len(tok) <= k {
			return tok
		}
	}

	toks := wordTokens(reply)
	if fromEnd {
		for i := len(toks) - 1; i >= 0; i-- {
			if tok := strings.ToLower(toks[i]); !stopwords[tok] && len(tok) <= k && !strings.Contains(tok, "'") {
				return tok
			}
		}
		return ""
	}
	for _, t := range toks {
		if tok := strings.ToLower(t); !stopwords[tok] && len(tok) <= k && !strings.Contains(tok, "'") {
			return tok
		}
	}
	return ""
}

func pickQuoted(reply string, k int, fromEnd bool) string {
	matches := quotedRe.FindAllStringSubmatch(reply, -1)
	if len(matches) == 0 {
		return ""
	}
	idx := 0
	if fromEnd {
		idx = len(matches) - 1
	}
	tok := strings.ToLower(matches[idx][1])
	if len(tok) > k {
		// The oracle may quote the whole word by accident; a prefix answer
		// longer than asked is untrustworthy positioning, so skip it.
		return ""
	}
	return tok
}

// pickSpelledRun joins maximal runs of standalone single-letter tokens. An
// isolated single letter (like the pronoun "I" mid-sentence) never forms a
// run, so only deliberate spellings match.
func pickSpelledRun(reply string, k int, fromEnd bool) string {
	toks := wordTokens(reply)
	var runs []string
	var cur []string
	flush := func() {
		if len(cur) >= 2 {
			runs = append(runs, strings.ToLower(strings.Join(cur, "")))
		}
		cur = nil
	}
	for _, t := range toks {
		if len(t) == 1 {
			cur = append(cur, t)
			continue
		}
		flush()
	}
	flush()
	if len(runs) == 0 {
		return ""
	}
	run := runs[0]
	if fromEnd {
		run = runs[len(runs)-1]
	}
	if len(run) > k {
		if fromEnd {
			return run[len(run)-k:]
		}
		return run[:k]
	}
	return run
}

// =============================================================================
// SINGLE LETTER EXTRACTION
// =============================================================================

var (
	quotedOneRe = regexp.MustCompile(`['"` + "`" + `]([A-Za-z])['"` + "`" + `]`)
	letterIsRe  = regexp.MustCompile(`(?i)letter\s+(?:is|would be)\s*:?\s*['"]?([A-Za-z])['"]?\b`)
	nonAlphaRe  = regexp.MustCompile(`[^A-Za-z]`)
)

// extractSingleLetter commits a letter only when the reply names exactly
// one. Multiple candidates or none yield no fact; the planner re-asks.
func extractSingleLetter(reply string) (rune, bool) {
	if m := quotedOneRe.FindAllStringSubmatch(reply, -1); len(m) == 1 {
		return lowerRune(m[0][1]), true
	} else if len(m) > 1 {
		return 0, false
	}

	if m := letterIsRe.FindStringSubmatch(reply); m != nil {
		return lowerRune(m[1]), true
	}

	// A bare one-letter reply, punctuation aside.
	if stripped := nonAlphaRe.ReplaceAllString(reply, ""); len(stripped) == 1 {
		return lowerRune(stripped), true
	}

	// Standalone single-letter tokens, ignoring the pronouns "I"/"a" which
	// are prose rather than answers in this position.
	var cands []string
	for _, t := range wordTokens(reply) {
		if len(t) == 1 && t != "I" && t != "a" && t != "A" {
			cands = append(cands, t)
		}
	}
	if len(cands) == 1 {
		return lowerRune(cands[0]), true
	}
	return 0, false
}

// =============================================================================
// SHARED HELPERS
// =============================================================================

var refusalRe = regexp.MustCompile(`(?i)(won'?t|will not|shall not|cannot|can'?t|refuse|never|not allowed|forbidden|no more (?:hints|clues)|ask me no)`)

func isRefusal(reply string) bool {
	return refusalRe.MatchString(reply)
}

var alnumRe = regexp.MustCompile(`[A-Za-z0-9]`)

func hasAlnum(s string) bool { return alnumRe.MatchString(s) }

// wordTokens splits prose into word tokens, keeping contractions intact so
// "won't" does not shed a phantom letter "t".
func wordTokens(s string) []string {
	return wordRe.FindAllString(s, -1)
}

func lowerRune(s string) rune {
	r := []rune(strings.ToLower(s))
	return r[0]
}
