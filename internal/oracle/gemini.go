// Package oracle implements the generative word oracle used by the high
// reconstruction tier: given a letter template and the clue text gathered
// during a level, ask Gemini for the most likely word.
package oracle

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"merlinsolver/internal/letters"
	"merlinsolver/internal/planner"
)

const defaultModel = "gemini-2.5-flash"

// Gemini infers candidate words from patterns via the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
	log    *zap.Logger
}

// NewGemini creates a Gemini-backed generative oracle.
func NewGemini(ctx context.Context, apiKey, model string, log *zap.Logger) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	if model == "" {
		model = defaultModel
	}
	if log == nil {
		log = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Gemini{client: client, model: model, log: log}, nil
}

// Infer asks the model for a word matching the pattern. The caller is
// responsible for validating the result against the pattern; Infer only
// guarantees a single lowercase alphabetic token of the right length, or an
// error.
func (g *Gemini) Infer(ctx context.Context, p letters.Pattern, clueText string) (string, error) {
	if p.Length == 0 {
		return "", fmt.Errorf("pattern has no length")
	}

	prompt := buildPrompt(p, clueText)
	g.log.Debug("querying generative oracle",
		zap.String("model", g.model), zap.String("pattern", p.String()))

	result, err := g.client.Models.GenerateContent(ctx,
		g.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0.1),
			MaxOutputTokens: 32,
		},
	)
	if err != nil {
		return "", fmt.Errorf("generative inference failed: %w", err)
	}

	text := result.Text()
	word, ok := extractWord(text, p.Length)
	if !ok {
		return "", fmt.Errorf("no %d-letter word in completion %q", p.Length, strings.TrimSpace(text))
	}
	return word, nil
}

// buildPrompt renders the word-puzzle prompt from the template and clues.
func buildPrompt(p letters.Pattern, clueText string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Find a %d-letter English word matching the template %q, where ? is an unknown letter.", p.Length, p.String())
	if len(p.Known) > 0 {
		b.WriteString(" Known letters:")
		for pos := 1; pos <= p.Length; pos++ {
			if ch, ok := p.Known[pos]; ok {
				fmt.Fprintf(&b, " %s letter is %q,", planner.Ordinal(pos), string(ch))
			}
		}
	}
	if clueText != "" {
		fmt.Fprintf(&b, "\nHints collected about the word:\n%s\n", clueText)
	}
	b.WriteString("\nReturn only the word, nothing else.")
	return b.String()
}

var alphaRe = regexp.MustCompile(`[A-Za-z]+`)

// extractWord picks the first alphabetic token of exactly n letters from a
// completion, tolerating chatter around the answer.
func extractWord(text string, n int) (string, bool) {
	for _, tok := range alphaRe.FindAllString(text, -1) {
		if len(tok) == n {
			return strings.ToLower(tok), true
		}
	}
	return "", false
}
