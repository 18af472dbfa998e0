package llm

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPromptTooLarge is returned when a prompt exceeds the token budget.
var ErrPromptTooLarge = errors.New("prompt exceeds token budget")

// EstimateTokens gives a rough token count from the word count.
// Source code tokenizes denser than prose, so punctuation runs count too.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	words := strings.Fields(text)
	tokens := float64(len(words)) * 1.33
	for _, w := range words {
		tokens += float64(strings.Count(w, "(")+strings.Count(w, ".")+strings.Count(w, "{")) * 0.5
	}
	if tokens < 1 {
		return 1
	}
	return int(tokens)
}

// CheckBudget rejects prompts estimated above max tokens. A non-positive
// max disables the check.
func CheckBudget(prompt string, max int) error {
	if max <= 0 {
		return nil
	}
	if n := EstimateTokens(prompt); n > max {
		return fmt.Errorf("%w: ~%d tokens, limit %d", ErrPromptTooLarge, n, max)
	}
	return nil
}
