package pipeline

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/docxer/docxer/internal/llm"
)

const MaxRetries = 3

// Backoff returns a duration for attempt n (0-indexed) with jitter.
func Backoff(attempt int) time.Duration {
	base := time.Duration(1<<uint(attempt)) * time.Second
	if base > 30*time.Second {
		base = 30 * time.Second
	}
	jitter := time.Duration(rand.Int64N(int64(base) / 2))
	return base + jitter
}

// generateWithRetry calls gen until it succeeds, fails permanently, or
// MaxRetries attempts have been made.
func generateWithRetry(ctx context.Context, gen llm.Generator, prompt string, backoff func(int) time.Duration, log *slog.Logger) (string, error) {
	var (
		text    string
		lastErr error
	)
	for attempt := range MaxRetries {
		text, lastErr = gen.Generate(ctx, prompt)
		if lastErr == nil || !llm.IsRetryable(lastErr) {
			return text, lastErr
		}
		if attempt == MaxRetries-1 {
			break
		}
		log.Warn("retryable generation error", "attempt", attempt, "error", lastErr)
		select {
		case <-time.After(backoff(attempt)):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return "", lastErr
}
