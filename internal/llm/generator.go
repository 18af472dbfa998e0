package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/docxer/docxer/internal/config"
)

// Generator turns a prompt into markdown documentation.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Model() string
	Close()
}

// Provider names accepted by New.
const (
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// Config selects and configures a provider.
type Config struct {
	Provider        string
	GoogleAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	Timeout         time.Duration

	// BaseURL overrides the provider endpoint.
	BaseURL string
}

// FromConfig extracts the provider settings from the application config.
func FromConfig(c config.Config) Config {
	return Config{
		Provider:        c.LLMProvider,
		GoogleAPIKey:    c.GoogleAPIKey,
		GeminiModel:     c.GeminiModel,
		AnthropicAPIKey: c.AnthropicAPIKey,
		AnthropicModel:  c.AnthropicModel,
		Timeout:         c.LLMTimeout,
		BaseURL:         c.LLMBaseURL,
	}
}

// New builds the generator named by cfg.Provider.
func New(ctx context.Context, cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		if cfg.GoogleAPIKey == "" {
			return nil, fmt.Errorf("gemini provider requires an API key")
		}
		return NewGeminiClient(ctx, cfg.GoogleAPIKey, cfg.GeminiModel, cfg.BaseURL, cfg.Timeout)
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("anthropic provider requires an API key")
		}
		c := NewClaudeClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.Timeout)
		if cfg.BaseURL != "" {
			c.WithBaseURL(cfg.BaseURL)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

// Instrumented records the latency and outcome of every call.
type Instrumented struct {
	next  Generator
	stats *Stats
}

func Instrument(g Generator, stats *Stats) *Instrumented {
	return &Instrumented{next: g, stats: stats}
}

func (i *Instrumented) Generate(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	text, err := i.next.Generate(ctx, prompt)
	i.stats.Record(time.Since(start), err != nil)
	return text, err
}

func (i *Instrumented) Model() string { return i.next.Model() }

func (i *Instrumented) Close() { i.next.Close() }

// Stats returns the current window, tagged with the model name.
func (i *Instrumented) Stats() StatsSnapshot {
	snap := i.stats.Snapshot()
	snap.Model = i.next.Model()
	return snap
}
