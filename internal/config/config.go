package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Auth
	APIKey string

	// LLM provider
	LLMProvider     string
	GoogleAPIKey    string
	GeminiModel     string
	AnthropicAPIKey string
	AnthropicModel  string
	LLMBaseURL      string
	LLMTimeout      time.Duration
	MaxPromptTokens int

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Storage
	UploadDir string
	OutputDir string

	// State lifetimes
	TaskTTL    time.Duration
	SessionTTL time.Duration

	// Rendering
	HighlightCode bool
	CodeStyle     string

	// Inbox watcher
	WatchDebounce time.Duration
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8000"),

		APIKey: os.Getenv("DOCXER_API_KEY"),

		LLMProvider:     strings.ToLower(envOr("LLM_PROVIDER", "gemini")),
		GoogleAPIKey:    os.Getenv("GOOGLE_API_KEY"),
		GeminiModel:     envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		LLMBaseURL:      os.Getenv("LLM_BASE_URL"),
		LLMTimeout:      envDuration("LLM_TIMEOUT", 120*time.Second),
		MaxPromptTokens: envInt("MAX_PROMPT_TOKENS", 100000),

		WorkerCount:  envInt("WORKER_COUNT", 4),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 10485760), // 10MB

		UploadDir: envOr("UPLOAD_DIR", "uploads"),
		OutputDir: envOr("OUTPUT_DIR", "outputs"),

		TaskTTL:    envDuration("TASK_TTL", 1*time.Hour),
		SessionTTL: envDuration("SESSION_TTL", 30*time.Minute),

		HighlightCode: envBool("HIGHLIGHT_CODE", true),
		CodeStyle:     envOr("CODE_STYLE", "github"),

		WatchDebounce: envDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
	}
	cfg.clamp()
	return cfg
}

// clamp replaces non-positive limits with their defaults.
func (c *Config) clamp() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = 4
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10485760
	}
	if c.MaxPromptTokens <= 0 {
		c.MaxPromptTokens = 100000
	}
	if c.LLMTimeout <= 0 {
		c.LLMTimeout = 120 * time.Second
	}
	if c.TaskTTL <= 0 {
		c.TaskTTL = 1 * time.Hour
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = 500 * time.Millisecond
	}
}

// Validate checks the keys the selected provider needs. DOCXER_API_KEY is
// optional; without it the API runs unauthenticated.
func (c Config) Validate() error {
	switch c.LLMProvider {
	case "gemini":
		if c.GoogleAPIKey == "" {
			return fmt.Errorf("GOOGLE_API_KEY is required for the gemini provider")
		}
	case "anthropic":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be gemini or anthropic, got %q", c.LLMProvider)
	}
	if c.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR must not be empty")
	}
	return nil
}

// EnsureDirs creates the upload and output directories.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.UploadDir, c.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
