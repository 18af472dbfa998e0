package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Option is one setting that may come from a config file or flag.
type Option struct {
	Key     string
	Comment string
	apply   func(c *Config, v *viper.Viper, key string)
}

func setString(field func(*Config) *string) func(*Config, *viper.Viper, string) {
	return func(c *Config, v *viper.Viper, key string) { *field(c) = v.GetString(key) }
}

// Options lists the keys understood in config files, named after the
// environment variables they override.
func Options() []Option {
	return []Option{
		{Key: "llm_provider", Comment: "gemini or anthropic", apply: func(c *Config, v *viper.Viper, k string) {
			c.LLMProvider = strings.ToLower(v.GetString(k))
		}},
		{Key: "google_api_key", Comment: "Gemini API key", apply: setString(func(c *Config) *string { return &c.GoogleAPIKey })},
		{Key: "gemini_model", Comment: "Gemini model name", apply: setString(func(c *Config) *string { return &c.GeminiModel })},
		{Key: "anthropic_api_key", Comment: "Anthropic API key", apply: setString(func(c *Config) *string { return &c.AnthropicAPIKey })},
		{Key: "anthropic_model", Comment: "Anthropic model name", apply: setString(func(c *Config) *string { return &c.AnthropicModel })},
		{Key: "llm_base_url", Comment: "Override the provider endpoint", apply: setString(func(c *Config) *string { return &c.LLMBaseURL })},
		{Key: "llm_timeout", Comment: "Per-request timeout", apply: func(c *Config, v *viper.Viper, k string) {
			c.LLMTimeout = v.GetDuration(k)
		}},
		{Key: "max_prompt_tokens", Comment: "Reject prompts estimated above this", apply: func(c *Config, v *viper.Viper, k string) {
			c.MaxPromptTokens = v.GetInt(k)
		}},
		{Key: "max_upload_bytes", Comment: "Largest accepted source file", apply: func(c *Config, v *viper.Viper, k string) {
			c.MaxUploadBytes = v.GetInt64(k)
		}},
		{Key: "output_dir", Comment: "Where .docx files are written", apply: setString(func(c *Config) *string { return &c.OutputDir })},
		{Key: "upload_dir", Comment: "Where uploaded sources are kept", apply: setString(func(c *Config) *string { return &c.UploadDir })},
		{Key: "highlight_code", Comment: "Colour code blocks by token", apply: func(c *Config, v *viper.Viper, k string) {
			c.HighlightCode = v.GetBool(k)
		}},
		{Key: "code_style", Comment: "Highlight style name", apply: setString(func(c *Config) *string { return &c.CodeStyle })},
		{Key: "watch_debounce", Comment: "Quiet period before a changed file is processed", apply: func(c *Config, v *viper.Viper, k string) {
			c.WatchDebounce = v.GetDuration(k)
		}},
	}
}

// Overlay applies values from v on top of cfg: the config file named by
// v.SetConfigFile, then any bound flags that were changed. Keys v does not
// hold leave cfg untouched.
func Overlay(cfg Config, v *viper.Viper) (Config, error) {
	if v.ConfigFileUsed() != "" {
		if err := v.ReadInConfig(); err != nil {
			return cfg, fmt.Errorf("read config %s: %w", v.ConfigFileUsed(), err)
		}
	}
	for _, o := range Options() {
		if v.IsSet(o.Key) {
			o.apply(&cfg, v, o.Key)
		}
	}
	cfg.clamp()
	return cfg, nil
}
