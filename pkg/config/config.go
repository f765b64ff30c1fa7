package config

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// VaultConfig identifies the GitHub-hosted note vault the bot draws
// fragments from.
type VaultConfig struct {
	// Owner is the GitHub account or organization owning the vault repo.
	Owner string `json:"owner"`
	// Repo is the repository name holding the notes.
	Repo string `json:"repo"`
	// Folder restricts note selection to one directory inside the repo.
	Folder string `json:"folder"`
	// Token is the GitHub API token. Falls back to the GITHUB_TOKEN
	// environment variable when empty.
	Token string `json:"token,omitempty"`
}

// Config defines the global application configuration structure.
// This structure maps directly to the config.json file and holds
// business-level settings like the vault location, channel credentials
// and LLM provider choices.
type Config struct {
	// Vault locates the note repository used as idea source material.
	Vault VaultConfig `json:"vault"`
	// Channels contains a map of channel identifiers (e.g., "telegram",
	// "web") to their specific configuration payloads in raw JSON format.
	Channels map[string]jsoniter.RawMessage `json:"channels"`
	// LLM holds the configuration for the LLM provider groups in raw JSON.
	LLM jsoniter.RawMessage `json:"llm"`
}

// Validate ensures the configuration structure contains all mandatory fields.
// It acts as a primary guard before the system proceeds to initialization.
func (c *Config) Validate() error {
	if len(c.LLM) == 0 {
		return fmt.Errorf("mandatory 'llm' configuration is missing or empty")
	}
	if c.Vault.Owner == "" || c.Vault.Repo == "" {
		return fmt.Errorf("mandatory 'vault' owner/repo configuration is missing")
	}
	return nil
}

// applyEnvOverrides fills credential fields from the environment when the
// config file leaves them empty, mirroring the original deployment where
// all secrets lived in env vars.
func (c *Config) applyEnvOverrides() {
	if c.Vault.Token == "" {
		c.Vault.Token = os.Getenv("GITHUB_TOKEN")
	}
}

// SystemConfig defines engine-level technical parameters.
// These settings are stored in system.json and control the performance,
// reliability, and technical behavior of the muse engine.
type SystemConfig struct {
	// IntervalMinutes is the pause between two publishing cycles.
	IntervalMinutes int `json:"interval_minutes"`
	// NotesCount is how many random note fragments feed one prompt.
	NotesCount int `json:"notes_count"`
	// IdeaMaxRunes caps the published idea length. Longer finals are
	// truncated rune-safe before publishing.
	IdeaMaxRunes int `json:"idea_max_runes"`
	// IdeaMinRunes rejects degenerate finals shorter than this.
	IdeaMinRunes int `json:"idea_min_runes"`
	// RecentIdeas is the sliding window of past ideas fed back into the
	// prompt for repeat avoidance.
	RecentIdeas int `json:"recent_ideas"`
	// MaxRetries is the number of times the system will attempt to
	// recover from a transient LLM or network error before giving up.
	MaxRetries int `json:"max_retries"`
	// RetryDelayMs is the duration to wait (in milliseconds) between
	// consecutive retry attempts.
	RetryDelayMs int `json:"retry_delay_ms"`
	// LLMTimeoutMs is the hard cutoff time (in milliseconds) for an
	// LLM request. The context will be cancelled if exceeded.
	LLMTimeoutMs int `json:"llm_timeout_ms"`
	// VaultTimeoutMs is the timeout applied to GitHub API calls.
	VaultTimeoutMs int `json:"vault_timeout_ms"`
	// OllamaDefaultURL is the fallback endpoint used when connecting
	// to a local Ollama instance if no specific URL is provided.
	OllamaDefaultURL string `json:"ollama_default_url"`
	// InternalChannelBuffer defines the size of the internal Go channels
	// used for buffering stream chunks to prevent production blocking.
	InternalChannelBuffer int `json:"internal_channel_buffer"`
	// TelegramMessageLimit is the maximum character count for a single
	// Telegram message. Longer responses will be split into multiple chunks.
	TelegramMessageLimit int `json:"telegram_message_limit"`
	// ShowReasoning determines whether the extracted reasoning segment is
	// logged at info level alongside the published idea.
	ShowReasoning bool `json:"show_reasoning"`
	// DebugChunks enables saving every raw LLM response chunk to the /debug
	// folder for inspection and troubleshooting purposes.
	DebugChunks bool `json:"debug_chunks"`
	// LogLevel sets the minimum severity for log output.
	// Accepted values: "debug", "info", "warn", "error". Default: "info".
	LogLevel string `json:"log_level"`
}

// DefaultSystemConfig returns a SystemConfig pointer initialized with
// hardcoded safe default values. This is used as a fallback when the
// system.json file is missing or corrupt, ensuring the engine can always
// start.
func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		IntervalMinutes:       10,
		NotesCount:            5,
		IdeaMaxRunes:          500,
		IdeaMinRunes:          20,
		RecentIdeas:           10,
		MaxRetries:            3,
		RetryDelayMs:          500,
		LLMTimeoutMs:          600000,
		VaultTimeoutMs:        10000,
		OllamaDefaultURL:      "http://localhost:11434",
		InternalChannelBuffer: 100,
		TelegramMessageLimit:  4000,
		ShowReasoning:         true,
		LogLevel:              "info",
	}
}

// Load reads and parses the JSON configuration files from the current
// working directory. It first attempts to load 'config.json' (app config);
// if this file is missing, it returns an error. Then it calls
// LoadSystemConfig to load 'system.json'.
func Load() (*Config, *SystemConfig, error) {
	// 1. Load Application Config
	appPath := "config.json"
	if _, err := os.Stat(appPath); os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("config file '%s' not found. please create one", appPath)
	}

	appFile, err := os.ReadFile(appPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(appFile, &cfg); err != nil {
		return nil, nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()

	// 1a. Validate structure integrity
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	// 2. Load System Config independently
	sysCfg := LoadSystemConfig("system.json")

	return &cfg, sysCfg, nil
}

// LoadSystemConfig attempts to load system settings, returns defaults if it fails
func LoadSystemConfig(path string) *SystemConfig {
	cfg := DefaultSystemConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		return cfg // File not found, use defaults
	}

	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(file, cfg); err != nil {
		return cfg // Parse failed, use defaults
	}

	return cfg
}
