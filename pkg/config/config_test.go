package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSystemConfig(t *testing.T) {
	t.Run("missing file falls back to defaults", func(t *testing.T) {
		cfg := LoadSystemConfig(filepath.Join(t.TempDir(), "nope.json"))
		assert.Equal(t, DefaultSystemConfig(), cfg)
	})

	t.Run("corrupt file falls back to defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "system.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

		cfg := LoadSystemConfig(path)
		assert.Equal(t, 10, cfg.IntervalMinutes)
	})

	t.Run("file values override defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "system.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"interval_minutes":3,"notes_count":7}`), 0644))

		cfg := LoadSystemConfig(path)
		assert.Equal(t, 3, cfg.IntervalMinutes)
		assert.Equal(t, 7, cfg.NotesCount)
		// Untouched fields keep defaults
		assert.Equal(t, 500, cfg.IdeaMaxRunes)
	})
}

func TestStore(t *testing.T) {
	s := NewStore(DefaultSystemConfig())
	assert.Equal(t, 10, s.Load().IntervalMinutes)

	next := DefaultSystemConfig()
	next.IntervalMinutes = 3
	s.Swap(next)
	assert.Equal(t, 3, s.Load().IntervalMinutes)

	// nil swaps keep the current snapshot
	s.Swap(nil)
	assert.Equal(t, 3, s.Load().IntervalMinutes)

	// nil initial config falls back to defaults
	assert.Equal(t, 10, NewStore(nil).Load().IntervalMinutes)
}

func TestLoad(t *testing.T) {
	chdir := func(t *testing.T) string {
		t.Helper()
		dir := t.TempDir()
		old, err := os.Getwd()
		require.NoError(t, err)
		require.NoError(t, os.Chdir(dir))
		t.Cleanup(func() { os.Chdir(old) })
		return dir
	}

	validConfig := `{
		"vault": {"owner": "alice", "repo": "vault", "folder": "20_Literature"},
		"channels": {"telegram": {"token": "x", "chat_id": 1}},
		"llm": [{"type": "gemini", "models": ["gemini-2.0-flash"]}]
	}`

	t.Run("missing config.json is an error", func(t *testing.T) {
		chdir(t)
		_, _, err := Load()
		assert.Error(t, err)
	})

	t.Run("valid config loads", func(t *testing.T) {
		dir := chdir(t)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(validConfig), 0644))

		cfg, sysCfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "alice", cfg.Vault.Owner)
		assert.Contains(t, cfg.Channels, "telegram")
		assert.NotEmpty(t, cfg.LLM)
		assert.Equal(t, 10, sysCfg.IntervalMinutes)
	})

	t.Run("GITHUB_TOKEN env fills empty vault token", func(t *testing.T) {
		dir := chdir(t)
		t.Setenv("GITHUB_TOKEN", "env-token")
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(validConfig), 0644))

		cfg, _, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "env-token", cfg.Vault.Token)
	})

	t.Run("missing llm section fails validation", func(t *testing.T) {
		dir := chdir(t)
		bad := `{"vault": {"owner": "a", "repo": "b"}}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(bad), 0644))

		_, _, err := Load()
		assert.ErrorContains(t, err, "llm")
	})

	t.Run("missing vault owner fails validation", func(t *testing.T) {
		dir := chdir(t)
		bad := `{"vault": {"repo": "b"}, "llm": [{"type": "gemini", "models": ["m"]}]}`
		require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(bad), 0644))

		_, _, err := Load()
		assert.ErrorContains(t, err, "vault")
	})
}
