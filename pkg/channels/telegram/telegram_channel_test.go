package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitRunes(t *testing.T) {
	t.Run("short message stays whole", func(t *testing.T) {
		chunks := splitRunes("hello", 10)
		assert.Equal(t, []string{"hello"}, chunks)
	})

	t.Run("long message splits at limit", func(t *testing.T) {
		chunks := splitRunes(strings.Repeat("a", 25), 10)
		require.Len(t, chunks, 3)
		assert.Equal(t, strings.Repeat("a", 10), chunks[0])
		assert.Equal(t, strings.Repeat("a", 10), chunks[1])
		assert.Equal(t, strings.Repeat("a", 5), chunks[2])
	})

	t.Run("multi-byte characters never split mid-rune", func(t *testing.T) {
		msg := strings.Repeat("あ", 7)
		chunks := splitRunes(msg, 3)
		require.Len(t, chunks, 3)
		for _, c := range chunks {
			assert.True(t, strings.HasPrefix(c, "あ"))
		}
		assert.Equal(t, msg, strings.Join(chunks, ""))
	})

	t.Run("zero limit returns message unchanged", func(t *testing.T) {
		chunks := splitRunes("anything", 0)
		assert.Equal(t, []string{"anything"}, chunks)
	})
}

func TestParseCommand(t *testing.T) {
	t.Run("plain text is not a command", func(t *testing.T) {
		assert.Nil(t, parseCommand("hello there"))
	})

	t.Run("simple command", func(t *testing.T) {
		cmd := parseCommand("/idea")
		require.NotNil(t, cmd)
		assert.Equal(t, "idea", cmd.Name)
		assert.Empty(t, cmd.Args)
	})

	t.Run("command with args", func(t *testing.T) {
		cmd := parseCommand("/status verbose now")
		require.NotNil(t, cmd)
		assert.Equal(t, "status", cmd.Name)
		assert.Equal(t, "verbose now", cmd.Args)
	})

	t.Run("group mention suffix is stripped", func(t *testing.T) {
		cmd := parseCommand("/idea@muse_bot")
		require.NotNil(t, cmd)
		assert.Equal(t, "idea", cmd.Name)
	})

	t.Run("uppercase verb is normalized", func(t *testing.T) {
		cmd := parseCommand("/IDEA")
		require.NotNil(t, cmd)
		assert.Equal(t, "idea", cmd.Name)
	})

	t.Run("bare slash is ignored", func(t *testing.T) {
		assert.Nil(t, parseCommand("/"))
	})
}
