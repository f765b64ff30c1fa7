package prompt

import (
	"testing"

	"muse/pkg/vault"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	notes := []vault.Note{
		{Name: "quantum.md", Content: "量子もつれについてのメモ\n"},
		{Name: "folklore.md", Content: "座敷童子の伝承"},
	}

	t.Run("embeds protocol and delimiter instruction", func(t *testing.T) {
		p := Build(notes, nil)
		assert.Contains(t, p, "STEP1")
		assert.Contains(t, p, "STEP4")
		assert.Contains(t, p, "**FINAL_OUTPUT**")
		assert.Contains(t, p, "**ログライン**")
		assert.Contains(t, p, "**世界観**")
	})

	t.Run("embeds every note with name and trimmed content", func(t *testing.T) {
		p := Build(notes, nil)
		assert.Contains(t, p, "断片1（quantum.md）")
		assert.Contains(t, p, "量子もつれについてのメモ\n")
		assert.Contains(t, p, "断片2（folklore.md）")
		assert.Contains(t, p, "座敷童子の伝承")
	})

	t.Run("no recent section when history is empty", func(t *testing.T) {
		p := Build(notes, nil)
		assert.NotContains(t, p, "最近投稿したアイデア")
	})

	t.Run("recent ideas listed by first line", func(t *testing.T) {
		recent := []string{"**ログライン**：迷宮都市の話\n**世界観**：長い説明"}
		p := Build(notes, recent)
		assert.Contains(t, p, "最近投稿したアイデア")
		assert.Contains(t, p, "- **ログライン**：迷宮都市の話\n")
		assert.NotContains(t, p, "長い説明")
	})
}
