package idea

import (
	"sync"
	"time"
)

// Entry 代表一則已發佈的點子
type Entry struct {
	Idea     string
	PostedAt time.Time
}

// History 保存最近發佈過的點子，作為提示詞的「避免重複」素材，
// 同時供 /status 指令查詢。超出視窗大小時會淘汰最舊的項目
type History struct {
	mu      sync.Mutex
	entries []Entry
	max     int
}

// NewHistory 建立一個容量為 max 的 History
func NewHistory(max int) *History {
	if max <= 0 {
		max = 1
	}
	return &History{max: max}
}

// Add 記錄一則新發佈的點子
func (h *History) Add(idea string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = append(h.entries, Entry{Idea: idea, PostedAt: time.Now()})
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
}

// Recent 回傳視窗內所有點子的文字內容（由舊到新）
func (h *History) Recent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]string, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.Idea
	}
	return out
}

// Entries 回傳視窗內所有項目的複本
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Entry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Len 回傳目前視窗內的項目數
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
