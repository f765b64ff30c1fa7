package config

import "sync/atomic"

// Store 保存目前生效的 SystemConfig。熱重載時整個指標原子替換，
// 讀取端每個週期 Load 一份一致的快照，避免與重載 goroutine 競爭
type Store struct {
	ptr atomic.Pointer[SystemConfig]
}

// NewStore 以初始設定建立 Store
func NewStore(cfg *SystemConfig) *Store {
	if cfg == nil {
		cfg = DefaultSystemConfig()
	}
	s := &Store{}
	s.ptr.Store(cfg)
	return s
}

// Load 回傳目前的設定快照。回傳值視為唯讀，重載只會替換整個指標
func (s *Store) Load() *SystemConfig {
	return s.ptr.Load()
}

// Swap 以新的設定取代目前快照，nil 會被忽略
func (s *Store) Swap(cfg *SystemConfig) {
	if cfg == nil {
		return
	}
	s.ptr.Store(cfg)
}
