package gateway

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"muse/pkg/monitor"
)

// Manager 負責管理所有的 Channels：對外廣播新產生的點子，
// 並把各平台傳入的指令統一路由給核心處理器
type Manager struct {
	channels   map[string]Channel
	cmdHandler CommandHandler
	monitor    monitor.Monitor
	mu         sync.RWMutex
}

// NewManager 建立一個新的 Manager
func NewManager() *Manager {
	return &Manager{
		channels: make(map[string]Channel),
	}
}

// SetCommandHandler 設定處理指令的核心邏輯
func (g *Manager) SetCommandHandler(handler CommandHandler) {
	g.cmdHandler = handler
}

// SetMonitor 設定監控器
func (g *Manager) SetMonitor(m monitor.Monitor) {
	g.monitor = m
}

// Register 註冊一個 Channel
func (g *Manager) Register(c Channel) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.channels[c.ID()] = c
}

// GetChannel 取得特定的 Channel
func (g *Manager) GetChannel(id string) (Channel, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	c, ok := g.channels[id]
	return c, ok
}

// StartAll 啟動所有已註冊的 Channels
func (g *Manager) StartAll() error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Starting channel", "channel", id)
		// 啟動 Channel，並傳入 self 作為 Context
		if err := c.Start(g); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", id, err)
		}
	}
	return nil
}

// StopAll 停止所有 Channels
func (g *Manager) StopAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()

	for id, c := range g.channels {
		slog.Info("Stopping channel", "channel", id)
		if err := c.Stop(); err != nil {
			slog.Error("Error stopping channel", "channel", id, "error", err)
		}
	}
}

// Broadcast 把一則新的點子推送到所有已註冊的 Channels
// 單一 Channel 失敗不會中斷其他 Channel 的發佈
func (g *Manager) Broadcast(message string) error {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if len(g.channels) == 0 {
		return fmt.Errorf("no channels registered")
	}

	var lastErr error
	for id, c := range g.channels {
		if err := c.Broadcast(message); err != nil {
			slog.Error("Broadcast failed", "channel", id, "error", err)
			lastErr = err
			continue
		}

		if g.monitor != nil {
			g.monitor.OnMessage(monitor.MonitorMessage{
				Timestamp:   time.Now(),
				MessageType: "IDEA",
				ChannelID:   id,
				Content:     message,
			})
		}
	}
	return lastErr
}

// SendReply 統一的回覆介面，透過 Channel 介面送回訊息
func (g *Manager) SendReply(session SessionContext, content string) error {
	slog.Info("Reply", "channel", session.ChannelID, "user", session.Username)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "REPLY",
			ChannelID:   session.ChannelID,
			Username:    session.Username,
			Content:     content,
		})
	}

	c, ok := g.GetChannel(session.ChannelID)
	if !ok {
		return fmt.Errorf("channel %s not found", session.ChannelID)
	}
	return c.Send(session, content)
}

// OnCommand 實作 ChannelContext 介面，接收來自 Channel 的指令
func (g *Manager) OnCommand(channelID string, cmd *Command) {
	slog.Info("Command received",
		"channel", channelID, "user", cmd.Session.Username, "command", cmd.Name, "args", cmd.Args)

	if g.monitor != nil {
		g.monitor.OnMessage(monitor.MonitorMessage{
			Timestamp:   time.Now(),
			MessageType: "COMMAND",
			ChannelID:   channelID,
			Username:    cmd.Session.Username,
			Content:     "/" + cmd.Name,
		})
	}

	if g.cmdHandler != nil {
		g.cmdHandler(cmd)
	} else {
		slog.Warn("No command handler set")
	}
}
