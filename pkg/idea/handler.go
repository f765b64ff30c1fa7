package idea

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"muse/pkg/api"
)

// Handler 處理來自各 Channel 的斜線指令，是 gateway 的指令入口
type Handler struct {
	pipeline  *Pipeline
	responder api.CommandResponder
}

// NewHandler 建立指令處理器
func NewHandler(p *Pipeline) *Handler {
	return &Handler{pipeline: p}
}

// SetResponder 實作 api.ResponderAware，由 gateway.Builder 注入
func (h *Handler) SetResponder(responder api.CommandResponder) {
	h.responder = responder
}

// OnCommand 實作 api.CommandProcessor
func (h *Handler) OnCommand(cmd *api.Command) {
	switch cmd.Name {
	case "idea":
		// Generation takes up to the LLM timeout; never block the
		// channel's update loop.
		go h.handleIdea(cmd)
	case "status":
		h.reply(cmd, h.statusText())
	default:
		h.reply(cmd, fmt.Sprintf("未知のコマンドです: /%s（利用可能: /idea, /status）", cmd.Name))
	}
}

func (h *Handler) handleIdea(cmd *api.Command) {
	h.reply(cmd, "アイデアを生成しています…")

	out, err := h.pipeline.TryRunOnce(context.Background())
	if err != nil {
		slog.Error("On-demand cycle failed", "error", err)
		h.reply(cmd, "生成に失敗しました。ログを確認してください。")
		return
	}
	if !out.Published {
		h.reply(cmd, fmt.Sprintf("今回は投稿を見送りました（%s）", out.Skipped))
	}
	// Published ideas arrive via the broadcast itself; no extra reply needed.
}

func (h *Handler) statusText() string {
	entries := h.pipeline.History().Entries()
	if len(entries) == 0 {
		return "まだアイデアは投稿されていません。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "直近 %d 件のアイデア:\n", len(entries))
	for _, e := range entries {
		line, _, _ := strings.Cut(e.Idea, "\n")
		fmt.Fprintf(&b, "[%s] %s\n", e.PostedAt.Format("01-02 15:04"), line)
	}
	return strings.TrimRight(b.String(), "\n")
}

func (h *Handler) reply(cmd *api.Command, text string) {
	if h.responder == nil {
		return
	}
	if err := h.responder.SendReply(cmd.Session, text); err != nil {
		slog.Error("Reply failed", "channel", cmd.Session.ChannelID, "error", err)
	}
}
