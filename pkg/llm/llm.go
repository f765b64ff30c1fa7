package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	jsoniter "github.com/json-iterator/go"
)

// json 用於 package llm 內部的 JSON 處理，統一使用 json-iterator
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Usage 定義通用的用量統計結構
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	ThoughtsTokens   int    `json:"thoughts_tokens,omitempty"`
	CachedTokens     int    `json:"cached_tokens,omitempty"`
	StopReason       string `json:"stop_reason,omitempty"`
}

// LogUsage 印出統一格式的用量統計
func LogUsage(model string, usage *Usage) {
	if usage == nil {
		return
	}
	slog.Info("LLM usage",
		"model", model,
		"prompt_tokens", usage.PromptTokens,
		"completion_tokens", usage.CompletionTokens,
		"thoughts_tokens", usage.ThoughtsTokens,
		"total_tokens", usage.TotalTokens,
		"stop_reason", usage.StopReason,
	)
}

// Client 通用 LLM 客戶端介面
type Client interface {
	// Provider 回傳提供者名稱（如 "gemini"）
	Provider() string

	// StreamChat 流式對話，返回 StreamChunk channel
	// messages: 對話內容（使用 llm.Message 結構）
	StreamChat(ctx context.Context, messages []Message) (<-chan StreamChunk, error)

	// IsTransientError 判斷是否為暫時性錯誤 (如 503, Rate Limit)
	IsTransientError(err error) bool

	// SetDebug 開關原始 chunk 落盤除錯
	SetDebug(enabled bool)
}

// FallbackClient 支援多個 Client 分級嘗試
type FallbackClient struct {
	Clients    []Client
	MaxRetries int
	RetryDelay time.Duration
}

func (f *FallbackClient) Provider() string {
	return "fallback"
}

func (f *FallbackClient) SetDebug(enabled bool) {
	for _, c := range f.Clients {
		c.SetDebug(enabled)
	}
}

func (f *FallbackClient) StreamChat(ctx context.Context, messages []Message) (<-chan StreamChunk, error) {
	var lastErr error
	for i, client := range f.Clients {
		if i > 0 {
			slog.Warn("Previous provider failed, trying fallback", "provider", client.Provider(), "index", i+1)
		}

		// 使用配置的重試次數，若為 0 則至少執行 1 次
		maxRetries := f.MaxRetries
		if maxRetries <= 0 {
			maxRetries = 1
		}

		for retry := 1; retry <= maxRetries; retry++ {
			if retry > 1 {
				slog.Info("Retrying provider", "provider", client.Provider(), "attempt", fmt.Sprintf("%d/%d", retry, maxRetries))
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-time.After(time.Duration(retry-1) * f.RetryDelay):
				}
			}

			ch, err := client.StreamChat(ctx, messages)
			if err == nil {
				return ch, nil
			}

			lastErr = err

			if client.IsTransientError(err) && retry < maxRetries {
				slog.Warn("Provider failed with transient error, retrying", "provider", client.Provider(), "error", err)
				continue
			}

			// 非暫時性錯誤，或者已達最大重試次數
			slog.Error("Provider failed", "provider", client.Provider(), "error", err)
			break
		}
	}
	return nil, fmt.Errorf("all fallback providers failed. Last error: %v", lastErr)
}

// IsTransientError 實作 Client 介面
// FallbackClient 的錯誤意味著所有 Child 都已失敗，視為非暫時性
func (f *FallbackClient) IsTransientError(err error) bool {
	return false
}
