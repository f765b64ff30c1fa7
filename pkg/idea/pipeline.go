package idea

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"muse/pkg/config"
	"muse/pkg/llm"
	"muse/pkg/prompt"
	"muse/pkg/segment"
	"muse/pkg/utils"
	"muse/pkg/vault"
)

// Source abstracts the note vault so the pipeline can be tested without
// a live GitHub repo.
type Source interface {
	PickRandom(ctx context.Context, n int) ([]vault.Note, error)
}

// Publisher abstracts the gateway's broadcast surface.
type Publisher interface {
	Broadcast(message string) error
}

// Outcome summarizes one generation cycle for logging and command replies.
type Outcome struct {
	RunID     string
	Idea      string         // published text, empty when not published
	Seg       segment.Result // segmentation diagnostics
	Published bool
	Skipped   string // human-readable reason when Published is false
}

// Pipeline 負責一次完整的點子產生流程：取素材 → 組提示詞 → 生成 →
// 切分 → 發佈。所有步驟嚴格循序執行
type Pipeline struct {
	source    Source
	client    llm.Client
	publisher Publisher
	history   *History
	// cfg is the live tuning store; each cycle loads one snapshot so a
	// concurrent hot reload never races a cycle in flight.
	cfg *config.Store

	// runMu guarantees cycles never overlap, whether triggered by the
	// ticker or by an on-demand command.
	runMu sync.Mutex
}

// NewPipeline 建立 Pipeline
func NewPipeline(source Source, client llm.Client, publisher Publisher, history *History, cfg *config.Store) *Pipeline {
	return &Pipeline{
		source:    source,
		client:    client,
		publisher: publisher,
		history:   history,
		cfg:       cfg,
	}
}

// History exposes the sliding window for status queries.
func (p *Pipeline) History() *History {
	return p.history
}

// RunOnce executes a single generation cycle. Degraded segmentation is
// logged but still published; the sentinel payload is never published.
func (p *Pipeline) RunOnce(ctx context.Context) (*Outcome, error) {
	runID := utils.GenerateID()
	ctx = context.WithValue(ctx, llm.DebugDirContextKey, runID)
	out := &Outcome{RunID: runID}
	cfg := p.cfg.Load()

	slog.InfoContext(ctx, "Cycle started")

	// 1. 取得素材
	notes, err := p.source.PickRandom(ctx, cfg.NotesCount)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch notes: %w", err)
	}
	slog.InfoContext(ctx, "Notes fetched", "count", len(notes))

	// 2. 組提示詞
	promptText := prompt.Build(notes, p.history.Recent())

	// 3. 生成
	genCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.LLMTimeoutMs)*time.Millisecond)
	defer cancel()

	ch, err := p.client.StreamChat(genCtx, []llm.Message{llm.NewUserMessage(promptText)})
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	collected, err := llm.Collect(genCtx, ch)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}
	if collected.Usage != nil {
		llm.LogUsage(p.client.Provider(), collected.Usage)
	}

	// 4. 切分 reasoning / final
	res := segment.Segment(collected.Text)
	out.Seg = res

	slog.InfoContext(ctx, "Segmented",
		"tier", res.Tier.String(), "repaired", res.Repaired, "degraded", res.Degraded,
		"final_runes", len([]rune(res.Final)))
	if cfg.ShowReasoning {
		if collected.Thinking != "" {
			slog.InfoContext(ctx, "Native reasoning", "text", collected.Thinking)
		}
		if res.Reasoning != "" {
			slog.InfoContext(ctx, "Extracted reasoning", "text", res.Reasoning)
		}
	}

	// 5. 發佈前的長度與品質檢查
	final, skip := applyPolicy(res, cfg)
	if skip != "" {
		out.Skipped = skip
		slog.WarnContext(ctx, "Cycle skipped", "reason", skip)
		return out, nil
	}

	// 6. 發佈並記錄
	if err := p.publisher.Broadcast(final); err != nil {
		return nil, fmt.Errorf("publish failed: %w", err)
	}
	p.history.Add(final)

	out.Idea = final
	out.Published = true
	slog.InfoContext(ctx, "Idea published", "runes", len([]rune(final)))
	return out, nil
}

// applyPolicy validates and bounds the final segment. Returns the text to
// publish, or a non-empty skip reason.
func applyPolicy(res segment.Result, cfg *config.SystemConfig) (string, string) {
	final := res.Final
	if final == "" {
		return "", "empty final segment"
	}
	if final == segment.SentinelFinal {
		return "", "irreparable contamination, sentinel suppressed"
	}

	runes := []rune(final)
	if len(runes) < cfg.IdeaMinRunes {
		return "", fmt.Sprintf("final too short: %d runes", len(runes))
	}
	if cfg.IdeaMaxRunes > 0 && len(runes) > cfg.IdeaMaxRunes {
		final = string(runes[:cfg.IdeaMaxRunes])
	}
	return final, ""
}

// TryRunOnce runs a cycle unless one is already in flight.
func (p *Pipeline) TryRunOnce(ctx context.Context) (*Outcome, error) {
	if !p.runMu.TryLock() {
		return nil, fmt.Errorf("a generation cycle is already running")
	}
	defer p.runMu.Unlock()
	return p.RunOnce(ctx)
}

// Run blocks in a ticker loop until ctx is cancelled. A tick that arrives
// while the previous cycle is still running is dropped, never queued. The
// period follows interval_minutes across hot reloads.
func (p *Pipeline) Run(ctx context.Context) {
	interval := p.interval()
	slog.Info("Pipeline started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Pipeline stopped")
			return
		case <-ticker.C:
			if _, err := p.TryRunOnce(ctx); err != nil {
				slog.Error("Cycle failed", "error", err)
			}
			if next := p.interval(); next != interval {
				slog.Info("Publish interval updated", "interval", next.String())
				interval = next
				ticker.Reset(next)
			}
		}
	}
}

// interval derives the ticker period from the current config snapshot.
func (p *Pipeline) interval() time.Duration {
	minutes := p.cfg.Load().IntervalMinutes
	if minutes <= 0 {
		minutes = 1
	}
	return time.Duration(minutes) * time.Minute
}
