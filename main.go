package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"muse/pkg/api"
	"muse/pkg/channels"
	_ "muse/pkg/channels/autoload" // 自動註冊 Channels
	"muse/pkg/config"
	"muse/pkg/gateway"
	"muse/pkg/idea"
	"muse/pkg/llm"
	_ "muse/pkg/llm/autoload" // 自動註冊 LLM Providers
	"muse/pkg/monitor"
	"muse/pkg/vault"
)

func main() {
	// --- 0. 讀取設定檔 ---
	cfg, sysCfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// 啟動監控環境
	monitor.SetupSlog(sysCfg.LogLevel)
	monitor.PrintBanner()

	// --- 1. LLM 設定 ---
	client, err := llm.NewFromConfig(cfg.LLM, sysCfg)
	if err != nil {
		slog.Error("Failed to init LLM client", "error", err)
		os.Exit(1)
	}
	client.SetDebug(sysCfg.DebugChunks)

	// --- 2. 素材來源與歷史 ---
	source := vault.NewClient(cfg.Vault, sysCfg.VaultTimeoutMs)
	history := idea.NewHistory(sysCfg.RecentIdeas)
	sysStore := config.NewStore(sysCfg)

	// --- 3. Gateway 初始化（使用 Builder 模式）---
	// Pipeline 以 gateway 作為發佈端，因此在 HandlerFactory 中建立
	var pipeline *idea.Pipeline

	gw, err := gateway.NewBuilder().
		WithMonitor(monitor.NewCLIMonitor()).
		WithChannel(channels.LoadFromConfig(cfg.Channels, sysCfg)...).
		WithHandlerFactory(func(g *gateway.Manager) api.CommandProcessor {
			pipeline = idea.NewPipeline(source, client, g, history, sysStore)
			return idea.NewHandler(pipeline)
		}).
		Build()
	if err != nil {
		slog.Error("Failed to build gateway", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- 4. 定時產生點子 ---
	go pipeline.Run(ctx)

	// --- 5. 設定檔熱重載（整個快照原子替換，週期中途不受影響）---
	reloadCh := config.WatchConfig(ctx, "system.json")
	go func() {
		for range reloadCh {
			sysStore.Swap(config.LoadSystemConfig("system.json"))
			slog.Info("System config reloaded")
		}
	}()

	// 監聽系統信號
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 等待信號
	<-sigChan
	slog.Info("Received shutdown signal. Stopping services...")

	// 執行清理
	cancel()
	gw.StopAll()
	slog.Info("Bye!")
}
