package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/metrics"
	"trigger-trading-bot/internal/notify"
	"trigger-trading-bot/internal/summary"
	"trigger-trading-bot/internal/trace"
)

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func main() {
	must(initializeSystem())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := loadConfig(ctx)
	must(err)

	compressOldLogs(ctx)

	st, closeStore, err := initializeStore(ctx, cfg)
	must(err)
	defer closeStore()

	must(seedOrders(ctx, st, "orders.yaml"))

	bus := notify.NewBus()
	feed := initializeFeed(ctx, cfg)
	mon := initializeMonitor(cfg, st, feed, bus)

	ws := notify.NewWSServer(bus, cfg.WS.SendBufferLen)
	if cfg.WS.ListenAddr != "" {
		ws.Start(cfg.WS.ListenAddr)
		logger.Info(ctx, "Websocket server listening", "addr", cfg.WS.ListenAddr)
	}

	if cfg.Metrics.Enabled {
		metrics.StartMetricsServer(cfg.Metrics.ListenAddr)
		logger.Info(ctx, "Metrics server listening", "addr", cfg.Metrics.ListenAddr)
	}

	if cfg.Mode == "DRY_RUN" {
		logger.Warn(ctx, "Running in DRY_RUN mode - executions will be simulated")
	}

	must(mon.Start(ctx))
	logger.Info(ctx, "Bot started", "poll_seconds", cfg.PollSeconds)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	<-sigc

	logger.Info(ctx, "Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	mon.Stop(shutdownCtx)
	_ = ws.Shutdown(shutdownCtx)

	if p, err := summary.SummarizeDay(time.Now()); err == nil && p != "" {
		logger.Info(ctx, "Daily summary written", "path", p)
	}

	_ = trace.Shutdown(shutdownCtx)
	_ = logger.Shutdown(shutdownCtx)
}
