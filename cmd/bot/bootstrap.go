package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"trigger-trading-bot/internal/executor"
	"trigger-trading-bot/internal/executor/execobs"
	"trigger-trading-bot/internal/interfaces"
	"trigger-trading-bot/internal/logger"
	"trigger-trading-bot/internal/monitor"
	"trigger-trading-bot/internal/monitor/monitorobs"
	"trigger-trading-bot/internal/orderstore"
	"trigger-trading-bot/internal/quote"
	"trigger-trading-bot/internal/store"
	"trigger-trading-bot/internal/trace"
	"trigger-trading-bot/internal/triggerlog"
	"trigger-trading-bot/internal/types"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// initializeSystem initializes env, logger and tracer
func initializeSystem() error {
	// Load environment variables
	_ = godotenv.Load()

	// Initialize logger
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	// Initialize tracer
	if err := trace.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize tracer: %v\n", err)
	}

	return nil
}

// loadConfig loads and returns the configuration
func loadConfig(ctx context.Context) (*store.Config, error) {
	cfg, err := store.LoadConfig("config.yaml")
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load config", err)
		return nil, err
	}
	return cfg, nil
}

// compressOldLogs compresses old trigger journal files if retention is configured
func compressOldLogs(ctx context.Context) {
	if v := os.Getenv("TRIGGER_LOG_RETENTION_DAYS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if err := triggerlog.CompressOlder(n); err != nil {
			logger.Warn(ctx, "Failed to compress old logs", "error", err)
		}
	}
}

// initializeStore picks the order store from config
func initializeStore(ctx context.Context, cfg *store.Config) (interfaces.OrderStore, func(), error) {
	if cfg.Store.Driver == "postgres" {
		dsn := os.Getenv(cfg.Store.DSNEnv)
		if dsn == "" {
			return nil, nil, fmt.Errorf("store.driver is postgres but %s is not set", cfg.Store.DSNEnv)
		}
		pg, err := orderstore.NewPostgresStore(dsn)
		if err != nil {
			return nil, nil, err
		}
		logger.Info(ctx, "Using Postgres order store")
		return pg, func() { _ = pg.Close() }, nil
	}

	logger.Info(ctx, "Using in-memory order store")
	return orderstore.NewMemoryStore(), func() {}, nil
}

// initializeFeed builds the quote feed over the NEPSE market-summary client
func initializeFeed(ctx context.Context, cfg *store.Config) interfaces.QuoteFeed {
	var opts []quote.NepseOption
	if cfg.Feed.HTMLFallback {
		opts = append(opts, quote.WithHTMLFallback("/todays-price"))
		logger.Info(ctx, "HTML fallback parser enabled")
	}

	source := quote.NewNepseClient(
		cfg.Feed.BaseURL,
		time.Duration(cfg.Feed.TimeoutSeconds)*time.Second,
		opts...,
	)

	return quote.NewFeed(source, quote.NewCache(), quote.FeedConfig{
		MinRefresh:  time.Duration(cfg.Feed.MinRefreshSeconds) * time.Second,
		MaxAttempts: cfg.Feed.MaxAttempts,
		RetryDelay:  time.Duration(cfg.Feed.RetryDelaySeconds) * time.Second,
	})
}

// initializeExecutors builds the executor policy with observability wrappers
func initializeExecutors(ctx context.Context, cfg *store.Config) *monitor.ExecutorPolicy {
	creds := executor.NewEnvCredentialProvider()

	var apiExec, autoExec interfaces.OrderExecutor
	if cfg.Executor.API.BaseURL != "" {
		apiExec = execobs.Wrap(executor.NewAPIExecutor(
			cfg.Executor.API.BaseURL,
			time.Duration(cfg.Executor.API.TimeoutSeconds)*time.Second,
			creds,
		))
	}
	if cfg.Executor.Automation.Script != "" {
		autoExec = execobs.Wrap(executor.NewAutomationExecutor(
			cfg.Executor.Automation.Command,
			cfg.Executor.Automation.Script,
			time.Duration(cfg.Executor.Automation.TimeoutSeconds)*time.Second,
			creds,
		))
	}

	if apiExec == nil && autoExec == nil && cfg.Mode != "DRY_RUN" {
		logger.Warn(ctx, "No executor configured - triggered orders will fail execution")
	}

	return monitor.NewExecutorPolicy(apiExec, autoExec)
}

// initializeMonitor wires the monitor with the journal hook and observability
func initializeMonitor(cfg *store.Config, st interfaces.OrderStore, feed interfaces.QuoteFeed, bus interfaces.Publisher) interfaces.Monitor {
	m := monitor.NewTriggerMonitor(st, feed, bus, initializeExecutors(context.Background(), cfg), cfg.PollInterval(),
		monitor.WithDryRun(cfg.Mode == "DRY_RUN"),
		monitor.WithRecordHook(journalRecord),
	)
	return monitorobs.Wrap(m)
}

// journalRecord appends trigger and execution events to the daily journal
func journalRecord(ev monitor.RecordEvent) {
	entry := triggerlog.Entry{
		Event:         ev.Kind,
		OrderID:       ev.Order.ID,
		Symbol:        ev.Order.Symbol,
		Side:          string(ev.Order.Side),
		Qty:           ev.Order.Quantity,
		TargetPrice:   ev.Order.TargetPrice,
		FiringPrice:   ev.FiringPrice,
		BrokerOrderID: ev.Order.BrokerOrderID,
		Detail:        ev.Detail,
		Extra: map[string]any{
			"base_price":      ev.Order.BasePrice,
			"trigger_percent": ev.Order.TriggerPercent,
		},
	}
	if err := triggerlog.Append(entry); err != nil {
		logger.Warn(context.Background(), "Failed to journal event", "error", err, "order_id", ev.Order.ID)
	}
}

// seedOrder is the on-disk shape of a trigger order in orders.yaml
type seedOrder struct {
	Symbol          string  `yaml:"symbol"`
	Quantity        int     `yaml:"quantity"`
	Side            string  `yaml:"side"`
	TriggerPercent  float64 `yaml:"trigger_percent"`
	ExecutionMethod string  `yaml:"execution_method"`
}

// seedOrders loads trigger orders from orders.yaml into the store. Missing
// file is fine: orders can also arrive through a shared Postgres store.
func seedOrders(ctx context.Context, st interfaces.OrderStore, path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var seeds []seedOrder
	if err := yaml.Unmarshal(b, &seeds); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for _, s := range seeds {
		o := types.TriggerOrder{
			Symbol:          s.Symbol,
			Quantity:        s.Quantity,
			Side:            types.Side(s.Side),
			TriggerPercent:  s.TriggerPercent,
			ExecutionMethod: types.ExecutionMethod(s.ExecutionMethod),
		}
		created, err := st.CreateOrder(ctx, o)
		if err != nil {
			return fmt.Errorf("failed to seed order for %s: %w", s.Symbol, err)
		}
		logger.Info(ctx, "Seeded trigger order",
			"order_id", created.ID,
			"symbol", created.Symbol,
			"side", created.Side,
			"quantity", created.Quantity,
			"trigger_percent", created.TriggerPercent)
	}
	return nil
}
