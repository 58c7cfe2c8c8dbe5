package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SignalBacktest/internal/collector"
	"SignalBacktest/internal/config"
	"SignalBacktest/internal/notifier"
	"SignalBacktest/internal/observability"
	"SignalBacktest/internal/pipeline"
	"SignalBacktest/internal/recorder"
	"SignalBacktest/internal/scheduler"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	flag.StringVar(&cfgPath, "config", cfgPath, "Path to YAML config")
	symbol := flag.String("symbol", "", "Override symbol")
	start := flag.String("start", "", "Override start date (YYYY-MM-DD)")
	end := flag.String("end", "", "Override end date (YYYY-MM-DD)")
	provider := flag.String("provider", "", "Override data provider: yahoo, vstrader, mock")
	format := flag.String("format", "", "Override output format: csv, json, parquet")
	outDir := flag.String("out", "", "Override output directory")
	cronSpec := flag.String("cron", "", "Run on this six-field cron schedule instead of once")
	flag.Parse()

	log.Println("[INFO] SignalBacktest starting...")

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	applyFlag(&cfg.Symbol, *symbol)
	applyFlag(&cfg.StartDate, *start)
	applyFlag(&cfg.EndDate, *end)
	applyFlag(&cfg.DataSource.Provider, *provider)
	applyFlag(&cfg.Output.Format, *format)
	applyFlag(&cfg.Output.Dir, *outDir)
	applyFlag(&cfg.Schedule.Cron, *cronSpec)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}
	log.Printf("[INFO] %s", cfg)

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Provider {
	case config.ProviderVsTrader:
		fetcher = collector.NewVsTraderFetcher(cfg.DataSource.BaseURL, cfg.DataSource.APIKey, cfg.Proxy)
	case config.ProviderMock:
		fetcher = collector.NewMockFetcher(cfg.DataSource.MockPrice)
	default:
		fetcher = collector.NewYahooFetcher(cfg.Proxy)
	}
	log.Printf("[INFO] data source: %s", fetcher.Name())

	// Init recorder
	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Printf("[WARN] init sqlite recorder failed, using noop: %v", err)
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
			defer sr.Close()
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	metrics := observability.NewMetrics(nil)
	runner, err := pipeline.NewRunner(cfg, fetcher, rec, metrics)
	if err != nil {
		log.Fatalf("[FATAL] init pipeline: %v", err)
	}
	runner.Console = os.Stdout

	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		runner.Notifier = tn
	}

	// Context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if cfg.Schedule.Cron == "" {
		if _, err := runner.Run(ctx); err != nil {
			// log.Fatalf skips deferred calls
			rec.Close()
			log.Fatalf("[FATAL] backtest: %v", err)
		}
		return
	}

	health := observability.NewHealth()
	runner.Health = health
	srv := observability.NewServer(cfg.Metrics.ListenAddr, metrics, health)
	srv.Start()
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		srv.Shutdown(shutdownCtx)
	}()

	sched := scheduler.NewScheduler(ctx, runner, rec)
	if err := sched.Register(cfg.Schedule.Cron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, executing backtest now")
		go sched.RunNow()
	}

	log.Println("[INFO] SignalBacktest is running. Press Ctrl+C to stop.")
	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
}

func applyFlag(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
