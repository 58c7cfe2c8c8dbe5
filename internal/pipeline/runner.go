// Package pipeline runs one backtest end to end: collect, compute indicators,
// generate signals, match trades, analyse, then export, record and report.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"SignalBacktest/internal/analyzer"
	"SignalBacktest/internal/calculator"
	"SignalBacktest/internal/collector"
	"SignalBacktest/internal/config"
	"SignalBacktest/internal/exporter"
	"SignalBacktest/internal/model"
	"SignalBacktest/internal/notifier"
	"SignalBacktest/internal/observability"
	"SignalBacktest/internal/recorder"
	"SignalBacktest/internal/simulator"
	"SignalBacktest/internal/strategy"
	"SignalBacktest/internal/timeseries"
)

// Notifier delivers the formatted run report.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Result carries every intermediate product of a successful run.
type Result struct {
	Store    *timeseries.Store
	Table    *model.IndicatorTable
	Signals  []model.Signal
	Trades   []model.Trade
	Summary  model.ClosedTradeSummary
	PostBuy  model.PostBuyReport
	Paths    exporter.Paths
	Snapshot *recorder.RunSnapshot
}

// Runner executes the pipeline. Runs are serialised.
type Runner struct {
	Config   *config.Config
	Fetcher  collector.Fetcher
	Engine   *calculator.Engine
	Rules    *strategy.Rules
	Saver    exporter.Saver // nil disables file export
	Recorder recorder.Recorder
	Notifier Notifier // nil disables push reports
	Metrics  *observability.Metrics
	Health   *observability.Health
	Console  io.Writer // nil disables the console report
	Now      func() time.Time

	mu   sync.Mutex
	last *recorder.RunSnapshot
}

// NewRunner wires a Runner from configuration. The fetcher is wrapped with
// the configured timeout and retry policy.
func NewRunner(cfg *config.Config, fetcher collector.Fetcher, rec recorder.Recorder, metrics *observability.Metrics) (*Runner, error) {
	rules, err := strategy.BuildRules(cfg.Strategy.Buy, cfg.Strategy.Sell)
	if err != nil {
		return nil, fmt.Errorf("build rules: %w", err)
	}
	saver := exporter.NewSaver(cfg.Output.Format)
	if saver == nil {
		return nil, fmt.Errorf("output format %q not supported", cfg.Output.Format)
	}
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}

	rf := collector.NewRetryFetcher(fetcher, cfg.Fetch.Timeout, cfg.Fetch.Retries, cfg.Fetch.Backoff)
	rf.OnAttempt = metrics.ObserveFetch

	return &Runner{
		Config:   cfg,
		Fetcher:  rf,
		Engine:   calculator.NewEngine(cfg.Indicators),
		Rules:    rules,
		Saver:    saver,
		Recorder: rec,
		Metrics:  metrics,
		Now:      time.Now,
	}, nil
}

// Run executes one full backtest. Any collector, engine or signal error
// aborts the run; the failure is still recorded and reported.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	started := r.Now()
	snap := &recorder.RunSnapshot{
		StartedAt: started,
		Symbol:    r.Config.Symbol,
		Source:    r.Fetcher.Name(),
	}

	res, err := r.run(ctx, snap)
	snap.Duration = r.Now().Sub(started)
	bars := 0
	if res != nil && res.Store != nil {
		bars = len(res.Store.Extended())
	}

	if err != nil {
		snap.Status, snap.Error = recorder.StatusError, err.Error()
		log.Printf("[ERROR] backtest %s failed: %v", r.Config.Symbol, err)
	} else {
		snap.Status = recorder.StatusOK
		log.Printf("[INFO] backtest %s done in %v: %d closed, %d open trades, %d post-buy windows",
			r.Config.Symbol, snap.Duration.Round(time.Millisecond),
			snap.Summary.ClosedTrades, snap.Summary.OpenTrades, len(snap.PostBuy.Trades))
	}

	r.Metrics.ObserveRun(snap.Status, snap.Duration, bars, snap.Summary.ClosedTrades, snap.Summary.OpenTrades)
	if r.Health != nil {
		r.Health.SetRun(r.Now(), err)
	}
	if _, recErr := r.Recorder.RecordRun(snap); recErr != nil {
		log.Printf("[WARN] record run: %v", recErr)
	}
	r.last = snap
	r.report(ctx, snap)

	if err != nil {
		return nil, err
	}
	res.Snapshot = snap
	return res, nil
}

func (r *Runner) run(ctx context.Context, snap *recorder.RunSnapshot) (*Result, error) {
	req, err := r.Config.Request(snap.StartedAt)
	if err != nil {
		return nil, err
	}
	snap.Start, snap.End = model.DateOf(req.Start), model.DateOf(req.End)

	res := &Result{}
	res.Store, err = collector.NewCollector(r.Fetcher, req).Collect(ctx)
	if err != nil {
		return nil, err
	}

	res.Table, err = r.Engine.Compute(res.Store)
	if err != nil {
		return res, fmt.Errorf("compute indicators: %w", err)
	}

	res.Signals, err = strategy.Generate(res.Table, r.Rules)
	if err != nil {
		return res, fmt.Errorf("generate signals: %w", err)
	}

	res.Trades = simulator.Match(res.Signals)
	res.Summary = analyzer.SummarizeClosed(res.Trades)
	res.PostBuy = analyzer.AnalyzePostBuy(res.Signals, r.Config.Analysis.HoldingWindow)
	snap.Trades, snap.Summary, snap.PostBuy = res.Trades, res.Summary, res.PostBuy
	snap.PostBuyCount = len(res.PostBuy.Trades)

	if r.Saver != nil {
		res.Paths, err = exporter.Export(r.Saver, r.Config.Output.Dir, r.Config.Symbol, res.Table, res.Trades, res.PostBuy)
		if err != nil {
			return res, fmt.Errorf("export: %w", err)
		}
		log.Printf("[INFO] wrote %s, %s, %s", res.Paths.Indicators, res.Paths.Trades, res.Paths.PostBuy)
	}
	return res, nil
}

func (r *Runner) report(ctx context.Context, snap *recorder.RunSnapshot) {
	text := notifier.FormatRunReport(snap)
	if r.Console != nil {
		fmt.Fprintln(r.Console, notifier.PlainText(text))
	}
	if r.Notifier != nil {
		if err := r.Notifier.SendWithRetry(ctx, text, 3); err != nil {
			log.Printf("[ERROR] send report: %v", err)
		}
	}
}

// Last returns the snapshot of the most recent run in this process, or nil.
func (r *Runner) Last() *recorder.RunSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}
