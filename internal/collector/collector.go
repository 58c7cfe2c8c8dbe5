// Package collector retrieves OHLCV history and loads it into a timeseries.Store.
package collector

import (
	"context"
	"fmt"
	"log"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// Collector fetches the bars of one request and builds the Store over them.
type Collector struct {
	Fetcher Fetcher
	Request Request
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, req Request) *Collector {
	return &Collector{Fetcher: fetcher, Request: req}
}

// Collect fetches [start - lookback, end] and returns the Store whose
// reporting window is [start, end].
func (c *Collector) Collect(ctx context.Context) (*timeseries.Store, error) {
	req := c.Request
	if err := req.Validate(); err != nil {
		return nil, err
	}

	bars, err := c.Fetcher.FetchBars(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", req.Symbol, c.Fetcher.Name(), err)
	}

	store, err := timeseries.New(bars, req.Start, req.End)
	if err != nil {
		return nil, fmt.Errorf("build series for %s: %w", req.Symbol, err)
	}
	log.Printf("[INFO] collected %d bars for %s from %s (%d warm-up, %d reporting, %s to %s)",
		len(store.Extended()), req.Symbol, c.Fetcher.Name(), store.WarmupBars(), len(store.Reporting()),
		store.Start().Format(model.DateLayout), store.End().Format(model.DateLayout))
	return store, nil
}
