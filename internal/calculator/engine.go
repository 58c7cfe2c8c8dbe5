// Package calculator computes technical indicators over a timeseries.Store.
//
// Every windowed indicator runs in two phases: compute over the
// lookback-extended bars, then align to the reporting window (see
// alignToReporting). Pct_Change works on the reporting closes alone.
package calculator

import (
	"fmt"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// Params selects the indicator families and their windows.
// An empty window list disables that family.
type Params struct {
	SMAWindows []int      `yaml:"sma_windows"`
	EMAWindows []int      `yaml:"ema_windows"`
	RSIWindows []int      `yaml:"rsi_windows"`
	MACD       MACDParams `yaml:"macd"`
	KDJ        KDJParams  `yaml:"kdj"`
	BOLL       BOLLParams `yaml:"boll"`
}

// DefaultParams returns the stock indicator set.
func DefaultParams() Params {
	return Params{
		SMAWindows: []int{5, 10, 20, 50, 100, 200},
		EMAWindows: []int{12, 26},
		RSIWindows: []int{7, 14},
		MACD:       MACDParams{Fast: 12, Slow: 26, Signal: 9},
		KDJ:        KDJParams{N: 9, M: 3},
		BOLL:       BOLLParams{Window: 20, K: 2},
	}
}

// Engine computes the merged indicator table for a store.
type Engine struct {
	Params Params
}

// NewEngine creates an Engine with the given parameters.
func NewEngine(p Params) *Engine {
	return &Engine{Params: p}
}

// Compute runs every configured indicator and outer-joins the results with
// the reporting-window bars.
func (e *Engine) Compute(s *timeseries.Store) (*model.IndicatorTable, error) {
	p := e.Params
	steps := []struct {
		enabled bool
		run     func() (*model.IndicatorTable, error)
	}{
		{true, func() (*model.IndicatorTable, error) { return BarsTable(s) }},
		{true, func() (*model.IndicatorTable, error) { return PctChange(s) }},
		{len(p.SMAWindows) > 0, func() (*model.IndicatorTable, error) { return SMA(s, p.SMAWindows) }},
		{len(p.EMAWindows) > 0, func() (*model.IndicatorTable, error) { return EMA(s, p.EMAWindows) }},
		{len(p.RSIWindows) > 0, func() (*model.IndicatorTable, error) { return RSI(s, p.RSIWindows) }},
		{p.MACD != (MACDParams{}), func() (*model.IndicatorTable, error) { return MACD(s, p.MACD) }},
		{p.KDJ != (KDJParams{}), func() (*model.IndicatorTable, error) { return KDJ(s, p.KDJ) }},
		{p.BOLL != (BOLLParams{}), func() (*model.IndicatorTable, error) { return BOLL(s, p.BOLL) }},
	}

	tables := make([]*model.IndicatorTable, 0, len(steps))
	for _, st := range steps {
		if !st.enabled {
			continue
		}
		t, err := st.run()
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	merged, err := model.Merge(tables...)
	if err != nil {
		return nil, fmt.Errorf("merge indicators: %w", err)
	}
	return merged, nil
}

// BarsTable exposes the reporting-window OHLCV as Open/High/Low/Close/Volume columns.
func BarsTable(s *timeseries.Store) (*model.IndicatorTable, error) {
	bars := s.Reporting()
	o, h, l, c, v := make([]float64, len(bars)), make([]float64, len(bars)), make([]float64, len(bars)), make([]float64, len(bars)), make([]float64, len(bars))
	for i, b := range bars {
		o[i], h[i], l[i], c[i], v[i] = b.Open, b.High, b.Low, b.Close, b.Volume
	}
	t := model.NewIndicatorTable(s.ReportingDates())
	for _, col := range []column{{"Open", o}, {"High", h}, {"Low", l}, {"Close", c}, {"Volume", v}} {
		if err := t.AddColumn(col.name, col.values); err != nil {
			return nil, fmt.Errorf("bars: %w", err)
		}
	}
	return t, nil
}
