package analyzer

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBacktest/internal/model"
)

func d(i int) time.Time { return time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i) }

func closed(buy, sell, pct float64) model.Trade {
	return model.Trade{BuyDate: d(0), BuyPrice: buy, SellDate: d(1), SellPrice: sell, ProfitPct: pct}
}

func series(prices []float64, buys ...int) []model.Signal {
	out := make([]model.Signal, len(prices))
	for i, p := range prices {
		out[i] = model.Signal{Date: d(i), Close: p}
	}
	for _, b := range buys {
		out[b].Buy = true
	}
	return out
}

// ────────────────────────────────────────────────────────────
// Closed-trade summary
// ────────────────────────────────────────────────────────────

func TestSummarizeClosed_Empty(t *testing.T) {
	s := SummarizeClosed(nil)
	assert.True(t, s.Empty)
	assert.Zero(t, s.WinRate)
	assert.False(t, math.IsNaN(s.AvgProfitPct))

	s = SummarizeClosed([]model.Trade{{BuyDate: d(0), BuyPrice: 10}})
	assert.True(t, s.Empty)
	assert.Equal(t, 1, s.OpenTrades)
}

func TestSummarizeClosed_SingleTrade(t *testing.T) {
	win := SummarizeClosed([]model.Trade{closed(10, 20, 100)})
	assert.False(t, win.Empty)
	assert.Equal(t, 1.0, win.WinRate)

	loss := SummarizeClosed([]model.Trade{closed(20, 10, -50)})
	assert.Equal(t, 0.0, loss.WinRate)
}

func TestSummarizeClosed_PortfolioAverage(t *testing.T) {
	trades := []model.Trade{
		closed(10, 20, 100),
		closed(30, 27, -10),
		{BuyDate: d(5), BuyPrice: 99},
	}
	s := SummarizeClosed(trades)
	require.False(t, s.Empty)
	assert.Equal(t, 2, s.ClosedTrades)
	assert.Equal(t, 1, s.OpenTrades)
	assert.Equal(t, 20.0, s.AvgBuyPrice)
	assert.Equal(t, 23.5, s.AvgSellPrice)
	assert.InDelta(t, 17.5, s.AvgProfitPct, 1e-9, "from averages, not mean of 100 and -10")
	assert.Equal(t, 0.5, s.WinRate)
	assert.Equal(t, 100.0, s.MaxProfitPct)
	assert.Equal(t, -10.0, s.MinProfitPct)
}

func TestSummarizeClosed_AllLosses(t *testing.T) {
	s := SummarizeClosed([]model.Trade{closed(10, 9, -10), closed(10, 8, -20)})
	assert.Equal(t, -10.0, s.MaxProfitPct)
	assert.Equal(t, -20.0, s.MinProfitPct)
	assert.Zero(t, s.Wins)
}

// ────────────────────────────────────────────────────────────
// Post-buy analysis
// ────────────────────────────────────────────────────────────

func TestAnalyzePostBuy_SingleWindow(t *testing.T) {
	// buy at 100, then 110, 99, 121 over a 3-day window
	rep := AnalyzePostBuy(series([]float64{100, 110, 99, 121}, 0), 3)
	require.False(t, rep.Empty)
	require.Len(t, rep.Trades, 1)

	tr := rep.Trades[0]
	assert.Equal(t, d(3), tr.EndDate)
	assert.Equal(t, 121.0, tr.EndPrice)
	assert.Equal(t, 3, tr.HoldingDays)
	assert.InDelta(t, 0.21, tr.HPR, 1e-12)
	assert.InDelta(t, math.Pow(1.21, 84)-1, tr.AnnualizedReturn, 1e-6*math.Pow(1.21, 84))
	assert.InDelta(t, 0.1, tr.MaxDrawdown, 1e-12)
	assert.Equal(t, 1.0, rep.WinRate)
	assert.True(t, math.IsInf(rep.RiskReward, 1))
	assert.False(t, rep.HasLosses)
	assert.InDelta(t, 0.21, rep.Expectancy, 1e-12)
}

func TestAnalyzePostBuy_SkipsInsufficientData(t *testing.T) {
	prices := []float64{100, 101, 102, 103, 104}
	rep := AnalyzePostBuy(series(prices, 0, 1, 2, 4), 3)
	assert.Len(t, rep.Trades, 2, "buys at 0 and 1 have 3 days after them")
	assert.Equal(t, 2, rep.Skipped)
}

func TestAnalyzePostBuy_WinLossAggregates(t *testing.T) {
	// window 1: day0→day1 +10%, day2→day3 -20%, day4→day5 +30%
	prices := []float64{100, 110, 100, 80, 100, 130}
	rep := AnalyzePostBuy(series(prices, 0, 2, 4), 1)
	require.Len(t, rep.Trades, 3)

	assert.Equal(t, 2, rep.Wins)
	assert.Equal(t, 1, rep.Losses)
	assert.InDelta(t, 2.0/3, rep.WinRate, 1e-12)
	assert.InDelta(t, 0.2, rep.AvgHPRWin, 1e-12)
	assert.InDelta(t, -0.2, rep.AvgHPRLoss, 1e-12)
	assert.InDelta(t, 1.0, rep.RiskReward, 1e-12)
	assert.InDelta(t, 2.0/3*0.2+1.0/3*-0.2, rep.Expectancy, 1e-12)
	assert.Zero(t, rep.WorstDrawdown, "a one-day window has no drawdown")
}

func TestAnalyzePostBuy_NoBuys(t *testing.T) {
	rep := AnalyzePostBuy(series([]float64{1, 2, 3}), 1)
	assert.True(t, rep.Empty)
	assert.Zero(t, rep.Skipped)

	rep = AnalyzePostBuy(series([]float64{1, 2, 3}, 2), 5)
	assert.True(t, rep.Empty)
	assert.Equal(t, 1, rep.Skipped)
}

func TestMaxDrawdown_RisingSeries(t *testing.T) {
	assert.Zero(t, maxDrawdown(series([]float64{1, 2, 3, 4})))
}
