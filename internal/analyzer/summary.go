// Package analyzer reduces trades and signals into performance statistics.
package analyzer

import "SignalBacktest/internal/model"

// SummarizeClosed aggregates the closed trades. The average profit is taken
// from the average buy and sell prices, not from the per-trade percentages.
func SummarizeClosed(trades []model.Trade) model.ClosedTradeSummary {
	var sum model.ClosedTradeSummary
	var buyTotal, sellTotal float64
	for _, t := range trades {
		if t.IsOpen() {
			sum.OpenTrades++
			continue
		}
		if sum.ClosedTrades == 0 || t.ProfitPct > sum.MaxProfitPct {
			sum.MaxProfitPct = t.ProfitPct
		}
		if sum.ClosedTrades == 0 || t.ProfitPct < sum.MinProfitPct {
			sum.MinProfitPct = t.ProfitPct
		}
		sum.ClosedTrades++
		buyTotal += t.BuyPrice
		sellTotal += t.SellPrice
		if t.ProfitPct > 0 {
			sum.Wins++
		}
	}

	if sum.ClosedTrades == 0 {
		return model.ClosedTradeSummary{Empty: true, OpenTrades: sum.OpenTrades}
	}

	n := float64(sum.ClosedTrades)
	sum.AvgBuyPrice = buyTotal / n
	sum.AvgSellPrice = sellTotal / n
	sum.AvgProfitPct = (sum.AvgSellPrice - sum.AvgBuyPrice) / sum.AvgBuyPrice * 100
	sum.WinRate = float64(sum.Wins) / n
	return sum
}
