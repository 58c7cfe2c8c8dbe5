// Package simulator pairs buy and sell signals into trades.
package simulator

import (
	"math"
	"sort"
	"time"

	"SignalBacktest/internal/model"
)

// Match scans signals in date order, queueing buy dates FIFO. A sell pairs
// with the oldest queued buy only when that buy is strictly earlier; otherwise
// the sell is dropped for the day and the queue is left untouched. A sell
// with an empty queue is a no-op. Buys still queued at the end become open
// trades. Signals must be sorted by date ascending.
func Match(signals []model.Signal) []model.Trade {
	closeOn := make(map[time.Time]float64, len(signals))
	var queue []time.Time
	var trades []model.Trade

	for _, s := range signals {
		closeOn[s.Date] = s.Close
		if s.Buy {
			queue = append(queue, s.Date)
		}
		if !s.Sell || len(queue) == 0 {
			continue
		}
		oldest := queue[0]
		if !oldest.Before(s.Date) {
			continue
		}
		queue = queue[1:]
		trades = append(trades, closedTrade(oldest, closeOn[oldest], s.Date, s.Close))
	}

	for _, d := range queue {
		trades = append(trades, model.Trade{BuyDate: d, BuyPrice: closeOn[d]})
	}

	sort.SliceStable(trades, func(i, j int) bool { return trades[i].BuyDate.Before(trades[j].BuyDate) })
	return trades
}

func closedTrade(buyDate time.Time, buyPrice float64, sellDate time.Time, sellPrice float64) model.Trade {
	return model.Trade{
		BuyDate:   buyDate,
		BuyPrice:  buyPrice,
		SellDate:  sellDate,
		SellPrice: sellPrice,
		ProfitPct: round2((sellPrice - buyPrice) / buyPrice * 100),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
