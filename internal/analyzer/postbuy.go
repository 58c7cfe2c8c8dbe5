package analyzer

import (
	"math"

	"SignalBacktest/internal/model"
)

// TradingDaysPerYear annualizes holding-period returns.
const TradingDaysPerYear = 252

// DefaultHoldingWindow is the post-buy horizon in trading days.
const DefaultHoldingWindow = 20

// AnalyzePostBuy evaluates every buy-flagged day over the window trading days
// that follow it. A buy is analysed only when the buy day and window further
// rows exist; the rest are counted in Skipped.
func AnalyzePostBuy(signals []model.Signal, window int) model.PostBuyReport {
	rep := model.PostBuyReport{Window: window}
	if window <= 0 {
		rep.Empty = true
		return rep
	}

	for i, s := range signals {
		if !s.Buy {
			continue
		}
		if len(signals)-i < window+1 {
			rep.Skipped++
			continue
		}
		rep.Trades = append(rep.Trades, holdFor(signals[i:i+window+1]))
	}

	aggregate(&rep)
	return rep
}

// holdFor evaluates a buy at span[0] held through span[len(span)-1].
func holdFor(span []model.Signal) model.PostBuyTrade {
	buy := span[0]
	held := span[1:]
	end := held[len(held)-1]

	hpr := (end.Close - buy.Close) / buy.Close
	return model.PostBuyTrade{
		BuyDate:          buy.Date,
		BuyPrice:         buy.Close,
		EndDate:          end.Date,
		EndPrice:         end.Close,
		HoldingDays:      len(held),
		HPR:              hpr,
		AnnualizedReturn: math.Pow(1+hpr, float64(TradingDaysPerYear)/float64(len(held))) - 1,
		MaxDrawdown:      maxDrawdown(held),
	}
}

// maxDrawdown is the largest fall from a running peak close, as a fraction of that peak.
func maxDrawdown(held []model.Signal) float64 {
	peak := math.Inf(-1)
	mdd := 0.0
	for _, s := range held {
		if s.Close > peak {
			peak = s.Close
		}
		if dd := (peak - s.Close) / peak; dd > mdd {
			mdd = dd
		}
	}
	return mdd
}

func aggregate(rep *model.PostBuyReport) {
	n := len(rep.Trades)
	if n == 0 {
		rep.Empty = true
		return
	}

	var hprSum, winSum, lossSum, annSum, mddSum float64
	for _, t := range rep.Trades {
		hprSum += t.HPR
		annSum += t.AnnualizedReturn
		mddSum += t.MaxDrawdown
		if t.MaxDrawdown > rep.WorstDrawdown {
			rep.WorstDrawdown = t.MaxDrawdown
		}
		if t.HPR > 0 {
			rep.Wins++
			winSum += t.HPR
		} else {
			rep.Losses++
			lossSum += t.HPR
		}
	}

	rep.WinRate = float64(rep.Wins) / float64(n)
	rep.AvgHPR = hprSum / float64(n)
	rep.AvgAnnualized = annSum / float64(n)
	rep.AvgMaxDrawdown = mddSum / float64(n)
	if rep.Wins > 0 {
		rep.AvgHPRWin = winSum / float64(rep.Wins)
	}
	rep.HasLosses = rep.Losses > 0
	if rep.HasLosses {
		rep.AvgHPRLoss = lossSum / float64(rep.Losses)
	}

	switch {
	case !rep.HasLosses:
		rep.RiskReward = math.Inf(1)
	case rep.AvgHPRLoss == 0:
		// every losing trade is flat
		rep.RiskReward = math.Inf(1)
	default:
		rep.RiskReward = math.Abs(rep.AvgHPRWin / rep.AvgHPRLoss)
	}
	rep.Expectancy = rep.WinRate*rep.AvgHPRWin + (1-rep.WinRate)*rep.AvgHPRLoss
}
