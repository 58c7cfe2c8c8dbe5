package model

import "time"

// ClosedTradeSummary aggregates closed trades. When Empty is true every
// other field except OpenTrades is zero and must not be reported.
type ClosedTradeSummary struct {
	Empty        bool
	ClosedTrades int
	OpenTrades   int
	Wins         int
	AvgBuyPrice  float64
	AvgSellPrice float64
	AvgProfitPct float64 // (AvgSellPrice-AvgBuyPrice)/AvgBuyPrice*100
	WinRate      float64 // fraction in [0,1]
	MaxProfitPct float64
	MinProfitPct float64
}

// PostBuyTrade is the fixed-horizon outcome of one buy signal.
type PostBuyTrade struct {
	BuyDate          time.Time
	BuyPrice         float64
	EndDate          time.Time
	EndPrice         float64
	HoldingDays      int
	HPR              float64
	AnnualizedReturn float64
	MaxDrawdown      float64
}

// PostBuyReport aggregates PostBuyTrade rows over one holding window.
type PostBuyReport struct {
	Window         int
	Trades         []PostBuyTrade
	Skipped        int // buys without Window days of data after them
	Empty          bool
	Wins           int
	Losses         int
	WinRate        float64
	AvgHPR         float64
	AvgHPRWin      float64
	AvgHPRLoss     float64
	HasLosses      bool
	RiskReward     float64 // |AvgHPRWin/AvgHPRLoss|, +Inf without losses
	Expectancy     float64
	AvgAnnualized  float64
	AvgMaxDrawdown float64
	WorstDrawdown  float64
}
