package model

import "time"

// Signal is the per-day strategy output.
type Signal struct {
	Date  time.Time
	Close float64
	Buy   bool
	Sell  bool
}

// Trade pairs a buy with an optional sell. Open trades have a zero SellDate.
type Trade struct {
	BuyDate   time.Time
	BuyPrice  float64
	SellDate  time.Time
	SellPrice float64
	ProfitPct float64 // rounded to 2 decimals, meaningful only when closed
}

// IsOpen reports whether the trade has no matching sell.
func (t Trade) IsOpen() bool { return t.SellDate.IsZero() }
