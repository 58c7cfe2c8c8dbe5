package model

import "time"

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// DateOf truncates t to its calendar date, expressed as UTC midnight.
// Bars are keyed by trading date, not by the exchange timestamp.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateLayout is the layout used for dates in config, files and reports.
const DateLayout = "2006-01-02"
