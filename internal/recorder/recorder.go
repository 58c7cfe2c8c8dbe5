package recorder

import (
	"time"

	"SignalBacktest/internal/model"
)

// Run statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// RunSnapshot holds everything one backtest run produced.
type RunSnapshot struct {
	ID        int64
	StartedAt time.Time
	Duration  time.Duration
	Status    string
	Error     string

	Symbol string
	Source string
	Start  time.Time
	End    time.Time

	Summary model.ClosedTradeSummary
	PostBuy model.PostBuyReport
	Trades  []model.Trade

	// PostBuyCount is len(PostBuy.Trades) when the rows are not loaded.
	PostBuyCount int
}

// Recorder persists run history for later inspection.
type Recorder interface {
	RecordRun(snap *RunSnapshot) (int64, error)
	// LastRun returns the most recent run without its rows, or nil when none exists.
	LastRun() (*RunSnapshot, error)
	Close() error
}
