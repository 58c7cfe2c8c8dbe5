package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"SignalBacktest/internal/model"
)

var (
	// ErrNoData is returned when the source answers successfully but holds no bars for the range.
	ErrNoData = errors.New("no data for requested range")
	// ErrInvalidSymbol is returned when the source does not know the symbol.
	ErrInvalidSymbol = errors.New("invalid symbol")
	// ErrInvalidRange is returned for an empty or inverted date range.
	ErrInvalidRange = errors.New("invalid date range")
)

// Supported bar intervals.
const (
	IntervalDaily  = "1d"
	IntervalWeekly = "1wk"
)

// Request describes the bars to retrieve: [Start - LookbackDays, End], both inclusive.
type Request struct {
	Symbol       string
	Start        time.Time
	End          time.Time
	LookbackDays int
	Interval     string
}

// ExtendedStart is the first calendar date the fetch must cover.
func (r Request) ExtendedStart() time.Time {
	return model.DateOf(r.Start).AddDate(0, 0, -r.LookbackDays)
}

// Validate checks the request before any network call.
func (r Request) Validate() error {
	if r.Symbol == "" {
		return fmt.Errorf("%w: empty symbol", ErrInvalidSymbol)
	}
	if r.Start.IsZero() || r.End.IsZero() {
		return fmt.Errorf("%w: start and end are required", ErrInvalidRange)
	}
	if model.DateOf(r.End).Before(model.DateOf(r.Start)) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidRange,
			r.End.Format(model.DateLayout), r.Start.Format(model.DateLayout))
	}
	if r.LookbackDays < 0 {
		return fmt.Errorf("%w: negative lookback %d", ErrInvalidRange, r.LookbackDays)
	}
	switch r.Interval {
	case "", IntervalDaily, IntervalWeekly:
	default:
		return fmt.Errorf("%w: unsupported interval %q", ErrInvalidRange, r.Interval)
	}
	return nil
}

func (r Request) interval() string {
	if r.Interval == "" {
		return IntervalDaily
	}
	return r.Interval
}

// Fetcher retrieves an OHLCV series for one instrument.
// Implementations return bars in ascending date order, or one of the sentinel errors.
type Fetcher interface {
	FetchBars(ctx context.Context, req Request) ([]model.OHLCV, error)
	Name() string
}

// clip keeps sorted bars whose calendar date lies in [from, to]. When two bars
// share a date the later one wins.
func clip(bars []model.OHLCV, from, to time.Time) []model.OHLCV {
	out := make([]model.OHLCV, 0, len(bars))
	for _, b := range bars {
		d := model.DateOf(b.Time)
		if d.Before(from) || d.After(to) {
			continue
		}
		if n := len(out); n > 0 && model.DateOf(out[n-1].Time).Equal(d) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}
