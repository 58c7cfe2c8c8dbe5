// Package timeseries holds the fetched bars of one instrument and exposes
// the reporting window and the lookback-extended window over them.
package timeseries

import (
	"errors"
	"fmt"
	"time"

	"SignalBacktest/internal/model"
)

var (
	// ErrEmptyWindow is returned when no bar falls inside the reporting window.
	ErrEmptyWindow = errors.New("reporting window holds no bars")
	// ErrUnordered is returned when bar dates are not strictly increasing.
	ErrUnordered = errors.New("bar dates not strictly increasing")
)

// Store is an immutable, date-ordered bar series covering [extended start, end].
type Store struct {
	bars     []model.OHLCV
	start    time.Time
	end      time.Time
	firstIdx int // index of the first bar inside the reporting window
	lastIdx  int // index one past the last bar inside the reporting window
}

// New builds a Store. Bar times are normalised to calendar dates; bars after
// end are discarded. start and end bound the reporting window, inclusive.
func New(bars []model.OHLCV, start, end time.Time) (*Store, error) {
	start, end = model.DateOf(start), model.DateOf(end)
	if end.Before(start) {
		return nil, fmt.Errorf("end %s before start %s", end.Format(model.DateLayout), start.Format(model.DateLayout))
	}

	kept := make([]model.OHLCV, 0, len(bars))
	for i, b := range bars {
		b.Time = model.DateOf(b.Time)
		if b.Time.After(end) {
			continue
		}
		if n := len(kept); n > 0 && !kept[n-1].Time.Before(b.Time) {
			return nil, fmt.Errorf("%w: bar %d at %s", ErrUnordered, i, b.Time.Format(model.DateLayout))
		}
		kept = append(kept, b)
	}

	s := &Store{bars: kept, start: start, end: end, firstIdx: -1}
	for i, b := range kept {
		if !b.Time.Before(start) {
			if s.firstIdx < 0 {
				s.firstIdx = i
			}
			s.lastIdx = i + 1
		}
	}
	if s.firstIdx < 0 {
		return nil, fmt.Errorf("%w: [%s, %s]", ErrEmptyWindow, start.Format(model.DateLayout), end.Format(model.DateLayout))
	}
	return s, nil
}

// Start returns the first date of the reporting window.
func (s *Store) Start() time.Time { return s.start }

// End returns the last date of the reporting window.
func (s *Store) End() time.Time { return s.end }

// Extended returns every bar, warm-up history included.
func (s *Store) Extended() []model.OHLCV { return s.bars }

// Reporting returns the bars inside [start, end].
func (s *Store) Reporting() []model.OHLCV { return s.bars[s.firstIdx:s.lastIdx] }

// WarmupBars returns the number of bars preceding the reporting window.
func (s *Store) WarmupBars() int { return s.firstIdx }

// InReporting reports whether d falls inside the reporting window.
func (s *Store) InReporting(d time.Time) bool {
	return !d.Before(s.start) && !d.After(s.end)
}

// ExtendedDates returns the dates of all bars.
func (s *Store) ExtendedDates() []time.Time { return dates(s.bars) }

// ReportingDates returns the dates of the reporting-window bars.
func (s *Store) ReportingDates() []time.Time { return dates(s.Reporting()) }

// ExtendedCloses returns the close of every bar.
func (s *Store) ExtendedCloses() []float64 { return closes(s.bars) }

// ReportingCloses returns the closes of the reporting-window bars.
func (s *Store) ReportingCloses() []float64 { return closes(s.Reporting()) }

func dates(bars []model.OHLCV) []time.Time {
	out := make([]time.Time, len(bars))
	for i, b := range bars {
		out[i] = b.Time
	}
	return out
}

func closes(bars []model.OHLCV) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
