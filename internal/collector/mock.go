package collector

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/scmhub/calendar"

	"SignalBacktest/internal/model"
)

// MockFetcher returns controllable data for development and testing.
// With Bars set it serves them clipped to the request range; otherwise it
// synthesises a deterministic series on exchange business days.
type MockFetcher struct {
	Price float64
	Bars  []model.OHLCV
	Err   error

	cal *calendar.Calendar
}

// NewMockFetcher loads the NYSE calendar for business-day generation.
// A missing calendar falls back to Monday to Friday.
func NewMockFetcher(price float64) *MockFetcher {
	cal := calendar.GetCalendar("xnys")
	if cal == nil {
		log.Printf("[WARN] xnys calendar unavailable, mock bars fall back to Mon-Fri")
	}
	return &MockFetcher{Price: price, cal: cal}
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, req Request) ([]model.OHLCV, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from, to := req.ExtendedStart(), model.DateOf(req.End)

	var bars []model.OHLCV
	if m.Bars != nil {
		bars = clip(m.Bars, from, to)
	} else {
		bars = m.generate(from, to)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, req.Symbol)
	}
	if req.interval() == IntervalWeekly {
		bars = aggregateDailyToWeekly(bars)
	}
	return bars, nil
}

func (m *MockFetcher) isBusinessDay(d time.Time) bool {
	if m.cal != nil {
		return m.cal.IsBusinessDay(time.Date(d.Year(), d.Month(), d.Day(), 12, 0, 0, 0, m.cal.Loc))
	}
	wd := d.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// generate produces a slow sine wave around Price so that oscillators cross
// their thresholds within a few months of bars.
func (m *MockFetcher) generate(from, to time.Time) []model.OHLCV {
	base := m.Price
	if base <= 0 {
		base = 100
	}
	var bars []model.OHLCV
	i := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if !m.isBusinessDay(d) {
			continue
		}
		p := base * (1 + 0.1*math.Sin(float64(i)/15) + 0.0005*float64(i))
		bars = append(bars, model.OHLCV{
			Time:   d,
			Open:   p * 0.999,
			High:   p * 1.01,
			Low:    p * 0.99,
			Close:  p,
			Volume: 1000000,
		})
		i++
	}
	return bars
}
