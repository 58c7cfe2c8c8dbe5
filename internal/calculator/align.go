package calculator

import (
	"errors"
	"fmt"
	"math"
	"time"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// ErrInsufficientHistory is returned when no reporting-window row of an
// indicator survives the warm-up drop.
var ErrInsufficientHistory = errors.New("insufficient warm-up history")

type column struct {
	name   string
	values []float64
}

// alignToReporting is the second phase of every indicator: rows with any
// undefined value are dropped first, then the remainder is trimmed to the
// reporting window.
func alignToReporting(name string, s *timeseries.Store, dates []time.Time, cols []column) (*model.IndicatorTable, error) {
	full := model.NewIndicatorTable(dates)
	for _, c := range cols {
		if err := full.AddColumn(c.name, c.values); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	defined := full.Filter(func(i int) bool {
		for _, c := range cols {
			if math.IsNaN(c.values[i]) {
				return false
			}
		}
		return true
	})
	trimmed := defined.Filter(func(i int) bool { return s.InReporting(defined.Dates[i]) })
	if trimmed.Len() == 0 {
		return nil, fmt.Errorf("%s: %w", name, ErrInsufficientHistory)
	}
	return trimmed, nil
}
