package calculator

import (
	"errors"
	"fmt"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// CalculateSMA computes the simple moving average of the last period prices.
func CalculateSMA(prices []float64, period int) (float64, error) {
	if period <= 0 {
		return 0, errors.New("period must be positive")
	}
	if len(prices) < period {
		return 0, errors.New("not enough data for SMA calculation")
	}
	sum := 0.0
	for i := len(prices) - period; i < len(prices); i++ {
		sum += prices[i]
	}
	return sum / float64(period), nil
}

// SMA returns one SMA_<w> column per window, computed over the extended closes.
func SMA(s *timeseries.Store, windows []int) (*model.IndicatorTable, error) {
	if err := checkPeriods("SMA", windows); err != nil {
		return nil, err
	}
	ext := s.ExtendedCloses()
	cols := make([]column, 0, len(windows))
	for _, w := range windows {
		cols = append(cols, column{name: fmt.Sprintf("SMA_%d", w), values: RollingMean(ext, w)})
	}
	return alignToReporting("SMA", s, s.ExtendedDates(), cols)
}

// EMA returns one EMA_<w> column per window with alpha = 2/(w+1).
func EMA(s *timeseries.Store, windows []int) (*model.IndicatorTable, error) {
	if err := checkPeriods("EMA", windows); err != nil {
		return nil, err
	}
	ext := s.ExtendedCloses()
	cols := make([]column, 0, len(windows))
	for _, w := range windows {
		cols = append(cols, column{name: fmt.Sprintf("EMA_%d", w), values: EWM(ext, SpanAlpha(w))})
	}
	return alignToReporting("EMA", s, s.ExtendedDates(), cols)
}

func checkPeriods(name string, periods []int) error {
	for _, p := range periods {
		if p <= 0 {
			return fmt.Errorf("%s: period must be positive, got %d", name, p)
		}
	}
	return nil
}
