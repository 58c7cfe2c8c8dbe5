package calculator

import (
	"fmt"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// BOLLParams holds the Bollinger window and band width multiplier.
type BOLLParams struct {
	Window int     `yaml:"window"`
	K      float64 `yaml:"k"`
}

// BOLL returns the middle band (SMA) and the bands at ±K population
// standard deviations.
func BOLL(s *timeseries.Store, p BOLLParams) (*model.IndicatorTable, error) {
	if p.Window <= 0 {
		return nil, fmt.Errorf("BOLL: window must be positive, got %d", p.Window)
	}
	ext := s.ExtendedCloses()
	middle := RollingMean(ext, p.Window)
	std := RollingStd(ext, p.Window)

	upper := make([]float64, len(ext))
	lower := make([]float64, len(ext))
	for i := range ext {
		upper[i] = middle[i] + p.K*std[i]
		lower[i] = middle[i] - p.K*std[i]
	}

	return alignToReporting("BOLL", s, s.ExtendedDates(), []column{
		{name: "BOLL_Middle", values: middle},
		{name: "BOLL_Upper", values: upper},
		{name: "BOLL_Lower", values: lower},
	})
}
