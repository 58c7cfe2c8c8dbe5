package calculator

import (
	"fmt"
	"math"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// RSI returns one RSI_<w> column per window. Gains and losses are smoothed
// with alpha = 1/w (no-adjust), seeded from the first back-filled delta.
func RSI(s *timeseries.Store, windows []int) (*model.IndicatorTable, error) {
	if err := checkPeriods("RSI", windows); err != nil {
		return nil, err
	}
	delta := Diff(s.ExtendedCloses())
	gain := make([]float64, len(delta))
	loss := make([]float64, len(delta))
	for i, d := range delta {
		switch {
		case math.IsNaN(d):
			gain[i], loss[i] = d, d
		case d > 0:
			gain[i] = d
		default:
			loss[i] = -d
		}
	}

	cols := make([]column, 0, len(windows))
	for _, w := range windows {
		alpha := 1.0 / float64(w)
		avgGain := EWM(gain, alpha)
		avgLoss := EWM(loss, alpha)
		vals := make([]float64, len(delta))
		for i := range vals {
			vals[i] = rsiValue(avgGain[i], avgLoss[i])
		}
		cols = append(cols, column{name: fmt.Sprintf("RSI_%d", w), values: vals})
	}
	return alignToReporting("RSI", s, s.ExtendedDates(), cols)
}

// rsiValue saturates to 100 when the average loss is zero, flat series included.
func rsiValue(avgGain, avgLoss float64) float64 {
	if math.IsNaN(avgGain) || math.IsNaN(avgLoss) {
		return math.NaN()
	}
	if avgLoss == 0 {
		return 100.0
	}
	rs := avgGain / avgLoss
	return 100.0 - 100.0/(1.0+rs)
}
