package calculator

import (
	"fmt"
	"math"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// KDJParams holds the KDJ lookback n and smoothing m.
type KDJParams struct {
	N int `yaml:"n"`
	M int `yaml:"m"`
}

// kdjSeed is the value K and D hold before the first defined RSV.
const kdjSeed = 50.0

// KDJ computes the stochastic K, D and J = 3K-2D over the extended bars.
// K and D are a sequential fold: days with undefined RSV produce no value and
// leave the carried state untouched for the next defined day.
func KDJ(s *timeseries.Store, p KDJParams) (*model.IndicatorTable, error) {
	if p.N <= 0 || p.M <= 0 {
		return nil, fmt.Errorf("KDJ: n and m must be positive, got %d/%d", p.N, p.M)
	}
	bars := s.Extended()
	highs := make([]float64, len(bars))
	lows := make([]float64, len(bars))
	for i, b := range bars {
		highs[i], lows[i] = b.High, b.Low
	}
	maxHigh := RollingMax(highs, p.N)
	minLow := RollingMin(lows, p.N)

	k, d, j := nanSlice(len(bars)), nanSlice(len(bars)), nanSlice(len(bars))
	alpha := 1.0 / float64(p.M)
	kPrev, dPrev := kdjSeed, kdjSeed
	for i, b := range bars {
		rsv := kdjRSV(b.Close, minLow[i], maxHigh[i])
		if math.IsNaN(rsv) {
			continue
		}
		kPrev = (1-alpha)*kPrev + alpha*rsv
		dPrev = (1-alpha)*dPrev + alpha*kPrev
		k[i], d[i] = kPrev, dPrev
		j[i] = 3*kPrev - 2*dPrev
	}

	return alignToReporting("KDJ", s, s.ExtendedDates(), []column{
		{name: "K", values: k},
		{name: "D", values: d},
		{name: "J", values: j},
	})
}

// kdjRSV is 100 when the lookback range is flat.
func kdjRSV(close, minLow, maxHigh float64) float64 {
	if math.IsNaN(minLow) || math.IsNaN(maxHigh) {
		return math.NaN()
	}
	if maxHigh == minLow {
		return 100.0
	}
	return (close - minLow) / (maxHigh - minLow) * 100
}

// RollingMax returns the trailing maximum over window samples.
func RollingMax(x []float64, window int) []float64 {
	return rollingExtreme(x, window, func(a, b float64) bool { return a > b })
}

// RollingMin returns the trailing minimum over window samples.
func RollingMin(x []float64, window int) []float64 {
	return rollingExtreme(x, window, func(a, b float64) bool { return a < b })
}

func rollingExtreme(x []float64, window int, better func(a, b float64) bool) []float64 {
	out := nanSlice(len(x))
	for i := window - 1; i < len(x) && window > 0; i++ {
		best := x[i-window+1]
		for _, v := range x[i-window+2 : i+1] {
			if better(v, best) {
				best = v
			}
		}
		out[i] = best
	}
	return out
}
