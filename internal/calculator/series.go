package calculator

import "math"

// Series helpers operate on plain float64 slices. Undefined positions are NaN
// and every output has the same length as its input.

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// RollingMean returns the trailing arithmetic mean over window samples.
// Positions with fewer than window samples are NaN.
func RollingMean(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	for i := window - 1; i < len(x) && window > 0; i++ {
		m, err := CalculateSMA(x[:i+1], window)
		if err == nil {
			out[i] = m
		}
	}
	return out
}

// RollingStd returns the trailing population standard deviation (divisor N).
func RollingStd(x []float64, window int) []float64 {
	out := nanSlice(len(x))
	for i := window - 1; i < len(x) && window > 0; i++ {
		_, out[i] = meanStd(x[i-window+1 : i+1])
	}
	return out
}

func meanStd(data []float64) (float64, float64) {
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	mean := sum / float64(len(data))

	varianceSum := 0.0
	for _, v := range data {
		varianceSum += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(varianceSum / float64(len(data)))
}

// EWM applies exponential smoothing with the no-adjust convention:
// the first defined input seeds the output, then
// out[t] = alpha*x[t] + (1-alpha)*out[t-1]. NaN inputs carry the previous value.
func EWM(x []float64, alpha float64) []float64 {
	out := nanSlice(len(x))
	prev := math.NaN()
	for i, v := range x {
		switch {
		case math.IsNaN(v):
			// keep prev
		case math.IsNaN(prev):
			prev = v
		default:
			prev = alpha*v + (1-alpha)*prev
		}
		out[i] = prev
	}
	return out
}

// SpanAlpha converts an EMA span into its smoothing factor 2/(span+1).
func SpanAlpha(span int) float64 {
	return 2.0 / float64(span+1)
}

// Diff returns x[t]-x[t-1]. The first value is back-filled from the second;
// a single-sample input yields NaN.
func Diff(x []float64) []float64 {
	out := nanSlice(len(x))
	for i := 1; i < len(x); i++ {
		out[i] = x[i] - x[i-1]
	}
	if len(x) > 1 {
		out[0] = out[1]
	}
	return out
}
