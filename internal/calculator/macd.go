package calculator

import (
	"fmt"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// MACDParams holds the EMA spans of the MACD indicator.
type MACDParams struct {
	Fast   int `yaml:"fast"`
	Slow   int `yaml:"slow"`
	Signal int `yaml:"signal"`
}

// MACD returns DIF (fast EMA - slow EMA), DEA (signal EMA of DIF) and
// MACD = 2*(DIF-DEA).
func MACD(s *timeseries.Store, p MACDParams) (*model.IndicatorTable, error) {
	if p.Fast <= 0 || p.Slow <= 0 || p.Signal <= 0 {
		return nil, fmt.Errorf("MACD: spans must be positive, got %d/%d/%d", p.Fast, p.Slow, p.Signal)
	}
	ext := s.ExtendedCloses()
	fast := EWM(ext, SpanAlpha(p.Fast))
	slow := EWM(ext, SpanAlpha(p.Slow))

	dif := make([]float64, len(ext))
	for i := range ext {
		dif[i] = fast[i] - slow[i]
	}
	dea := EWM(dif, SpanAlpha(p.Signal))
	hist := make([]float64, len(ext))
	for i := range ext {
		hist[i] = 2 * (dif[i] - dea[i])
	}

	return alignToReporting("MACD", s, s.ExtendedDates(), []column{
		{name: "DIF", values: dif},
		{name: "DEA", values: dea},
		{name: "MACD", values: hist},
	})
}
