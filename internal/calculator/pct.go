package calculator

import (
	"math"

	"SignalBacktest/internal/model"
	"SignalBacktest/internal/timeseries"
)

// PctChange returns Pct_Change = (close[t]/close[t-1]-1)*100 over the reporting
// closes. The first row takes the value of the second. It is not subject to the
// warm-up drop: a one-bar window keeps its single row with an undefined value.
func PctChange(s *timeseries.Store) (*model.IndicatorTable, error) {
	c := s.ReportingCloses()
	vals := nanSlice(len(c))
	for i := 1; i < len(c); i++ {
		vals[i] = (c[i]/c[i-1] - 1) * 100
	}
	if len(c) > 1 && !math.IsNaN(vals[1]) {
		vals[0] = vals[1]
	}
	t := model.NewIndicatorTable(s.ReportingDates())
	if err := t.AddColumn("Pct_Change", vals); err != nil {
		return nil, err
	}
	return t, nil
}
