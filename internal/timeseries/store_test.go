package timeseries

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBacktest/internal/model"
)

func bar(d int, c float64) model.OHLCV {
	return model.OHLCV{Time: time.Date(2024, 1, d, 14, 30, 0, 0, time.UTC), Open: c, High: c, Low: c, Close: c, Volume: 100}
}

func date(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

func TestNew_Windows(t *testing.T) {
	bars := []model.OHLCV{bar(1, 1), bar(2, 2), bar(3, 3), bar(4, 4), bar(5, 5), bar(8, 8)}

	s, err := New(bars, date(3), date(5))
	require.NoError(t, err)

	assert.Len(t, s.Extended(), 5, "bars after end are discarded")
	assert.Equal(t, []float64{3, 4, 5}, s.ReportingCloses())
	assert.Equal(t, []float64{1, 2, 3, 4, 5}, s.ExtendedCloses())
	assert.Equal(t, 2, s.WarmupBars())
	assert.Equal(t, date(3), s.ReportingDates()[0], "times are normalised to dates")
	assert.True(t, s.InReporting(date(4)))
	assert.False(t, s.InReporting(date(2)))
}

func TestNew_Unordered(t *testing.T) {
	bars := []model.OHLCV{bar(1, 1), bar(3, 3), bar(2, 2)}
	_, err := New(bars, date(1), date(3))
	assert.True(t, errors.Is(err, ErrUnordered), "got %v", err)

	dup := []model.OHLCV{bar(1, 1), bar(1, 1)}
	_, err = New(dup, date(1), date(3))
	assert.True(t, errors.Is(err, ErrUnordered), "duplicate dates: got %v", err)
}

func TestNew_EmptyWindow(t *testing.T) {
	bars := []model.OHLCV{bar(1, 1), bar(2, 2)}
	_, err := New(bars, date(5), date(9))
	assert.True(t, errors.Is(err, ErrEmptyWindow), "got %v", err)

	_, err = New(nil, date(1), date(2))
	assert.True(t, errors.Is(err, ErrEmptyWindow), "got %v", err)
}

func TestNew_EndBeforeStart(t *testing.T) {
	_, err := New([]model.OHLCV{bar(1, 1)}, date(3), date(1))
	assert.Error(t, err)
}
