package collector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SignalBacktest/internal/model"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func f64(v float64) *float64 { return &v }

func yahooBody(t *testing.T, ts []int64, closes []*float64) []byte {
	t.Helper()
	quote := map[string]any{"open": closes, "high": closes, "low": closes, "close": closes, "volume": closes}
	body := map[string]any{
		"chart": map[string]any{
			"result": []any{map[string]any{
				"meta":       map[string]any{"exchangeTimezoneName": "America/New_York"},
				"timestamp":  ts,
				"indicators": map[string]any{"quote": []any{quote}},
			}},
			"error": nil,
		},
	}
	b, err := json.Marshal(body)
	require.NoError(t, err)
	return b
}

func TestYahooFetcher_RangeAndParsing(t *testing.T) {
	// 14:30 UTC session opens on three consecutive days, one null bar
	ts := []int64{
		time.Date(2024, 1, 2, 14, 30, 0, 0, time.UTC).Unix(),
		time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC).Unix(),
		time.Date(2024, 1, 4, 14, 30, 0, 0, time.UTC).Unix(),
	}
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/%5EGSPC", r.URL.EscapedPath())
		gotQuery = map[string]string{
			"period1":  r.URL.Query().Get("period1"),
			"period2":  r.URL.Query().Get("period2"),
			"interval": r.URL.Query().Get("interval"),
		}
		w.Write(yahooBody(t, ts, []*float64{f64(10), nil, f64(12)}))
	}))
	defer srv.Close()

	f := NewYahooFetcher("")
	f.BaseURL = srv.URL
	bars, err := f.FetchBars(context.Background(), Request{
		Symbol: "SPX", Start: day(2024, 1, 3), End: day(2024, 1, 4), LookbackDays: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, "1d", gotQuery["interval"])
	assert.Equal(t, "1704067200", gotQuery["period1"], "2024-01-01 = start - 2 days")
	assert.Equal(t, "1704412800", gotQuery["period2"], "2024-01-05, end is inclusive")

	require.Len(t, bars, 2)
	assert.Equal(t, day(2024, 1, 2), bars[0].Time)
	assert.Equal(t, 10.0, bars[0].Close)
	assert.Equal(t, day(2024, 1, 4), bars[1].Time)
}

func TestYahooFetcher_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"not found", http.StatusNotFound, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`, ErrInvalidSymbol},
		{"empty result", http.StatusOK, `{"chart":{"result":[{"meta":{},"timestamp":[],"indicators":{"quote":[{}]}}],"error":null}}`, ErrNoData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := NewYahooFetcher("")
			f.BaseURL = srv.URL
			_, err := f.FetchBars(context.Background(), Request{Symbol: "XXXX", Start: day(2024, 1, 1), End: day(2024, 2, 1)})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestRequestValidate(t *testing.T) {
	ok := Request{Symbol: "SPY", Start: day(2024, 1, 1), End: day(2024, 1, 1)}
	assert.NoError(t, ok.Validate(), "single-day range is valid")

	bad := []Request{
		{Start: day(2024, 1, 1), End: day(2024, 2, 1)},
		{Symbol: "SPY", Start: day(2024, 2, 1), End: day(2024, 1, 1)},
		{Symbol: "SPY", Start: day(2024, 1, 1), End: day(2024, 2, 1), LookbackDays: -1},
		{Symbol: "SPY", Start: day(2024, 1, 1), End: day(2024, 2, 1), Interval: "5m"},
	}
	for i, r := range bad {
		assert.Error(t, r.Validate(), "case %d", i)
	}
	assert.ErrorIs(t, bad[1].Validate(), ErrInvalidRange)
}

func TestVsTraderFetcher_Weekly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		assert.Equal(t, "2024-01-01", r.URL.Query().Get("from"))
		var out []vsBar
		// Mon 2024-01-08 .. Fri 2024-01-12, then Mon 2024-01-15
		for i, d := range []int{8, 9, 10, 11, 12, 15} {
			p := float64(10 + i)
			out = append(out, vsBar{Timestamp: day(2024, 1, d).Unix(), Open: p, High: p + 1, Low: p - 1, Close: p, Volume: 1})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	f := NewVsTraderFetcher(srv.URL, "k", "")
	bars, err := f.FetchBars(context.Background(), Request{
		Symbol: "SPY", Start: day(2024, 1, 8), End: day(2024, 1, 31), LookbackDays: 7, Interval: IntervalWeekly,
	})
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, day(2024, 1, 8), bars[0].Time)
	assert.Equal(t, 10.0, bars[0].Open)
	assert.Equal(t, 15.0, bars[0].High)
	assert.Equal(t, 9.0, bars[0].Low)
	assert.Equal(t, 14.0, bars[0].Close)
	assert.Equal(t, 5.0, bars[0].Volume)
}

func TestMockFetcher_GeneratesBusinessDays(t *testing.T) {
	m := NewMockFetcher(100)
	bars, err := m.FetchBars(context.Background(), Request{Symbol: "SPY", Start: day(2024, 3, 1), End: day(2024, 3, 31)})
	require.NoError(t, err)
	require.NotEmpty(t, bars)
	for i, b := range bars {
		assert.NotEqual(t, time.Saturday, b.Time.Weekday())
		assert.NotEqual(t, time.Sunday, b.Time.Weekday())
		if i > 0 {
			assert.True(t, b.Time.After(bars[i-1].Time))
		}
	}
}

func TestMockFetcher_PresetBarsClipped(t *testing.T) {
	m := &MockFetcher{Bars: []model.OHLCV{
		{Time: day(2024, 1, 1), Close: 1},
		{Time: day(2024, 1, 5), Close: 2},
		{Time: day(2024, 1, 9), Close: 3},
	}}
	bars, err := m.FetchBars(context.Background(), Request{Symbol: "X", Start: day(2024, 1, 5), End: day(2024, 1, 6)})
	require.NoError(t, err)
	require.Len(t, bars, 1)
	assert.Equal(t, 2.0, bars[0].Close)

	_, err = m.FetchBars(context.Background(), Request{Symbol: "X", Start: day(2025, 1, 1), End: day(2025, 1, 2)})
	assert.ErrorIs(t, err, ErrNoData)
}

type flakyFetcher struct {
	calls atomic.Int32
	fail  int
	err   error
}

func (f *flakyFetcher) Name() string { return "flaky" }

func (f *flakyFetcher) FetchBars(_ context.Context, _ Request) ([]model.OHLCV, error) {
	if int(f.calls.Add(1)) <= f.fail {
		return nil, f.err
	}
	return []model.OHLCV{{Time: day(2024, 1, 2), Close: 1}}, nil
}

func TestRetryFetcher(t *testing.T) {
	req := Request{Symbol: "X", Start: day(2024, 1, 1), End: day(2024, 1, 5)}

	t.Run("transport error retried", func(t *testing.T) {
		f := &flakyFetcher{fail: 2, err: errors.New("connection reset")}
		var attempts int
		r := NewRetryFetcher(f, time.Second, 3, time.Millisecond)
		r.OnAttempt = func(string, error) { attempts++ }
		bars, err := r.FetchBars(context.Background(), req)
		require.NoError(t, err)
		assert.Len(t, bars, 1)
		assert.Equal(t, 3, attempts)
	})

	t.Run("sentinel not retried", func(t *testing.T) {
		f := &flakyFetcher{fail: 5, err: ErrInvalidSymbol}
		_, err := NewRetryFetcher(f, time.Second, 3, time.Millisecond).FetchBars(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidSymbol)
		assert.EqualValues(t, 1, f.calls.Load())
	})

	t.Run("exhausted", func(t *testing.T) {
		f := &flakyFetcher{fail: 5, err: errors.New("timeout")}
		_, err := NewRetryFetcher(f, time.Second, 1, time.Millisecond).FetchBars(context.Background(), req)
		assert.ErrorContains(t, err, "all 2 attempts exhausted")
		assert.EqualValues(t, 2, f.calls.Load())
	})
}

func TestCollector_Collect(t *testing.T) {
	m := NewMockFetcher(50)
	c := NewCollector(m, Request{Symbol: "SPY", Start: day(2024, 6, 3), End: day(2024, 6, 28), LookbackDays: 60})
	store, err := c.Collect(context.Background())
	require.NoError(t, err)
	assert.Greater(t, store.WarmupBars(), 30)
	assert.Equal(t, day(2024, 6, 3), store.Reporting()[0].Time)

	m.Err = errors.New("boom")
	_, err = c.Collect(context.Background())
	assert.ErrorContains(t, err, "fetch SPY from mock")
}
