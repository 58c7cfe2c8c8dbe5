package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"SignalBacktest/internal/model"
)

// VsTraderFetcher implements Fetcher using the vstrader REST API.
type VsTraderFetcher struct {
	BaseURL string
	APIKey  string
	Client  *http.Client
}

// NewVsTraderFetcher creates a new fetcher with optional proxy support.
func NewVsTraderFetcher(baseURL, apiKey, proxyURL string) *VsTraderFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &VsTraderFetcher{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

func (f *VsTraderFetcher) Name() string { return "vstrader" }

// vsBar is the expected JSON shape from the vstrader API.
type vsBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

// FetchBars reads daily bars for the range. The API serves daily bars only,
// so weekly requests are aggregated locally.
func (f *VsTraderFetcher) FetchBars(ctx context.Context, req Request) ([]model.OHLCV, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	from := req.ExtendedStart()
	to := model.DateOf(req.End)

	q := url.Values{}
	q.Set("symbol", req.Symbol)
	q.Set("from", from.Format(model.DateLayout))
	q.Set("to", to.Format(model.DateLayout))
	bars, err := f.fetchBars(ctx, fmt.Sprintf("%s/api/v1/bars/daily?%s", f.BaseURL, q.Encode()))
	if err != nil {
		return nil, err
	}

	bars = clip(bars, from, to)
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoData, req.Symbol)
	}
	if req.interval() == IntervalWeekly {
		bars = aggregateDailyToWeekly(bars)
	}
	return bars, nil
}

func (f *VsTraderFetcher) fetchBars(ctx context.Context, endpoint string) ([]model.OHLCV, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch bars: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: vstrader returned 404", ErrInvalidSymbol)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("fetch bars: status %d, body: %s", resp.StatusCode, string(body))
	}
	var vsBars []vsBar
	if err := json.NewDecoder(resp.Body).Decode(&vsBars); err != nil {
		return nil, fmt.Errorf("decode bars: %w", err)
	}
	bars := make([]model.OHLCV, len(vsBars))
	for i, vb := range vsBars {
		bars[i] = model.OHLCV{
			Time:   time.Unix(vb.Timestamp, 0).UTC(),
			Open:   vb.Open,
			High:   vb.High,
			Low:    vb.Low,
			Close:  vb.Close,
			Volume: vb.Volume,
		}
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// aggregateDailyToWeekly folds daily bars into ISO-week bars dated by the
// week's first trading day.
func aggregateDailyToWeekly(daily []model.OHLCV) []model.OHLCV {
	var weekly []model.OHLCV
	var key int
	for _, d := range daily {
		y, w := d.Time.ISOWeek()
		k := y*100 + w
		n := len(weekly)
		if n == 0 || k != key {
			weekly = append(weekly, d)
			key = k
			continue
		}
		week := &weekly[n-1]
		week.High = max(week.High, d.High)
		week.Low = min(week.Low, d.Low)
		week.Close = d.Close
		week.Volume += d.Volume
	}
	return weekly
}
