// Package observability exposes Prometheus metrics for backtest runs.
package observability

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the backtest runner.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	RunsTotal     *prometheus.CounterVec // labels: status
	RunDuration   prometheus.Histogram
	FetchAttempts *prometheus.CounterVec // labels: source, outcome
	BarsFetched   prometheus.Gauge
	ClosedTrades  prometheus.Gauge
	OpenTrades    prometheus.Gauge
	LastRunTime   prometheus.Gauge

	gatherer prometheus.Gatherer
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg uses a fresh registry.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_runs_total",
			Help: "Backtest runs by final status",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "backtest_run_duration_seconds",
			Help:    "Wall time of one full pipeline run",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "backtest_fetch_attempts_total",
			Help: "Price history fetch attempts by source and outcome",
		}, []string{"source", "outcome"}),
		BarsFetched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_bars_fetched",
			Help: "Bars in the extended window of the last run",
		}),
		ClosedTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_closed_trades",
			Help: "Closed trades of the last successful run",
		}),
		OpenTrades: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_open_trades",
			Help: "Open trades of the last successful run",
		}),
		LastRunTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "backtest_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		}),
		gatherer: reg,
	}

	reg.MustRegister(
		m.RunsTotal,
		m.RunDuration,
		m.FetchAttempts,
		m.BarsFetched,
		m.ClosedTrades,
		m.OpenTrades,
		m.LastRunTime,
	)
	return m
}

// ObserveFetch counts one fetch attempt.
func (m *Metrics) ObserveFetch(source string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.FetchAttempts.WithLabelValues(source, outcome).Inc()
}

// ObserveRun records the outcome of one pipeline run.
func (m *Metrics) ObserveRun(status string, d time.Duration, bars, closed, open int) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status).Inc()
	m.RunDuration.Observe(d.Seconds())
	m.LastRunTime.SetToCurrentTime()
	m.BarsFetched.Set(float64(bars))
	if status == "ok" {
		m.ClosedTrades.Set(float64(closed))
		m.OpenTrades.Set(float64(open))
	}
}

// Health tracks the status of the last run for /healthz.
type Health struct {
	mu        sync.RWMutex
	StartedAt time.Time
	LastRun   time.Time
	LastError string
}

// NewHealth returns a health tracker started now.
func NewHealth() *Health {
	return &Health{StartedAt: time.Now()}
}

// SetRun records the last run time and error, if any.
func (h *Health) SetRun(at time.Time, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.LastRun = at
	h.LastError = ""
	if err != nil {
		h.LastError = err.Error()
	}
}

// ServeHTTP handles the /healthz endpoint.
func (h *Health) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := struct {
		Status    string `json:"status"`
		Uptime    string `json:"uptime"`
		LastRun   string `json:"last_run,omitempty"`
		LastError string `json:"last_error,omitempty"`
	}{
		Status:    "healthy",
		Uptime:    time.Since(h.StartedAt).Round(time.Second).String(),
		LastError: h.LastError,
	}
	if !h.LastRun.IsZero() {
		status.LastRun = h.LastRun.Format(time.RFC3339)
	}
	w.Header().Set("Content-Type", "application/json")
	if h.LastError != "" {
		status.Status = "degraded"
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(status)
}

// Server runs an HTTP server exposing /metrics and /healthz.
type Server struct {
	srv *http.Server
}

// NewServer creates a metrics and health server.
func NewServer(addr string, m *Metrics, health *Health) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
	mux.Handle("/healthz", health)
	return &Server{srv: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}}
}

// Start serves in the background until Shutdown.
func (s *Server) Start() {
	go func() {
		log.Printf("[INFO] metrics server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("[ERROR] metrics server: %v", err)
		}
	}()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }
