// Package config loads the backtest configuration from YAML and the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"SignalBacktest/internal/analyzer"
	"SignalBacktest/internal/calculator"
	"SignalBacktest/internal/collector"
	"SignalBacktest/internal/exporter"
	"SignalBacktest/internal/model"
	"SignalBacktest/internal/strategy"
)

// Data source providers.
const (
	ProviderYahoo    = "yahoo"
	ProviderVsTrader = "vstrader"
	ProviderMock     = "mock"
)

// Config holds all application configuration.
type Config struct {
	Symbol       string `yaml:"symbol"`
	StartDate    string `yaml:"start_date"`
	EndDate      string `yaml:"end_date"`
	LookbackDays int    `yaml:"lookback_days"`
	Interval     string `yaml:"interval"`

	DataSource struct {
		Provider  string  `yaml:"provider"`
		BaseURL   string  `yaml:"base_url"`
		APIKey    string  `yaml:"api_key"`
		MockPrice float64 `yaml:"mock_price"`
	} `yaml:"data_source"`

	Indicators calculator.Params `yaml:"indicators"`

	Strategy struct {
		Buy  strategy.RuleConfig `yaml:"buy"`
		Sell strategy.RuleConfig `yaml:"sell"`
	} `yaml:"strategy"`

	Analysis struct {
		HoldingWindow int `yaml:"holding_window"`
	} `yaml:"analysis"`

	Fetch struct {
		Timeout time.Duration `yaml:"timeout"`
		Retries int           `yaml:"retries"`
		Backoff time.Duration `yaml:"backoff"`
	} `yaml:"fetch"`

	Output struct {
		Dir    string `yaml:"dir"`
		Format string `yaml:"format"`
	} `yaml:"output"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Schedule struct {
		Cron string `yaml:"cron"`
	} `yaml:"schedule"`
	Metrics struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"metrics"`
	Proxy string `yaml:"proxy"`
}

// Default returns the configuration used for every field the file leaves out.
// Indicator windows are seeded before parsing, so an explicit empty list in
// the file disables that family. A rule block in the file replaces the
// default rule as a whole.
func Default() *Config {
	cfg := &Config{
		LookbackDays: 300,
		Interval:     collector.IntervalDaily,
		Indicators:   calculator.DefaultParams(),
	}
	cfg.Strategy.Buy = strategy.DefaultBuy()
	cfg.Strategy.Sell = strategy.DefaultSell()
	cfg.Analysis.HoldingWindow = analyzer.DefaultHoldingWindow
	cfg.Fetch.Timeout = 30 * time.Second
	cfg.Fetch.Retries = 3
	cfg.Fetch.Backoff = time.Second
	return cfg
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if err := applyRuleBlocks(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("BACKTEST_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("BACKTEST_START"); v != "" {
		cfg.StartDate = v
	}
	if v := os.Getenv("BACKTEST_END"); v != "" {
		cfg.EndDate = v
	}
	if v := os.Getenv("VSTRADER_BASE_URL"); v != "" {
		cfg.DataSource.BaseURL = v
	}
	if v := os.Getenv("VSTRADER_API_KEY"); v != "" {
		cfg.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("CRON_SCHEDULE"); v != "" {
		cfg.Schedule.Cron = v
	}
	if v := os.Getenv("HOLDING_WINDOW"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Analysis.HoldingWindow = n
		}
	}

	// Defaults
	if cfg.Symbol == "" {
		cfg.Symbol = "SPX500"
	}
	if cfg.DataSource.Provider == "" {
		cfg.DataSource.Provider = ProviderYahoo
		if cfg.DataSource.BaseURL != "" {
			cfg.DataSource.Provider = ProviderVsTrader
		}
	}
	if cfg.DataSource.MockPrice == 0 {
		cfg.DataSource.MockPrice = 100
	}
	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "output"
	}
	if cfg.Output.Format == "" {
		cfg.Output.Format = "csv"
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/backtest.db"
	}
	if cfg.Metrics.ListenAddr == "" {
		cfg.Metrics.ListenAddr = ":9090"
	}

	return cfg, nil
}

// ruleBlocks decodes only the strategy section, so a present block holds
// exactly what the file lists.
type ruleBlocks struct {
	Strategy struct {
		Buy  *strategy.RuleConfig `yaml:"buy"`
		Sell *strategy.RuleConfig `yaml:"sell"`
	} `yaml:"strategy"`
}

// applyRuleBlocks replaces the default buy and sell rules with the blocks the
// file sets. An absent block keeps its default.
func applyRuleBlocks(data []byte, cfg *Config) error {
	var rb ruleBlocks
	if err := yaml.Unmarshal(data, &rb); err != nil {
		return err
	}
	if rb.Strategy.Buy != nil {
		cfg.Strategy.Buy = *rb.Strategy.Buy
	}
	if rb.Strategy.Sell != nil {
		cfg.Strategy.Sell = *rb.Strategy.Sell
	}
	return nil
}

// Range resolves the reporting window. An empty end_date means today and an
// empty start_date means one year before the end, so scheduled runs roll forward.
func (c *Config) Range(now time.Time) (start, end time.Time, err error) {
	end = model.DateOf(now)
	if c.EndDate != "" {
		if end, err = time.Parse(model.DateLayout, c.EndDate); err != nil {
			return start, end, fmt.Errorf("end_date: %w", err)
		}
	}
	start = end.AddDate(-1, 0, 0)
	if c.StartDate != "" {
		if start, err = time.Parse(model.DateLayout, c.StartDate); err != nil {
			return start, end, fmt.Errorf("start_date: %w", err)
		}
	}
	return start, end, nil
}

// Request builds the fetch request for a run at now.
func (c *Config) Request(now time.Time) (collector.Request, error) {
	start, end, err := c.Range(now)
	if err != nil {
		return collector.Request{}, err
	}
	return collector.Request{
		Symbol:       c.Symbol,
		Start:        start,
		End:          end,
		LookbackDays: c.LookbackDays,
		Interval:     c.Interval,
	}, nil
}

// Validate checks that all fields are usable before any run starts.
func (c *Config) Validate() error {
	req, err := c.Request(time.Now())
	if err != nil {
		return err
	}
	if err := req.Validate(); err != nil {
		return err
	}

	switch c.DataSource.Provider {
	case ProviderYahoo, ProviderMock:
	case ProviderVsTrader:
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("data_source.base_url is required for vstrader")
		}
	default:
		return fmt.Errorf("data_source.provider %q not supported (yahoo, vstrader, mock)", c.DataSource.Provider)
	}

	if c.Analysis.HoldingWindow <= 0 {
		return fmt.Errorf("analysis.holding_window must be positive")
	}
	if c.Fetch.Retries < 0 {
		return fmt.Errorf("fetch.retries must not be negative")
	}
	if c.Fetch.Timeout <= 0 {
		return fmt.Errorf("fetch.timeout must be positive")
	}
	if exporter.NewSaver(c.Output.Format) == nil {
		return fmt.Errorf("output.format %q not supported (csv, parquet, json)", c.Output.Format)
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if _, err := strategy.BuildRules(c.Strategy.Buy, c.Strategy.Sell); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := validateWindows(c.Indicators); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	return nil
}

func validateWindows(p calculator.Params) error {
	for name, ws := range map[string][]int{"sma_windows": p.SMAWindows, "ema_windows": p.EMAWindows, "rsi_windows": p.RSIWindows} {
		for _, w := range ws {
			if w <= 0 {
				return fmt.Errorf("%s: window %d must be positive", name, w)
			}
		}
	}
	if p.MACD != (calculator.MACDParams{}) && (p.MACD.Fast <= 0 || p.MACD.Slow <= p.MACD.Fast || p.MACD.Signal <= 0) {
		return fmt.Errorf("macd: need 0 < fast < slow and signal > 0, got %+v", p.MACD)
	}
	if p.KDJ != (calculator.KDJParams{}) && (p.KDJ.N <= 0 || p.KDJ.M <= 0) {
		return fmt.Errorf("kdj: n and m must be positive, got %+v", p.KDJ)
	}
	if p.BOLL != (calculator.BOLLParams{}) && (p.BOLL.Window <= 0 || p.BOLL.K <= 0) {
		return fmt.Errorf("boll: window and k must be positive, got %+v", p.BOLL)
	}
	return nil
}

// TelegramEnabled reports whether reports should be pushed to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// String summarises the run parameters for the startup log.
func (c *Config) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "symbol=%s provider=%s interval=%s lookback=%dd", c.Symbol, c.DataSource.Provider, c.Interval, c.LookbackDays)
	fmt.Fprintf(&b, " buy=[%s] sell=[%s] window=%d", c.Strategy.Buy, c.Strategy.Sell, c.Analysis.HoldingWindow)
	return b.String()
}
