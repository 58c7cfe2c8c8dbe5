// Package exporter writes the indicator table, the trade list and the
// post-buy report as flat files. Numbers are rounded to 2 decimals here and
// nowhere upstream.
package exporter

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"SignalBacktest/internal/model"
)

// Saver writes one run's tables in a single file format.
type Saver interface {
	SaveIndicators(tbl *model.IndicatorTable, path string) error
	SaveTrades(trades []model.Trade, path string) error
	SavePostBuy(rep model.PostBuyReport, path string) error
	Extension() string
}

// NewSaver creates the implementation for format (csv, parquet, json).
// Returns nil if the format is not supported.
func NewSaver(format string) Saver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return CSVSaver{}
	case "parquet":
		return ParquetSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}

// Round2 rounds to 2 decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Paths lists the files written by Export.
type Paths struct {
	Indicators string
	Trades     string
	PostBuy    string
}

// Export writes all three tables under dir as <symbol>_<table>.<ext>.
func Export(s Saver, dir, symbol string, tbl *model.IndicatorTable, trades []model.Trade, rep model.PostBuyReport) (Paths, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Paths{}, fmt.Errorf("create output dir: %w", err)
	}
	name := func(table string) string {
		return filepath.Join(dir, fmt.Sprintf("%s_%s.%s", fileSafe(symbol), table, s.Extension()))
	}
	p := Paths{Indicators: name("indicators"), Trades: name("trades"), PostBuy: name("postbuy")}

	if err := s.SaveIndicators(tbl, p.Indicators); err != nil {
		return p, fmt.Errorf("save indicators: %w", err)
	}
	if err := s.SaveTrades(trades, p.Trades); err != nil {
		return p, fmt.Errorf("save trades: %w", err)
	}
	if err := s.SavePostBuy(rep, p.PostBuy); err != nil {
		return p, fmt.Errorf("save post-buy report: %w", err)
	}
	return p, nil
}

func fileSafe(symbol string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '^', '/', '\\', ':', '=':
			return '_'
		}
		return r
	}, symbol)
}
