package exporter

import (
	"encoding/csv"
	"math"
	"os"
	"strconv"

	"SignalBacktest/internal/model"
)

// CSVSaver writes wide CSV tables: one row per date or trade, one column per field.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func writeCSV(path string, header []string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(records); err != nil {
		return err
	}
	return f.Close()
}

func (CSVSaver) SaveIndicators(tbl *model.IndicatorTable, path string) error {
	header := append([]string{"Date"}, tbl.Columns...)
	records := make([][]string, tbl.Len())
	for i, d := range tbl.Dates {
		rec := make([]string, 0, len(header))
		rec = append(rec, d.Format(model.DateLayout))
		for _, c := range tbl.Columns {
			rec = append(rec, floatStr(tbl.Value(c, i)))
		}
		records[i] = rec
	}
	return writeCSV(path, header, records)
}

func (CSVSaver) SaveTrades(trades []model.Trade, path string) error {
	records := make([][]string, 0, len(trades))
	for _, r := range tradeRows(trades) {
		records = append(records, []string{
			r.BuyDate,
			floatStr(r.BuyPrice),
			strOrEmpty(r.SellDate),
			floatPtrStr(r.SellPrice),
			floatPtrStr(r.ProfitPct),
		})
	}
	return writeCSV(path, []string{"buy_date", "buy_price", "sell_date", "sell_price", "profit_pct"}, records)
}

func (CSVSaver) SavePostBuy(rep model.PostBuyReport, path string) error {
	records := make([][]string, 0, len(rep.Trades))
	for _, r := range postBuyRows(rep) {
		records = append(records, []string{
			r.BuyDate,
			floatStr(r.BuyPrice),
			r.EndDate,
			floatStr(r.EndPrice),
			strconv.FormatInt(r.HoldingDays, 10),
			floatPtrStr(r.HPRPct),
			floatPtrStr(r.AnnualizedPct),
			floatPtrStr(r.MaxDrawdownPct),
		})
	}
	return writeCSV(path, postBuyHeader(), records)
}

// floatStr renders v rounded to 2 decimals; undefined values become empty cells.
func floatStr(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(Round2(v), 'f', -1, 64)
}

func floatPtrStr(v *float64) string {
	if v == nil {
		return ""
	}
	return floatStr(*v)
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
