package exporter

import (
	"encoding/json"
	"os"

	"SignalBacktest/internal/model"
)

// JSONSaver writes each table as an indented JSON document.
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return err
	}
	return f.Close()
}

// SaveIndicators writes one object per date; undefined and infinite values are null.
func (JSONSaver) SaveIndicators(tbl *model.IndicatorTable, path string) error {
	rows := make([]map[string]any, tbl.Len())
	for i, d := range tbl.Dates {
		row := make(map[string]any, len(tbl.Columns)+1)
		row["Date"] = d.Format(model.DateLayout)
		for _, c := range tbl.Columns {
			if v := finite(tbl.Value(c, i)); v != nil {
				row[c] = *v
			} else {
				row[c] = nil
			}
		}
		rows[i] = row
	}
	return writeJSON(path, rows)
}

func (JSONSaver) SaveTrades(trades []model.Trade, path string) error {
	return writeJSON(path, tradeRows(trades))
}

type postBuyDoc struct {
	Window  int          `json:"window"`
	Skipped int          `json:"skipped"`
	Trades  []postBuyRow `json:"trades"`
}

func (JSONSaver) SavePostBuy(rep model.PostBuyReport, path string) error {
	return writeJSON(path, postBuyDoc{Window: rep.Window, Skipped: rep.Skipped, Trades: postBuyRows(rep)})
}
