package exporter

import (
	"github.com/parquet-go/parquet-go"

	"SignalBacktest/internal/model"
)

// ParquetSaver writes Parquet files. The indicator table is stored in long
// format (date, column, value) so the schema does not depend on configuration.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) SaveIndicators(tbl *model.IndicatorTable, path string) error {
	return parquet.WriteFile(path, indicatorRows(tbl))
}

func (ParquetSaver) SaveTrades(trades []model.Trade, path string) error {
	return parquet.WriteFile(path, tradeRows(trades))
}

func (ParquetSaver) SavePostBuy(rep model.PostBuyReport, path string) error {
	return parquet.WriteFile(path, postBuyRows(rep))
}
