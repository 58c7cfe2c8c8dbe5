package exporter

import (
	"math"

	"SignalBacktest/internal/model"
)

// indicatorRow is the long-format record used where a fixed schema is required.
type indicatorRow struct {
	Date   string  `json:"date" parquet:"date"`
	Column string  `json:"column" parquet:"column"`
	Value  float64 `json:"value" parquet:"value"`
}

// tradeRow is the flat record of a Trade. Open trades leave the sell fields empty.
type tradeRow struct {
	BuyDate   string   `json:"buy_date" parquet:"buy_date"`
	BuyPrice  float64  `json:"buy_price" parquet:"buy_price"`
	SellDate  *string  `json:"sell_date" parquet:"sell_date,optional"`
	SellPrice *float64 `json:"sell_price" parquet:"sell_price,optional"`
	ProfitPct *float64 `json:"profit_pct" parquet:"profit_pct,optional"`
}

// postBuyRow is the flat record of one analysed buy.
type postBuyRow struct {
	BuyDate        string  `json:"buy_date" parquet:"buy_date"`
	BuyPrice       float64 `json:"buy_price" parquet:"buy_price"`
	EndDate        string  `json:"end_date" parquet:"end_date"`
	EndPrice       float64 `json:"end_price" parquet:"end_price"`
	HoldingDays    int64   `json:"holding_days" parquet:"holding_days"`
	HPRPct         *float64 `json:"hpr_pct" parquet:"hpr_pct,optional"`
	AnnualizedPct  *float64 `json:"annualized_pct" parquet:"annualized_pct,optional"`
	MaxDrawdownPct *float64 `json:"max_drawdown_pct" parquet:"max_drawdown_pct,optional"`
}

// finite rounds v to 2 decimals, or returns nil for NaN and ±Inf.
func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	r := Round2(v)
	return &r
}

func indicatorRows(tbl *model.IndicatorTable) []indicatorRow {
	rows := make([]indicatorRow, 0, tbl.Len()*len(tbl.Columns))
	for i, d := range tbl.Dates {
		date := d.Format(model.DateLayout)
		for _, c := range tbl.Columns {
			v := finite(tbl.Value(c, i))
			if v == nil {
				continue
			}
			rows = append(rows, indicatorRow{Date: date, Column: c, Value: *v})
		}
	}
	return rows
}

func tradeRows(trades []model.Trade) []tradeRow {
	rows := make([]tradeRow, len(trades))
	for i, t := range trades {
		rows[i] = tradeRow{BuyDate: t.BuyDate.Format(model.DateLayout), BuyPrice: Round2(t.BuyPrice)}
		if t.IsOpen() {
			continue
		}
		sd := t.SellDate.Format(model.DateLayout)
		sp := Round2(t.SellPrice)
		rows[i].SellDate, rows[i].SellPrice, rows[i].ProfitPct = &sd, &sp, finite(t.ProfitPct)
	}
	return rows
}

func postBuyRows(rep model.PostBuyReport) []postBuyRow {
	rows := make([]postBuyRow, len(rep.Trades))
	for i, t := range rep.Trades {
		rows[i] = postBuyRow{
			BuyDate:        t.BuyDate.Format(model.DateLayout),
			BuyPrice:       Round2(t.BuyPrice),
			EndDate:        t.EndDate.Format(model.DateLayout),
			EndPrice:       Round2(t.EndPrice),
			HoldingDays:    int64(t.HoldingDays),
			HPRPct:         finite(t.HPR * 100),
			AnnualizedPct:  finite(t.AnnualizedReturn * 100),
			MaxDrawdownPct: finite(t.MaxDrawdown * 100),
		}
	}
	return rows
}

func postBuyHeader() []string {
	return []string{"buy_date", "buy_price", "end_date", "end_price", "holding_days", "hpr_pct", "annualized_pct", "max_drawdown_pct"}
}
