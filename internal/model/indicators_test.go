package model

import (
	"errors"
	"math"
	"testing"
	"time"
)

func day(d int) time.Time {
	return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC)
}

func TestMerge_OuterJoin(t *testing.T) {
	a := NewIndicatorTable([]time.Time{day(2), day(3)})
	if err := a.AddColumn("A", []float64{1, 2}); err != nil {
		t.Fatal(err)
	}
	b := NewIndicatorTable([]time.Time{day(1), day(3)})
	if err := b.AddColumn("B", []float64{10, 30}); err != nil {
		t.Fatal(err)
	}

	m, err := Merge(a, b)
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", m.Len())
	}
	if !m.Dates[0].Equal(day(1)) || !m.Dates[2].Equal(day(3)) {
		t.Errorf("dates not sorted: %v", m.Dates)
	}
	if !math.IsNaN(m.Value("A", 0)) {
		t.Errorf("expected NaN for A on day 1, got %v", m.Value("A", 0))
	}
	if m.Value("A", 2) != 2 || m.Value("B", 2) != 30 {
		t.Errorf("unexpected day 3 values: A=%v B=%v", m.Value("A", 2), m.Value("B", 2))
	}
	if !math.IsNaN(m.Value("B", 1)) {
		t.Errorf("expected NaN for B on day 2")
	}
}

func TestMerge_DuplicateColumn(t *testing.T) {
	a := NewIndicatorTable([]time.Time{day(1)})
	_ = a.AddColumn("X", []float64{1})
	b := NewIndicatorTable([]time.Time{day(1)})
	_ = b.AddColumn("X", []float64{2})

	if _, err := Merge(a, b); !errors.Is(err, ErrDuplicateColumn) {
		t.Errorf("expected ErrDuplicateColumn, got %v", err)
	}
}

func TestRow_Get(t *testing.T) {
	tbl := NewIndicatorTable([]time.Time{day(1), day(2)})
	_ = tbl.AddColumn("Close", []float64{10, 11})

	r := tbl.Row(1)
	if v, ok := r.Get("Close"); !ok || v != 11 {
		t.Errorf("Get(Close) = %v, %v", v, ok)
	}
	if _, ok := r.Get("SMA_20"); ok {
		t.Error("expected missing column")
	}
	if !r.Date().Equal(day(2)) {
		t.Errorf("unexpected date %v", r.Date())
	}
}

func TestFilter(t *testing.T) {
	tbl := NewIndicatorTable([]time.Time{day(1), day(2), day(3)})
	_ = tbl.AddColumn("V", []float64{1, math.NaN(), 3})

	out := tbl.Filter(func(i int) bool { return !math.IsNaN(tbl.Value("V", i)) })
	if out.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", out.Len())
	}
	if out.Value("V", 1) != 3 {
		t.Errorf("expected 3, got %v", out.Value("V", 1))
	}
}

func TestTrade_IsOpen(t *testing.T) {
	if !(Trade{BuyDate: day(1), BuyPrice: 10}).IsOpen() {
		t.Error("trade without sell should be open")
	}
	if (Trade{BuyDate: day(1), SellDate: day(2)}).IsOpen() {
		t.Error("trade with sell should be closed")
	}
}
