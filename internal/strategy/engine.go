// Package strategy turns the merged indicator table into daily buy/sell flags.
package strategy

import (
	"errors"
	"fmt"
	"strings"

	"SignalBacktest/internal/model"
)

// ErrUnknownColumn is returned when a rule references a column the table lacks.
var ErrUnknownColumn = errors.New("unknown column")

// RuleConfig is the textual form of a rule: every All condition must hold,
// and at least one Any condition when Any is non-empty. A rule without
// conditions never fires.
type RuleConfig struct {
	All []string `yaml:"all"`
	Any []string `yaml:"any"`
}

// DefaultBuy is RSI_14 < 55 AND MACD > 0 AND Close > SMA_20.
func DefaultBuy() RuleConfig {
	return RuleConfig{All: []string{"RSI_14 < 55", "MACD > 0", "Close > SMA_20"}}
}

// DefaultSell is RSI_7 > 75.
func DefaultSell() RuleConfig {
	return RuleConfig{All: []string{"RSI_7 > 75"}}
}

func (rc RuleConfig) String() string {
	var parts []string
	if len(rc.All) > 0 {
		parts = append(parts, strings.Join(rc.All, " AND "))
	}
	if len(rc.Any) > 0 {
		parts = append(parts, "("+strings.Join(rc.Any, " OR ")+")")
	}
	if len(parts) == 0 {
		return "never"
	}
	return strings.Join(parts, " AND ")
}

// Rules holds the buy and sell predicates. Columns lists every column the
// predicates read; Generate checks them against the table up front.
type Rules struct {
	Buy     Predicate
	Sell    Predicate
	Columns []string
}

// BuildRule compiles a RuleConfig and returns the columns it references.
func BuildRule(rc RuleConfig) (Predicate, []string, error) {
	if len(rc.All) == 0 && len(rc.Any) == 0 {
		return func(model.Row) bool { return false }, nil, nil
	}
	var cols []string
	compile := func(exprs []string) ([]Predicate, error) {
		ps := make([]Predicate, 0, len(exprs))
		for _, e := range exprs {
			c, err := ParseCondition(e)
			if err != nil {
				return nil, err
			}
			cols = append(cols, c.Columns()...)
			ps = append(ps, c.Predicate())
		}
		return ps, nil
	}

	all, err := compile(rc.All)
	if err != nil {
		return nil, nil, err
	}
	anyOf, err := compile(rc.Any)
	if err != nil {
		return nil, nil, err
	}

	var parts []Predicate
	if len(all) > 0 {
		parts = append(parts, All(all...))
	}
	if len(anyOf) > 0 {
		parts = append(parts, Any(anyOf...))
	}
	return All(parts...), cols, nil
}

// BuildRules compiles the buy and sell rule configs.
func BuildRules(buy, sell RuleConfig) (*Rules, error) {
	b, bc, err := BuildRule(buy)
	if err != nil {
		return nil, fmt.Errorf("buy rule: %w", err)
	}
	s, sc, err := BuildRule(sell)
	if err != nil {
		return nil, fmt.Errorf("sell rule: %w", err)
	}
	return &Rules{Buy: b, Sell: s, Columns: append(bc, sc...)}, nil
}

// DefaultRules compiles DefaultBuy and DefaultSell.
func DefaultRules() *Rules {
	r, err := BuildRules(DefaultBuy(), DefaultSell())
	if err != nil {
		panic(err)
	}
	return r
}

// Generate evaluates the rules on every row. Buy and sell are independent:
// a day may carry both flags or neither.
func Generate(tbl *model.IndicatorTable, rules *Rules) ([]model.Signal, error) {
	if !tbl.HasColumn("Close") {
		return nil, fmt.Errorf("%w: Close", ErrUnknownColumn)
	}
	for _, c := range rules.Columns {
		if !tbl.HasColumn(c) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownColumn, c)
		}
	}

	signals := make([]model.Signal, tbl.Len())
	for i := range signals {
		row := tbl.Row(i)
		signals[i] = model.Signal{
			Date:  row.Date(),
			Close: tbl.Value("Close", i),
			Buy:   rules.Buy(row),
			Sell:  rules.Sell(row),
		}
	}
	return signals, nil
}
