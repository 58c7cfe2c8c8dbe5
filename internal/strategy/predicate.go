package strategy

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"SignalBacktest/internal/model"
)

// Predicate decides whether a row of the merged indicator table fires.
type Predicate func(r model.Row) bool

// comparators lists the supported operators; two-character ones first so
// that parsing never splits ">=" into ">".
var comparators = []struct {
	Op  string
	Cmp func(a, b float64) bool
}{
	{">=", func(a, b float64) bool { return a >= b }},
	{"<=", func(a, b float64) bool { return a <= b }},
	{"==", func(a, b float64) bool { return a == b }},
	{"!=", func(a, b float64) bool { return a != b }},
	{">", func(a, b float64) bool { return a > b }},
	{"<", func(a, b float64) bool { return a < b }},
}

func comparator(op string) (func(a, b float64) bool, bool) {
	for _, c := range comparators {
		if c.Op == op {
			return c.Cmp, true
		}
	}
	return nil, false
}

// Operand is either a column reference or a constant.
type Operand struct {
	Column string
	Value  float64
}

func (o Operand) resolve(r model.Row) float64 {
	if o.Column == "" {
		return o.Value
	}
	v, _ := r.Get(o.Column)
	return v
}

func (o Operand) String() string {
	if o.Column != "" {
		return o.Column
	}
	return strconv.FormatFloat(o.Value, 'f', -1, 64)
}

// Condition compares two operands. Missing columns and NaN cells never match.
type Condition struct {
	Left  Operand
	Op    string
	Right Operand
}

// ParseCondition parses "<operand> <op> <operand>", e.g. "RSI_14 < 55" or "Close > SMA_20".
func ParseCondition(s string) (Condition, error) {
	for _, c := range comparators {
		i := strings.Index(s, c.Op)
		if i < 0 {
			continue
		}
		left, right := strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(c.Op):])
		if left == "" || right == "" {
			return Condition{}, fmt.Errorf("condition %q: missing operand", s)
		}
		return Condition{Left: parseOperand(left), Op: c.Op, Right: parseOperand(right)}, nil
	}
	return Condition{}, fmt.Errorf("condition %q: no comparison operator", s)
}

func parseOperand(s string) Operand {
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return Operand{Value: v}
	}
	return Operand{Column: s}
}

// Columns returns the column names the condition references.
func (c Condition) Columns() []string {
	var cols []string
	for _, o := range []Operand{c.Left, c.Right} {
		if o.Column != "" {
			cols = append(cols, o.Column)
		}
	}
	return cols
}

// Predicate compiles the condition.
func (c Condition) Predicate() Predicate {
	cmp, ok := comparator(c.Op)
	if !ok {
		return func(model.Row) bool { return false }
	}
	return func(r model.Row) bool {
		a, b := c.Left.resolve(r), c.Right.resolve(r)
		if math.IsNaN(a) || math.IsNaN(b) {
			return false
		}
		return cmp(a, b)
	}
}

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %s", c.Left, c.Op, c.Right)
}

// Compare builds "column op value".
func Compare(column, op string, value float64) Predicate {
	return Condition{Left: Operand{Column: column}, Op: op, Right: Operand{Value: value}}.Predicate()
}

// CompareColumns builds "left op right" over two columns.
func CompareColumns(left, op, right string) Predicate {
	return Condition{Left: Operand{Column: left}, Op: op, Right: Operand{Column: right}}.Predicate()
}

// All matches when every predicate matches. All() never matches.
func All(ps ...Predicate) Predicate {
	return func(r model.Row) bool {
		if len(ps) == 0 {
			return false
		}
		for _, p := range ps {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Any matches when at least one predicate matches.
func Any(ps ...Predicate) Predicate {
	return func(r model.Row) bool {
		for _, p := range ps {
			if p(r) {
				return true
			}
		}
		return false
	}
}

// Not negates a predicate.
func Not(p Predicate) Predicate {
	return func(r model.Row) bool { return !p(r) }
}
