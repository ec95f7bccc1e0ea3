package table

import (
	"fmt"
	"strings"
)

// Op is a group-by reduction operator.
type Op int

const (
	OpSum Op = iota
	// OpMean is recognized but not implemented; it always fails with
	// ErrUnsupported.
	OpMean
)

func (o Op) String() string {
	switch o {
	case OpSum:
		return "sum"
	case OpMean:
		return "mean"
	default:
		return fmt.Sprintf("op(%d)", int(o))
	}
}

// ParseOp maps an operator name to an Op. The empty string means sum.
func ParseOp(s string) (Op, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sum":
		return OpSum, nil
	case "mean":
		return OpMean, nil
	default:
		return 0, fmt.Errorf("%w: aggregation operator %q", ErrUnsupported, s)
	}
}

// Aggregate groups t by the key column and reduces every other column with op.
func Aggregate(t *Table, key string, op Op) (*Table, error) {
	switch op {
	case OpSum:
		return AggregateSum(t, key)
	default:
		return nil, fmt.Errorf("%w: %s by key", ErrUnsupported, op)
	}
}

// AggregateSum returns one row per distinct value of the key column, in
// first-seen order. Numeric columns are summed per group, skipping empty
// cells; an Int column whose sums overflow int64 becomes Float. The key column
// is kept as is and placed first. Text columns other than the key are dropped.
func AggregateSum(t *Table, key string) (*Table, error) {
	keyCol := t.Column(key)
	if keyCol == nil {
		return nil, &UnknownKeyColumnError{Key: key, Columns: t.Names()}
	}

	groups := make(map[string]int)
	var firstRow []int
	rowGroup := make([]int, t.Rows())
	for i := range rowGroup {
		k := groupKey(keyCol, i)
		g, ok := groups[k]
		if !ok {
			g = len(firstRow)
			groups[k] = g
			firstRow = append(firstRow, i)
		}
		rowGroup[i] = g
	}

	kb := newBuilder(keyCol.Name, keyCol.Type, len(firstRow))
	for _, i := range firstRow {
		kb.appendFrom(keyCol, i)
	}
	out := &Table{Columns: []*Column{kb.done()}}

	for _, c := range t.Columns {
		if c == keyCol || !c.Type.Numeric() {
			continue
		}
		out.Columns = append(out.Columns, sumColumn(c, rowGroup, len(firstRow)))
	}
	return out, nil
}

// groupKey separates nulls from empty or equal-looking values.
func groupKey(c *Column, i int) string {
	if c.IsNull(i) {
		return "\x00null"
	}
	return "v" + c.Format(i)
}

// sumColumn sums c per group. Int columns stay Int unless a group sum would
// overflow int64, in which case the whole column is summed as Float.
func sumColumn(c *Column, rowGroup []int, groups int) *Column {
	if c.Type == Int {
		if sums, ok := sumInts(c, rowGroup, groups); ok {
			b := newBuilder(c.Name, Int, groups)
			for _, s := range sums {
				b.appendInt(s)
			}
			return b.done()
		}
	}
	sums := make([]float64, groups)
	for i, g := range rowGroup {
		if !c.IsNull(i) {
			sums[g] += c.Float(i)
		}
	}
	b := newBuilder(c.Name, Float, groups)
	for _, s := range sums {
		b.appendFloat(s)
	}
	return b.done()
}

func sumInts(c *Column, rowGroup []int, groups int) ([]int64, bool) {
	sums := make([]int64, groups)
	for i, g := range rowGroup {
		if c.IsNull(i) {
			continue
		}
		v := c.Ints[i]
		s := sums[g] + v
		if (v > 0 && s < sums[g]) || (v < 0 && s > sums[g]) {
			return nil, false
		}
		sums[g] = s
	}
	return sums, true
}
