package report

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"cleen/dataset"
)

// columnStats computes a ColumnStat per column of d in column order.
func columnStats(d *dataset.Dataset) []ColumnStat {
	cols := d.Columns()
	out := make([]ColumnStat, 0, len(cols))
	for _, c := range cols {
		out = append(out, columnStat(c, d.Rows()))
	}
	return out
}

func columnStat(c *dataset.Column, rows int) ColumnStat {
	nulls := c.NullCount()
	cs := ColumnStat{
		Name:         c.Name,
		UniqueValues: uniqueValues(c, nulls),
		DataType:     string(c.Type),
	}
	if rows > 0 {
		cs.NullRate = Rate{Value: float64(nulls) / float64(rows), Defined: true}
	}
	if c.Type.Summarizable() {
		cs.Numeric = numericStats(c.Floats())
	}
	return cs
}

// uniqueValues counts distinct non-missing values; missing entries, when
// present, add one category of their own.
func uniqueValues(c *dataset.Column, nulls int) int {
	seen := make(map[any]struct{}, len(c.Values))
	for i, v := range c.Values {
		if c.IsNull(i) {
			continue
		}
		seen[uniqueKey(v)] = struct{}{}
	}
	n := len(seen)
	if nulls > 0 {
		n++
	}
	return n
}

func uniqueKey(v any) any {
	if reflect.TypeOf(v).Comparable() {
		return v
	}
	return fmt.Sprintf("%T:%v", v, v)
}

func numericStats(xs []float64) *NumericStats {
	if len(xs) == 0 {
		nan := math.NaN()
		return &NumericStats{Mean: nan, Std: nan, Min: nan, Max: nan}
	}
	return &NumericStats{
		Mean: stat.Mean(xs, nil),
		Std:  stat.StdDev(xs, nil),
		Min:  floats.Min(xs),
		Max:  floats.Max(xs),
	}
}
