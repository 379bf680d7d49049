package report

import (
	"fmt"
	"time"
)

// Snapshot is the metrics record a DataQualityReport accumulates over its
// lifetime. A nil field has never been computed.
type Snapshot struct {
	Timestamp time.Time

	// Rows is overwritten by every successful Collect.
	Rows *RowCounts

	// ColumnMetrics holds one entry per output column in column order. It is
	// replaced by Collect only when column statistics are enabled.
	ColumnMetrics []ColumnStat

	// Correlation is replaced by Collect only when the correlation matrix is
	// enabled and the output has at least one numeric column.
	Correlation *CorrelationMatrix

	// ProcessingTime is supplied by the caller that measured the stage.
	ProcessingTime *time.Duration
}

// RowCounts holds the row totals of the latest Collect.
type RowCounts struct {
	Input       int
	Output      int
	SuccessRate float64
}

// ColumnStat describes one output column.
type ColumnStat struct {
	Name         string
	NullRate     Rate
	UniqueValues int
	DataType     string

	// Numeric is nil for object columns. Bool columns are summarized as 0/1.
	Numeric *NumericStats
}

// NumericStats are computed over the non-missing entries. Std uses the
// sample (N-1) denominator, so a single value yields NaN.
type NumericStats struct {
	Mean float64
	Std  float64
	Min  float64
	Max  float64
}

// Rate is a fraction in [0,1] that is undefined when its denominator is
// zero.
type Rate struct {
	Value   float64
	Defined bool
}

// Percent renders the rate as a percentage with two decimals, or "n/a".
func (r Rate) Percent() string {
	if !r.Defined {
		return "n/a"
	}
	return formatPercent(r.Value)
}

func formatPercent(f float64) string {
	return fmt.Sprintf("%.2f%%", f*100)
}

// Column returns the statistics recorded for name.
func (s Snapshot) Column(name string) (ColumnStat, bool) {
	for _, c := range s.ColumnMetrics {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnStat{}, false
}

func (s Snapshot) clone() Snapshot {
	out := Snapshot{Timestamp: s.Timestamp}
	if s.Rows != nil {
		rows := *s.Rows
		out.Rows = &rows
	}
	if s.ColumnMetrics != nil {
		out.ColumnMetrics = make([]ColumnStat, len(s.ColumnMetrics))
		for i, c := range s.ColumnMetrics {
			if c.Numeric != nil {
				n := *c.Numeric
				c.Numeric = &n
			}
			out.ColumnMetrics[i] = c
		}
	}
	if s.Correlation != nil {
		out.Correlation = s.Correlation.clone()
	}
	if s.ProcessingTime != nil {
		d := *s.ProcessingTime
		out.ProcessingTime = &d
	}
	return out
}
