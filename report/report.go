// Package report summarises the input and output datasets of a pipeline
// stage into a quality Snapshot and renders it as a static HTML document.
//
// A DataQualityReport is owned by a single caller. Collect may be called
// repeatedly; each call merges into the same Snapshot instead of replacing
// it, so keys a later call does not touch keep their earlier values.
package report

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"cleen/dataset"
)

var (
	// ErrNoInputRows is returned by Collect when the success rate would
	// divide by zero.
	ErrNoInputRows = errors.New("report: input dataset has no rows")

	// ErrNotCollected is returned by Export before any successful Collect.
	ErrNotCollected = errors.New("report: no metrics collected")

	// ErrNoOutputPath is returned by Export when no destination is set.
	ErrNoOutputPath = errors.New("report: output path not configured")

	// ErrNilDataset is returned by Collect when either dataset is nil.
	ErrNilDataset = errors.New("report: nil dataset")
)

// Options configures which metrics a report computes and where it is
// written.
type Options struct {
	// OutputPath is the destination of Export.
	OutputPath string

	// ColumnStats enables per-column statistics.
	ColumnStats bool

	// ValueDistributions is reserved; it has no effect on what is computed.
	ValueDistributions bool

	// CorrelationMatrix enables the Pearson matrix over numeric columns.
	CorrelationMatrix bool

	// Timestamp overrides the snapshot timestamp. Defaults to time.Now().
	Timestamp *time.Time
}

// DefaultOptions enables every metric.
func DefaultOptions(outputPath string) Options {
	return Options{
		OutputPath:         outputPath,
		ColumnStats:        true,
		ValueDistributions: true,
		CorrelationMatrix:  true,
	}
}

// DataQualityReport accumulates a Snapshot from input/output dataset pairs.
type DataQualityReport struct {
	opts Options
	snap Snapshot
	log  *zap.Logger
}

// New creates a report. log may be nil.
func New(opts Options, log *zap.Logger) *DataQualityReport {
	if log == nil {
		log = zap.NewNop()
	}
	ts := time.Now()
	if opts.Timestamp != nil {
		ts = *opts.Timestamp
	}
	return &DataQualityReport{
		opts: opts,
		snap: Snapshot{Timestamp: ts},
		log:  log,
	}
}

// Options returns the configuration the report was built with.
func (r *DataQualityReport) Options() Options {
	return r.opts
}

// Collect computes metrics for an input/output pair and merges them into
// the snapshot. Row counts are always replaced; column metrics and the
// correlation matrix are replaced only when enabled and computable.
//
// Nothing is merged unless every metric was computed, so a failing call
// leaves the snapshot as it was.
func (r *DataQualityReport) Collect(input, output *dataset.Dataset) error {
	if input == nil || output == nil {
		return ErrNilDataset
	}
	in, out := input.Rows(), output.Rows()
	if in == 0 {
		return ErrNoInputRows
	}
	rows := RowCounts{
		Input:       in,
		Output:      out,
		SuccessRate: float64(out) / float64(in),
	}

	var cols []ColumnStat
	if r.opts.ColumnStats {
		cols = columnStats(output)
	}

	var corr *CorrelationMatrix
	if r.opts.CorrelationMatrix {
		if numeric := output.NumericColumns(); len(numeric) > 0 {
			corr = Correlate(numeric)
		}
	}

	r.snap.Rows = &rows
	if cols != nil {
		r.snap.ColumnMetrics = cols
	}
	if corr != nil {
		r.snap.Correlation = corr
	}

	r.log.Debug("quality metrics collected",
		zap.Int("input_rows", in),
		zap.Int("output_rows", out),
		zap.Float64("success_rate", rows.SuccessRate),
		zap.Int("columns", len(cols)),
		zap.Bool("correlation", corr != nil))
	return nil
}

// SetProcessingTime records how long the measured stage took.
func (r *DataQualityReport) SetProcessingTime(d time.Duration) {
	r.snap.ProcessingTime = &d
}

// Snapshot returns a copy of the accumulated metrics.
func (r *DataQualityReport) Snapshot() Snapshot {
	return r.snap.clone()
}
