// Package metrics exposes report snapshots, measured durations and alerts
// as Prometheus metrics on a private registry.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"cleen/monitor"
	"cleen/report"
)

const namespace = "cleen"

// Recorder owns the gauges and counters of one run.
type Recorder struct {
	registry *prometheus.Registry

	InputRows     *prometheus.GaugeVec
	OutputRows    *prometheus.GaugeVec
	SuccessRate   *prometheus.GaugeVec
	ColumnNulls   *prometheus.GaugeVec
	JobDuration   *prometheus.GaugeVec
	AlertsTotal   prometheus.Counter
	JobsProcessed *prometheus.CounterVec
}

// NewRecorder registers every metric on a fresh registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		InputRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "input_rows",
			Help:      "Rows in the input dataset of the latest collect.",
		}, []string{"job"}),
		OutputRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "output_rows",
			Help:      "Rows in the output dataset of the latest collect.",
		}, []string{"job"}),
		SuccessRate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "success_rate",
			Help:      "Output rows divided by input rows.",
		}, []string{"job"}),
		ColumnNulls: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "column_null_rate",
			Help:      "Fraction of missing entries per output column.",
		}, []string{"job", "column"}),
		JobDuration: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_duration_seconds",
			Help:      "Wall-clock duration of the measured job.",
		}, []string{"job"}),
		AlertsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alerts_total",
			Help:      "Anomaly alerts sent.",
		}),
		JobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "jobs_processed_total",
			Help:      "Jobs finished, by status.",
		}, []string{"status"}),
	}
	r.registry.MustRegister(
		r.InputRows,
		r.OutputRows,
		r.SuccessRate,
		r.ColumnNulls,
		r.JobDuration,
		r.AlertsTotal,
		r.JobsProcessed,
	)
	return r
}

// Gatherer exposes the registry, e.g. for promhttp.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	return r.registry
}

// ObserveSnapshot publishes the row counts and defined null rates of snap.
func (r *Recorder) ObserveSnapshot(job string, snap report.Snapshot) {
	if snap.Rows != nil {
		r.InputRows.WithLabelValues(job).Set(float64(snap.Rows.Input))
		r.OutputRows.WithLabelValues(job).Set(float64(snap.Rows.Output))
		r.SuccessRate.WithLabelValues(job).Set(snap.Rows.SuccessRate)
	}
	for _, c := range snap.ColumnMetrics {
		if c.NullRate.Defined {
			r.ColumnNulls.WithLabelValues(job, c.Name).Set(c.NullRate.Value)
		}
	}
}

// ObserveMonitor publishes the measured duration of m, if any.
func (r *Recorder) ObserveMonitor(job string, m *monitor.ResourceMonitor) {
	if d, ok := m.Duration(); ok {
		r.JobDuration.WithLabelValues(job).Set(d.Seconds())
	}
}

// JobDone counts a finished job; status is "success" or "failed".
func (r *Recorder) JobDone(status string) {
	r.JobsProcessed.WithLabelValues(status).Inc()
}

// Alerter wraps next so every alert is also counted.
func (r *Recorder) Alerter(next monitor.Alerter) monitor.Alerter {
	return monitor.AlerterFunc(func(message string) {
		r.AlertsTotal.Inc()
		if next != nil {
			next.Alert(message)
		}
	})
}

// WriteTextfile writes all metrics to path in text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
