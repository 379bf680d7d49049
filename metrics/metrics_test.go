package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cleen/dataset"
	"cleen/monitor"
	"cleen/report"
)

func collectedSnapshot(t *testing.T) report.Snapshot {
	t.Helper()
	r := report.New(report.DefaultOptions(""), nil)
	out := dataset.MustNew(
		dataset.NewColumn("a", dataset.Float64, 1.0, nil, 3.0, 4.0),
	)
	require.NoError(t, r.Collect(dataset.NewEmpty(5), out))
	return r.Snapshot()
}

func TestObserveSnapshot(t *testing.T) {
	rec := NewRecorder()
	rec.ObserveSnapshot("orders", collectedSnapshot(t))

	assert.Equal(t, 5.0, testutil.ToFloat64(rec.InputRows.WithLabelValues("orders")))
	assert.Equal(t, 4.0, testutil.ToFloat64(rec.OutputRows.WithLabelValues("orders")))
	assert.Equal(t, 0.8, testutil.ToFloat64(rec.SuccessRate.WithLabelValues("orders")))
	assert.Equal(t, 0.25, testutil.ToFloat64(rec.ColumnNulls.WithLabelValues("orders", "a")))
}

func TestObserveSnapshot_BeforeCollect(t *testing.T) {
	rec := NewRecorder()
	rec.ObserveSnapshot("empty", report.New(report.DefaultOptions(""), nil).Snapshot())
	assert.Equal(t, 0, testutil.CollectAndCount(rec.InputRows))
}

func TestObserveMonitor(t *testing.T) {
	now := time.Unix(0, 0)
	m := monitor.New(monitor.WithClock(func() time.Time { return now }))
	rec := NewRecorder()

	rec.ObserveMonitor("orders", m)
	assert.Equal(t, 0, testutil.CollectAndCount(rec.JobDuration))

	m.Start()
	now = now.Add(90 * time.Second)
	_, err := m.Stop()
	require.NoError(t, err)

	rec.ObserveMonitor("orders", m)
	assert.Equal(t, 90.0, testutil.ToFloat64(rec.JobDuration.WithLabelValues("orders")))
}

func TestAlerterCountsAndForwards(t *testing.T) {
	rec := NewRecorder()
	var got []string
	a := rec.Alerter(monitor.AlerterFunc(func(m string) { got = append(got, m) }))

	a.Alert("one")
	a.Alert("two")

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.AlertsTotal))
	assert.Equal(t, []string{"one", "two"}, got)
}

func TestJobDone(t *testing.T) {
	rec := NewRecorder()
	rec.JobDone("success")
	rec.JobDone("success")
	rec.JobDone("failed")

	assert.Equal(t, 2.0, testutil.ToFloat64(rec.JobsProcessed.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(rec.JobsProcessed.WithLabelValues("failed")))
}

func TestWriteTextfile(t *testing.T) {
	rec := NewRecorder()
	rec.ObserveSnapshot("orders", collectedSnapshot(t))
	path := filepath.Join(t.TempDir(), "cleen.prom")

	require.NoError(t, rec.WriteTextfile(path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `cleen_report_success_rate{job="orders"} 0.8`)
	assert.Contains(t, string(raw), `cleen_report_column_null_rate{column="a",job="orders"} 0.25`)
}
