package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"cleen/config"
	"cleen/dataset"
	"cleen/metrics"
	"cleen/monitor"
	"cleen/report"
)

type stepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

type alertLog struct {
	mu       sync.Mutex
	messages []string
}

func (a *alertLog) Alert(m string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, m)
}

// memLoader serves datasets by path.
func memLoader(sets map[string]*dataset.Dataset) Loader {
	return func(_ context.Context, src config.SourceConfig, _ *zap.Logger) (*dataset.Dataset, error) {
		d, ok := sets[src.Path]
		if !ok {
			return nil, os.ErrNotExist
		}
		return d, nil
	}
}

func job(t *testing.T, name, in, out string) config.JobConfig {
	return config.JobConfig{
		Name:       name,
		Input:      config.SourceConfig{Kind: "csv", Path: in},
		Output:     config.SourceConfig{Kind: "csv", Path: out},
		ReportPath: filepath.Join(t.TempDir(), name+".html"),
	}
}

func newTestRunner(workers int, sets map[string]*dataset.Dataset, step time.Duration) (*Runner, *alertLog) {
	alerts := &alertLog{}
	clock := &stepClock{now: time.Unix(0, 0), step: step}
	return &Runner{
		Workers:  workers,
		Report:   config.ReportConfig{ColumnStats: true, ValueDistributions: true, CorrelationMatrix: true},
		Log:      zap.NewNop(),
		Metrics:  metrics.NewRecorder(),
		Alerter:  alerts,
		Load:     memLoader(sets),
		Monitors: []monitor.Option{monitor.WithClock(clock.Now)},
	}, alerts
}

func sets() map[string]*dataset.Dataset {
	clean := dataset.MustNew(
		dataset.NewColumn("v", dataset.Float64, 1.0, 2.0, 3.0, 4.0, 5.0, 6.0, 7.0, 8.0),
	)
	return map[string]*dataset.Dataset{
		"raw":   dataset.NewEmpty(10),
		"clean": clean,
		"empty": dataset.NewEmpty(0),
	}
}

func TestRun_ResultsInJobOrder(t *testing.T) {
	r, _ := newTestRunner(3, sets(), time.Second)
	jobs := []config.JobConfig{
		job(t, "a", "raw", "clean"),
		job(t, "b", "raw", "missing"),
		job(t, "c", "empty", "clean"),
		job(t, "d", "raw", "clean"),
	}

	results := r.Run(context.Background(), jobs)
	require.Len(t, results, 4)
	for i, res := range results {
		assert.Equal(t, jobs[i].Name, res.Job)
	}

	require.NoError(t, results[0].Err)
	assert.Equal(t, 0.8, results[0].Snapshot.Rows.SuccessRate)
	assert.ErrorIs(t, results[1].Err, os.ErrNotExist)
	assert.ErrorIs(t, results[2].Err, report.ErrNoInputRows)
	require.NoError(t, results[3].Err)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.Metrics.JobsProcessed.WithLabelValues("success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.Metrics.JobsProcessed.WithLabelValues("failed")))
}

func TestRun_WritesReportWithProcessingTime(t *testing.T) {
	r, alerts := newTestRunner(1, sets(), 5*time.Second)
	j := job(t, "orders", "raw", "clean")

	results := r.Run(context.Background(), []config.JobConfig{j})
	require.NoError(t, results[0].Err)

	raw, err := os.ReadFile(j.ReportPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "<li>Success Rate: 80.00%</li>")
	assert.Contains(t, string(raw), "<li>Processing Time: 5s</li>")

	require.NotNil(t, results[0].Snapshot.ProcessingTime)
	assert.Equal(t, 5*time.Second, *results[0].Snapshot.ProcessingTime)
	assert.Empty(t, alerts.messages)
	assert.Equal(t, 5.0, testutil.ToFloat64(r.Metrics.JobDuration.WithLabelValues("orders")))
}

func TestRun_LongJobAlerts(t *testing.T) {
	r, alerts := newTestRunner(1, sets(), 2*time.Hour)

	results := r.Run(context.Background(), []config.JobConfig{job(t, "slow", "raw", "clean")})
	require.NoError(t, results[0].Err)

	require.Len(t, alerts.messages, 1)
	assert.Equal(t, monitor.LongRunningMessage, alerts.messages[0])
	assert.Equal(t, 1.0, testutil.ToFloat64(r.Metrics.AlertsTotal))
}

func TestRun_CancelledContext(t *testing.T) {
	r, _ := newTestRunner(2, sets(), time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.Run(ctx, []config.JobConfig{job(t, "a", "raw", "clean"), job(t, "b", "raw", "clean")})
	for _, res := range results {
		assert.True(t, errors.Is(res.Err, context.Canceled))
	}
}

func TestRun_LoadsFromFiles(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("a\n1\n2\n3\n4\n"), 0o644))
	require.NoError(t, os.WriteFile(out, []byte("a\n1\n2\n3\n"), 0o644))

	cfg := &config.Config{Workers: 1, Report: config.ReportConfig{ColumnStats: true}}
	r := New(cfg, nil, nil)
	r.Alerter = &alertLog{}

	j := config.JobConfig{
		Name:       "files",
		Input:      config.SourceConfig{Kind: dataset.KindCSV, Path: in},
		Output:     config.SourceConfig{Kind: dataset.KindCSV, Path: out},
		ReportPath: filepath.Join(dir, "report.html"),
	}
	results := r.Run(context.Background(), []config.JobConfig{j})
	require.NoError(t, results[0].Err)
	assert.Equal(t, 0.75, results[0].Snapshot.Rows.SuccessRate)
	assert.FileExists(t, j.ReportPath)
}

func TestNew_AlertChannels(t *testing.T) {
	r := New(&config.Config{Workers: 1}, nil, nil)
	assert.IsType(t, &monitor.LogAlerter{}, r.Alerter)

	r = New(&config.Config{Workers: 1, ConsoleAlerts: true}, nil, nil)
	multi, ok := r.Alerter.(monitor.MultiAlerter)
	require.True(t, ok)
	require.Len(t, multi, 2)
	assert.IsType(t, &monitor.LogAlerter{}, multi[0])
	assert.IsType(t, &monitor.WriterAlerter{}, multi[1])
}

func TestNew_DefaultAlertIsOneLogLine(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	r := New(&config.Config{Workers: 1, Report: config.ReportConfig{ColumnStats: true}}, zap.New(core), nil)
	r.Load = memLoader(sets())
	clock := &stepClock{now: time.Unix(0, 0), step: 2 * time.Hour}
	r.Monitors = []monitor.Option{monitor.WithClock(clock.Now)}

	results := r.Run(context.Background(), []config.JobConfig{job(t, "slow", "raw", "clean")})
	require.NoError(t, results[0].Err)

	alerts := logs.FilterMessage(monitor.FormatAlert(monitor.LongRunningMessage))
	assert.Equal(t, 1, alerts.Len())
}
