// Package runner executes report jobs on a small worker pool. Every job
// owns its own DataQualityReport and ResourceMonitor.
package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"cleen/config"
	"cleen/dataset"
	"cleen/logger"
	"cleen/metrics"
	"cleen/monitor"
	"cleen/report"
)

// Loader turns a source description into a dataset.
type Loader func(ctx context.Context, src config.SourceConfig, log *zap.Logger) (*dataset.Dataset, error)

// LoadSource is the default Loader.
func LoadSource(ctx context.Context, src config.SourceConfig, log *zap.Logger) (*dataset.Dataset, error) {
	return dataset.LoadFrom(ctx, src.Kind, src.Path, src.Table, log)
}

// Result is the outcome of one job.
type Result struct {
	Job      string
	Snapshot report.Snapshot
	Err      error
}

// Runner holds what every job shares.
type Runner struct {
	Workers  int
	Report   config.ReportConfig
	Log      *zap.Logger
	Metrics  *metrics.Recorder
	Alerter  monitor.Alerter
	Load     Loader
	Monitors []monitor.Option // extra options for every job's monitor, e.g. a clock
}

// New builds a Runner from cfg. Alerts go to log; cfg.ConsoleAlerts adds a
// plain stdout line per alert.
func New(cfg *config.Config, log *zap.Logger, rec *metrics.Recorder) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	var alerter monitor.Alerter = monitor.NewLogAlerter(log)
	if cfg.ConsoleAlerts {
		alerter = monitor.MultiAlerter{alerter, monitor.NewWriterAlerter(nil)}
	}
	return &Runner{
		Workers: cfg.Workers,
		Report:  cfg.Report,
		Log:     log,
		Metrics: rec,
		Alerter: alerter,
		Load:    LoadSource,
	}
}

type task struct {
	idx int
	job config.JobConfig
}

type taskResult struct {
	idx int
	res Result
}

// Run processes jobs and returns one Result per job in input order. Jobs not
// yet started when ctx is cancelled fail with ctx.Err().
func (r *Runner) Run(ctx context.Context, jobs []config.JobConfig) []Result {
	workers := r.Workers
	if workers < 1 {
		workers = 1
	}

	tasks := make(chan task, len(jobs))
	results := make(chan taskResult, len(jobs))

	for w := 1; w <= workers; w++ {
		go r.worker(ctx, w, tasks, results)
	}
	for i, j := range jobs {
		tasks <- task{idx: i, job: j}
	}
	close(tasks)

	out := make([]Result, len(jobs))
	for range jobs {
		tr := <-results
		out[tr.idx] = tr.res
	}
	return out
}

func (r *Runner) worker(ctx context.Context, id int, tasks <-chan task, results chan<- taskResult) {
	for t := range tasks {
		log := logger.WithJob(r.Log, t.job.Name).With(zap.Int("worker", id))
		res := Result{Job: t.job.Name}
		if err := ctx.Err(); err != nil {
			res.Err = err
		} else {
			res.Snapshot, res.Err = r.runJob(logger.WithContext(ctx, log), t.job)
		}

		status := "success"
		if res.Err != nil {
			status = "failed"
			log.Error("job failed", zap.Error(res.Err))
		} else {
			log.Info("job finished")
		}
		if r.Metrics != nil {
			r.Metrics.JobDone(status)
		}
		results <- taskResult{idx: t.idx, res: res}
	}
}

func (r *Runner) runJob(ctx context.Context, job config.JobConfig) (report.Snapshot, error) {
	log := logger.FromContext(ctx, r.Log)

	alerter := r.Alerter
	if r.Metrics != nil {
		alerter = r.Metrics.Alerter(alerter)
	}
	opts := append([]monitor.Option{monitor.WithLogger(log), monitor.WithAlerter(alerter)}, r.Monitors...)
	mon := monitor.New(opts...)

	rep := report.New(report.Options{
		OutputPath:         job.ReportPath,
		ColumnStats:        r.Report.ColumnStats,
		ValueDistributions: r.Report.ValueDistributions,
		CorrelationMatrix:  r.Report.CorrelationMatrix,
	}, log)

	err := mon.Track(func() error {
		in, err := r.Load(ctx, job.Input, log)
		if err != nil {
			return fmt.Errorf("load input: %w", err)
		}
		out, err := r.Load(ctx, job.Output, log)
		if err != nil {
			return fmt.Errorf("load output: %w", err)
		}
		return rep.Collect(in, out)
	})
	if r.Metrics != nil {
		r.Metrics.ObserveMonitor(job.Name, mon)
	}
	mon.AlertOnAnomalies()
	if err != nil {
		return rep.Snapshot(), err
	}

	if d, ok := mon.Duration(); ok {
		rep.SetProcessingTime(d)
	}
	if err := rep.Export(); err != nil {
		return rep.Snapshot(), err
	}

	snap := rep.Snapshot()
	if r.Metrics != nil {
		r.Metrics.ObserveSnapshot(job.Name, snap)
	}
	return snap, nil
}
