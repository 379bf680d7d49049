// Package monitor brackets a unit of work with start/stop timestamps and
// flags intervals that ran longer than LongRunningThreshold.
package monitor

import (
	"errors"
	"time"

	"go.uber.org/zap"
)

// LongRunningThreshold is the duration above which AlertOnAnomalies fires.
const LongRunningThreshold = time.Hour

// LongRunningMessage is the alert text for a long running interval.
const LongRunningMessage = "Long running process detected"

// ErrNotStarted is returned by Stop when the monitor is not running.
var ErrNotStarted = errors.New("monitor: stop called before start")

// State is the lifecycle position of a ResourceMonitor.
type State int

const (
	// Idle is a monitor that has not been started.
	Idle State = iota
	// Running is a monitor between Start and Stop.
	Running
	// Stopped is a monitor with a measured duration.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// ResourceMonitor measures one interval at a time. It is not safe for
// concurrent use.
type ResourceMonitor struct {
	now     func() time.Time
	alerter Alerter
	log     *zap.Logger

	state    State
	started  time.Time
	duration *time.Duration
}

// Option customises a ResourceMonitor.
type Option func(*ResourceMonitor)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *ResourceMonitor) { m.now = now }
}

// WithAlerter sets the notification channel.
func WithAlerter(a Alerter) Option {
	return func(m *ResourceMonitor) { m.alerter = a }
}

// WithLogger sets the logger used for lifecycle events and, unless
// WithAlerter is given, for alerts.
func WithLogger(l *zap.Logger) Option {
	return func(m *ResourceMonitor) { m.log = l }
}

// New returns an idle monitor. Without WithAlerter, alerts go to the logger.
func New(opts ...Option) *ResourceMonitor {
	m := &ResourceMonitor{now: time.Now, log: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	if m.alerter == nil {
		m.alerter = NewLogAlerter(m.log)
	}
	return m
}

// Start records the start instant and returns the monitor so calls can be
// chained. Starting again begins a new interval.
func (m *ResourceMonitor) Start() *ResourceMonitor {
	m.started = m.now()
	m.state = Running
	m.log.Debug("monitor started", zap.Time("at", m.started))
	return m
}

// Stop ends the running interval and stores its duration.
func (m *ResourceMonitor) Stop() (*ResourceMonitor, error) {
	if m.state != Running {
		return m, ErrNotStarted
	}
	d := m.now().Sub(m.started)
	m.duration = &d
	m.state = Stopped
	m.log.Debug("monitor stopped", zap.Duration("duration", d))
	return m, nil
}

// Track runs fn inside a Start/Stop bracket. fn's error wins over Stop's.
func (m *ResourceMonitor) Track(fn func() error) error {
	m.Start()
	err := fn()
	if _, stopErr := m.Stop(); err == nil {
		err = stopErr
	}
	return err
}

// State returns the current lifecycle state.
func (m *ResourceMonitor) State() State {
	return m.state
}

// Duration returns the last measured interval. ok is false until the first
// successful Stop.
func (m *ResourceMonitor) Duration() (d time.Duration, ok bool) {
	if m.duration == nil {
		return 0, false
	}
	return *m.duration, true
}

// AlertOnAnomalies sends one alert when the measured duration exceeds
// LongRunningThreshold. A missing duration counts as zero.
func (m *ResourceMonitor) AlertOnAnomalies() {
	d, _ := m.Duration()
	if d > LongRunningThreshold {
		m.alerter.Alert(LongRunningMessage)
	}
}
