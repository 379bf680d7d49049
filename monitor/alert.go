package monitor

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
)

// Alerter is a notification channel. Deployments plug email, paging or
// metrics pushes in behind it.
type Alerter interface {
	Alert(message string)
}

// AlerterFunc adapts a function to Alerter.
type AlerterFunc func(message string)

// Alert implements Alerter.
func (f AlerterFunc) Alert(message string) { f(message) }

// FormatAlert returns the single-line form every channel emits.
func FormatAlert(message string) string {
	return "ALERT: " + message
}

// LogAlerter writes alerts to a zap logger at warn level.
type LogAlerter struct {
	log *zap.Logger
}

// NewLogAlerter returns a LogAlerter. A nil logger discards alerts.
func NewLogAlerter(log *zap.Logger) *LogAlerter {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogAlerter{log: log}
}

// Alert implements Alerter.
func (a *LogAlerter) Alert(message string) {
	a.log.Warn(FormatAlert(message))
}

// WriterAlerter prints alerts as plain lines, e.g. to the console.
type WriterAlerter struct {
	w io.Writer
}

// NewWriterAlerter writes to w, or to os.Stdout when w is nil.
func NewWriterAlerter(w io.Writer) *WriterAlerter {
	if w == nil {
		w = os.Stdout
	}
	return &WriterAlerter{w: w}
}

// Alert implements Alerter.
func (a *WriterAlerter) Alert(message string) {
	fmt.Fprintln(a.w, FormatAlert(message))
}

// MultiAlerter fans an alert out to every channel in order.
type MultiAlerter []Alerter

// Alert implements Alerter.
func (m MultiAlerter) Alert(message string) {
	for _, a := range m {
		a.Alert(message)
	}
}
