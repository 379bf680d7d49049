package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"

	"go.uber.org/zap"
)

// Layouts for the report timestamp. The microsecond part is left out when
// it is zero.
const (
	TimestampLayout      = "2006-01-02 15:04:05"
	TimestampLayoutMicro = "2006-01-02 15:04:05.000000"
)

// FormatTimestamp renders t at microsecond precision, dropping the
// fraction when t falls on a whole second.
func FormatTimestamp(t time.Time) string {
	if t.Nanosecond()/int(time.Microsecond) == 0 {
		return t.Format(TimestampLayout)
	}
	return t.Format(TimestampLayoutMicro)
}

var reportTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Data Quality Report</title>
</head>
<body>
<h1>Data Quality Report</h1>
<h2>Overview</h2>
<ul>
    <li>Timestamp: {{.Timestamp}}</li>
{{- if .ProcessingTime}}
    <li>Processing Time: {{.ProcessingTime}}</li>
{{- end}}
    <li>Success Rate: {{.SuccessRate}}</li>
    <li>Input Rows: {{.InputRows}}</li>
    <li>Output Rows: {{.OutputRows}}</li>
</ul>
{{- if .HasColumns}}
<h2>Column Metrics</h2>
{{- range .Columns}}
<h3>{{.Name}}</h3>
<ul>
    <li>Data Type: {{.DataType}}</li>
    <li>Null Rate: {{.NullRate}}</li>
    <li>Unique Values: {{.UniqueValues}}</li>
</ul>
{{- end}}
{{- end}}
</body>
</html>
`))

type reportView struct {
	Timestamp      string
	ProcessingTime string
	SuccessRate    string
	InputRows      int
	OutputRows     int
	HasColumns     bool
	Columns        []columnView
}

type columnView struct {
	Name         string
	DataType     string
	NullRate     string
	UniqueValues int
}

func newReportView(s Snapshot) reportView {
	v := reportView{
		Timestamp:   FormatTimestamp(s.Timestamp),
		SuccessRate: formatPercent(s.Rows.SuccessRate),
		InputRows:   s.Rows.Input,
		OutputRows:  s.Rows.Output,
		HasColumns:  s.ColumnMetrics != nil,
	}
	if s.ProcessingTime != nil {
		v.ProcessingTime = s.ProcessingTime.String()
	}
	for _, c := range s.ColumnMetrics {
		v.Columns = append(v.Columns, columnView{
			Name:         c.Name,
			DataType:     c.DataType,
			NullRate:     c.NullRate.Percent(),
			UniqueValues: c.UniqueValues,
		})
	}
	return v
}

// Render writes the HTML document for the current snapshot to w.
func (r *DataQualityReport) Render(w io.Writer) error {
	if r.snap.Rows == nil {
		return ErrNotCollected
	}
	return reportTmpl.Execute(w, newReportView(r.snap))
}

// Export renders the report and writes it to the configured output path,
// replacing any existing file. Write failures are returned wrapped; the
// underlying *fs.PathError is reachable with errors.As.
func (r *DataQualityReport) Export() error {
	if r.opts.OutputPath == "" {
		return ErrNoOutputPath
	}
	var buf bytes.Buffer
	if err := r.Render(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(r.opts.OutputPath, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	r.log.Info("quality report exported",
		zap.String("path", r.opts.OutputPath),
		zap.Int("bytes", buf.Len()))
	return nil
}
