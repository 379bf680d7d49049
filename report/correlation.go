package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"cleen/dataset"
)

// CorrelationMatrix holds pairwise Pearson coefficients between numeric
// columns. It is symmetric; the diagonal is 1 for every column with
// non-zero variance and NaN otherwise.
type CorrelationMatrix struct {
	columns []string
	values  map[string]map[string]float64
}

// Correlate computes the matrix over cols using, for each pair, only the
// rows where both entries are present.
func Correlate(cols []*dataset.Column) *CorrelationMatrix {
	m := &CorrelationMatrix{
		columns: make([]string, len(cols)),
		values:  make(map[string]map[string]float64, len(cols)),
	}
	for i, c := range cols {
		m.columns[i] = c.Name
		m.values[c.Name] = make(map[string]float64, len(cols))
	}

	for i, a := range cols {
		m.values[a.Name][a.Name] = diagonal(a)
		for _, b := range cols[i+1:] {
			r := pearson(a, b)
			m.values[a.Name][b.Name] = r
			m.values[b.Name][a.Name] = r
		}
	}
	return m
}

func diagonal(c *dataset.Column) float64 {
	xs := c.Floats()
	if len(xs) < 2 || stat.Variance(xs, nil) == 0 {
		return math.NaN()
	}
	return 1
}

func pearson(a, b *dataset.Column) float64 {
	var xs, ys []float64
	for i := 0; i < a.Len(); i++ {
		x, okx := a.Float(i)
		y, oky := b.Float(i)
		if okx && oky {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// Columns returns the column names in matrix order.
func (m *CorrelationMatrix) Columns() []string {
	out := make([]string, len(m.columns))
	copy(out, m.columns)
	return out
}

// Get returns corr(a, b). ok is false when either column is not part of the
// matrix.
func (m *CorrelationMatrix) Get(a, b string) (float64, bool) {
	row, ok := m.values[a]
	if !ok {
		return 0, false
	}
	v, ok := row[b]
	return v, ok
}

// Map returns the matrix as column -> column -> coefficient.
func (m *CorrelationMatrix) Map() map[string]map[string]float64 {
	return m.clone().values
}

func (m *CorrelationMatrix) clone() *CorrelationMatrix {
	out := &CorrelationMatrix{
		columns: m.Columns(),
		values:  make(map[string]map[string]float64, len(m.values)),
	}
	for k, row := range m.values {
		r := make(map[string]float64, len(row))
		for k2, v := range row {
			r[k2] = v
		}
		out.values[k] = r
	}
	return out
}
