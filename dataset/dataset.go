// Package dataset holds the tabular data a pipeline stage consumes and
// produces: named, typed columns of equal length where nil marks a missing
// entry.
package dataset

import (
	"errors"
	"fmt"
	"math"

	"github.com/spf13/cast"
)

// Errors returned by Dataset lookups and New.
var (
	ErrUnknownColumn  = errors.New("dataset: unknown column")
	ErrLengthMismatch = errors.New("dataset: column length mismatch")
	ErrDuplicateName  = errors.New("dataset: duplicate column name")
)

// Type is the declared storage type of a column.
type Type string

// Column types. The names match the data type shown in reports.
const (
	Int64   Type = "int64"
	Float64 Type = "float64"
	Bool    Type = "bool"
	Object  Type = "object"
)

// Numeric reports whether values of this type take part in correlation.
func (t Type) Numeric() bool {
	return t == Int64 || t == Float64
}

// Summarizable reports whether mean, std, min and max apply to values of
// this type. Bool counts as 0 and 1 but stays out of correlation.
func (t Type) Summarizable() bool {
	return t.Numeric() || t == Bool
}

// Column is a single named series. Values holds int64, float64, bool or
// arbitrary values depending on Type; nil is a missing entry, and so is NaN
// in a float64 column.
type Column struct {
	Name   string
	Type   Type
	Values []any
}

// NewColumn returns a column with the given values.
func NewColumn(name string, typ Type, values ...any) *Column {
	return &Column{Name: name, Type: typ, Values: values}
}

// Len returns the number of entries, missing ones included.
func (c *Column) Len() int {
	return len(c.Values)
}

// IsNull reports whether entry i is missing.
func (c *Column) IsNull(i int) bool {
	v := c.Values[i]
	if v == nil {
		return true
	}
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return true
	}
	return false
}

// NullCount returns the number of missing entries.
func (c *Column) NullCount() int {
	n := 0
	for i := range c.Values {
		if c.IsNull(i) {
			n++
		}
	}
	return n
}

// Float returns entry i as a float64, with bool as 0 or 1. ok is false for
// missing entries and for object columns.
func (c *Column) Float(i int) (f float64, ok bool) {
	if !c.Type.Summarizable() || c.IsNull(i) {
		return 0, false
	}
	f, err := cast.ToFloat64E(c.Values[i])
	if err != nil {
		return 0, false
	}
	return f, true
}

// Floats returns the non-missing entries of a summarizable column in row
// order.
func (c *Column) Floats() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i := range c.Values {
		if f, ok := c.Float(i); ok {
			out = append(out, f)
		}
	}
	return out
}

// Dataset is an ordered set of equally long columns.
type Dataset struct {
	rows    int
	columns []*Column
	index   map[string]int
}

// New builds a dataset from columns. All columns must have the same length
// and distinct names.
func New(cols ...*Column) (*Dataset, error) {
	d := &Dataset{index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if i == 0 {
			d.rows = c.Len()
		} else if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: %q has %d rows, want %d", ErrLengthMismatch, c.Name, c.Len(), d.rows)
		}
		if _, dup := d.index[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateName, c.Name)
		}
		d.index[c.Name] = i
		d.columns = append(d.columns, c)
	}
	return d, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(cols ...*Column) *Dataset {
	d, err := New(cols...)
	if err != nil {
		panic(err)
	}
	return d
}

// NewEmpty returns a dataset with rows rows and no columns.
func NewEmpty(rows int) *Dataset {
	return &Dataset{rows: rows, index: map[string]int{}}
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	return d.rows
}

// Columns returns the columns in insertion order.
func (d *Dataset) Columns() []*Column {
	return d.columns
}

// Column looks a column up by name.
func (d *Dataset) Column(name string) (*Column, error) {
	i, ok := d.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return d.columns[i], nil
}

// NumericColumns returns the int64 and float64 columns in insertion order.
func (d *Dataset) NumericColumns() []*Column {
	var out []*Column
	for _, c := range d.columns {
		if c.Type.Numeric() {
			out = append(out, c)
		}
	}
	return out
}
