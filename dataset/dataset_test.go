package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_LengthMismatch(t *testing.T) {
	_, err := New(
		NewColumn("a", Int64, int64(1), int64(2)),
		NewColumn("b", Int64, int64(1)),
	)
	require.ErrorIs(t, err, ErrLengthMismatch)
}

func TestNew_DuplicateName(t *testing.T) {
	_, err := New(
		NewColumn("a", Int64, int64(1)),
		NewColumn("a", Object, "x"),
	)
	require.ErrorIs(t, err, ErrDuplicateName)
}

func TestDataset_ColumnsKeepInsertionOrder(t *testing.T) {
	d := MustNew(
		NewColumn("z", Object, "x", "y"),
		NewColumn("a", Float64, 1.5, nil),
		NewColumn("m", Int64, int64(3), int64(4)),
	)

	assert.Equal(t, 2, d.Rows())
	var names []string
	for _, c := range d.Columns() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"z", "a", "m"}, names)

	var numeric []string
	for _, c := range d.NumericColumns() {
		numeric = append(numeric, c.Name)
	}
	assert.Equal(t, []string{"a", "m"}, numeric)

	_, err := d.Column("missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestColumn_NullHandling(t *testing.T) {
	c := NewColumn("f", Float64, 1.0, nil, math.NaN(), 4.0)

	assert.False(t, c.IsNull(0))
	assert.True(t, c.IsNull(1))
	assert.True(t, c.IsNull(2))
	assert.Equal(t, 2, c.NullCount())
	assert.Equal(t, []float64{1, 4}, c.Floats())
}

func TestColumn_FloatRejectsNonNumeric(t *testing.T) {
	c := NewColumn("s", Object, "1.5")
	_, ok := c.Float(0)
	assert.False(t, ok)
	assert.Empty(t, c.Floats())
}

func TestNewEmpty(t *testing.T) {
	d := NewEmpty(10)
	assert.Equal(t, 10, d.Rows())
	assert.Empty(t, d.Columns())
}

func TestColumn_BoolSummarizableNotNumeric(t *testing.T) {
	c := NewColumn("ok", Bool, true, nil, false, true)
	assert.False(t, c.Type.Numeric())
	assert.True(t, c.Type.Summarizable())
	assert.Equal(t, []float64{1, 0, 1}, c.Floats())

	d := MustNew(c, NewColumn("v", Int64, int64(1), int64(2), int64(3), int64(4)))
	require.Len(t, d.NumericColumns(), 1)
	assert.Equal(t, "v", d.NumericColumns()[0].Name)
}
