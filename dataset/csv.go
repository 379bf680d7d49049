package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// Cell texts read as missing entries.
var nullTokens = map[string]struct{}{
	"": {}, "NA": {}, "N/A": {}, "NaN": {}, "nan": {},
	"null": {}, "NULL": {}, "None": {},
}

// CSV loads a dataset from a comma separated file whose first row holds
// the column names.
type CSV struct {
	Path string
	Log  *zap.Logger
}

// NewCSV returns a CSV source for path.
func NewCSV(path string, log *zap.Logger) *CSV {
	if log == nil {
		log = zap.NewNop()
	}
	return &CSV{Path: path, Log: log}
}

// Load implements Source.
func (s *CSV) Load(ctx context.Context) (*Dataset, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()

	d, err := ReadCSV(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("read csv %s: %w", s.Path, err)
	}
	s.Log.Debug("csv dataset loaded",
		zap.String("path", s.Path),
		zap.Int("rows", d.Rows()),
		zap.Int("columns", len(d.Columns())))
	return d, nil
}

// Close is a no-op; the file is closed by Load.
func (s *CSV) Close() error { return nil }

// ReadCSV parses CSV text and infers one Type per column from its
// non-missing cells.
func ReadCSV(ctx context.Context, r io.Reader) (*Dataset, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return NewEmpty(0), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	raw := make([][]string, len(header))
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		for i := range header {
			raw[i] = append(raw[i], rec[i])
		}
	}

	cols := make([]*Column, len(header))
	for i, name := range header {
		cols[i] = inferColumn(strings.TrimSpace(name), raw[i])
	}
	return New(cols...)
}

func isNullToken(s string) bool {
	_, ok := nullTokens[strings.TrimSpace(s)]
	return ok
}

// inferColumn picks the narrowest type that parses every non-missing cell:
// int64, then float64, then bool, falling back to object. A column with no
// values at all is float64, matching an all-NaN series.
func inferColumn(name string, cells []string) *Column {
	typ := Float64
	seen := false
	for _, candidate := range []Type{Int64, Float64, Bool} {
		ok := true
		for _, s := range cells {
			if isNullToken(s) {
				continue
			}
			seen = true
			if _, err := parseCell(candidate, s); err != nil {
				ok = false
				break
			}
		}
		if !seen {
			break
		}
		if ok {
			typ = candidate
			break
		}
		typ = Object
	}

	values := make([]any, len(cells))
	for i, s := range cells {
		if isNullToken(s) {
			continue
		}
		v, err := parseCell(typ, s)
		if err != nil {
			v = s
		}
		values[i] = v
	}
	return &Column{Name: name, Type: typ, Values: values}
}

func parseCell(typ Type, s string) (any, error) {
	s = strings.TrimSpace(s)
	switch typ {
	case Int64:
		return strconv.ParseInt(s, 10, 64)
	case Float64:
		return strconv.ParseFloat(s, 64)
	case Bool:
		switch strings.ToLower(s) {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
		return nil, fmt.Errorf("not a bool: %q", s)
	default:
		return s, nil
	}
}
