package dataset

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrUnsupportedSource is returned by Open for an unknown source kind.
var ErrUnsupportedSource = errors.New("dataset: unsupported source kind")

// Source is the contract any dataset origin must satisfy.
type Source interface {
	// Load reads the whole dataset into memory.
	Load(ctx context.Context) (*Dataset, error)

	// Close releases any resources (e.g. DB connections).
	Close() error
}

// Source kinds accepted by Open.
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
)

// Open returns the Source for kind. table is only used by sqlite.
func Open(kind, path, table string, log *zap.Logger) (Source, error) {
	switch kind {
	case KindCSV:
		return NewCSV(path, log), nil
	case KindSQLite:
		return NewSQLite(path, table, log)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, kind)
	}
}

// LoadFrom opens a source, loads it and closes it again.
func LoadFrom(ctx context.Context, kind, path, table string, log *zap.Logger) (*Dataset, error) {
	src, err := Open(kind, path, table, log)
	if err != nil {
		return nil, err
	}
	defer src.Close()
	return src.Load(ctx)
}
