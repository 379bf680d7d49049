package dataset

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/spf13/cast"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLite reads a single table of a SQLite file as a dataset.
type SQLite struct {
	db    *sql.DB
	table string
	log   *zap.Logger
}

// NewSQLite opens the SQLite file at dbPath read-only. The caller must call
// Close() when done.
func NewSQLite(dbPath, table string, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if table == "" {
		return nil, fmt.Errorf("sqlite source %s: table must not be empty", dbPath)
	}

	// The modernc.org driver is pure-go and works without CGO.
	dsn := fmt.Sprintf("file:%s?mode=ro", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	return &SQLite{db: db, table: table, log: log}, nil
}

// Load implements Source. The declared column type is a hint: an integer
// column holding fractional values loads as float64, and a column whose
// values do not fit its declared type (or that declares none) is inferred
// from the values themselves.
func (s *SQLite) Load(ctx context.Context) (*Dataset, error) {
	query := fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(s.table))
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, fmt.Errorf("column types: %w", err)
	}

	raw := make([][]any, len(colTypes))
	for rows.Next() {
		dest := make([]any, len(colTypes))
		ptrs := make([]any, len(colTypes))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.table, err)
		}
		for i, v := range dest {
			raw[i] = append(raw[i], v)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.table, err)
	}

	cols := make([]*Column, len(colTypes))
	for i, ct := range colTypes {
		cols[i] = sqliteColumn(ct.Name(), ct.DatabaseTypeName(), raw[i])
		if decl, ok := declaredType(ct.DatabaseTypeName()); ok && decl != cols[i].Type {
			s.log.Debug("column type differs from declared",
				zap.String("table", s.table),
				zap.String("column", ct.Name()),
				zap.String("declared", ct.DatabaseTypeName()),
				zap.String("loaded", string(cols[i].Type)))
		}
	}

	d, err := New(cols...)
	if err != nil {
		return nil, err
	}
	s.log.Debug("sqlite dataset loaded",
		zap.String("table", s.table),
		zap.Int("rows", d.Rows()),
		zap.Int("columns", len(cols)))
	return d, nil
}

// Close shuts down the database connection.
func (s *SQLite) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// declaredType maps a declared SQLite column type to a Type following the
// SQLite affinity rules. ok is false when nothing is declared.
func declaredType(decl string) (Type, bool) {
	decl = strings.ToUpper(decl)
	switch {
	case decl == "":
		return "", false
	case strings.Contains(decl, "BOOL"):
		return Bool, true
	case strings.Contains(decl, "INT"):
		return Int64, true
	case strings.Contains(decl, "CHAR"), strings.Contains(decl, "CLOB"),
		strings.Contains(decl, "TEXT"), strings.Contains(decl, "BLOB"):
		return Object, true
	default:
		// REAL, FLOAT, DOUBLE, NUMERIC, DECIMAL
		return Float64, true
	}
}

func sqliteColumn(name, decl string, values []any) *Column {
	typ, ok := declaredType(decl)
	if !ok {
		return inferColumn(name, sqliteTexts(values))
	}
	if typ == Int64 && hasFraction(values) {
		typ = Float64
	}
	out, err := coerceAll(typ, values)
	if err != nil {
		return inferColumn(name, sqliteTexts(values))
	}
	return &Column{Name: name, Type: typ, Values: out}
}

// hasFraction reports whether any value is a float64 that an int64 cannot
// hold exactly.
func hasFraction(values []any) bool {
	for _, v := range values {
		f, ok := v.(float64)
		if ok && (f != math.Trunc(f) || math.IsInf(f, 0)) {
			return true
		}
	}
	return false
}

func coerceAll(typ Type, values []any) ([]any, error) {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		var err error
		switch typ {
		case Int64:
			out[i], err = cast.ToInt64E(v)
		case Float64:
			out[i], err = cast.ToFloat64E(v)
		case Bool:
			out[i], err = cast.ToBoolE(v)
		default:
			out[i], err = cast.ToStringE(v)
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
	}
	return out, nil
}

func sqliteTexts(values []any) []string {
	texts := make([]string, len(values))
	for i, v := range values {
		if v != nil {
			texts[i] = cast.ToString(v)
		}
	}
	return texts
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
