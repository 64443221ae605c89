package db

import (
	"fmt"
	"math"
	"time"

	serr "pgstruct-mcp/internal/errors"

	"github.com/jackc/pgx/v5/pgtype"
)

// Row is one result row keyed by column name.
type Row map[string]any

func (r Row) value(col string) (any, error) {
	v, ok := r[col]
	if !ok {
		return nil, serr.NewExtraction(col, "column missing from row")
	}
	if v == nil {
		return nil, serr.NewExtraction(col, "column is null")
	}
	return v, nil
}

func mistyped(col string, v any, want string) error {
	return serr.NewExtraction(col, fmt.Sprintf("column has type %T, want %s", v, want))
}

func (r Row) String(col string) (string, error) {
	v, err := r.value(col)
	if err != nil {
		return "", err
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", mistyped(col, v, "text")
}

func (r Row) Int64(col string) (int64, error) {
	v, err := r.value(col)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int:
		return int64(n), nil
	case pgtype.Numeric:
		i, err := n.Int64Value()
		if err != nil || !i.Valid {
			return 0, mistyped(col, v, "integer")
		}
		return i.Int64, nil
	case float64:
		if n == math.Trunc(n) {
			return int64(n), nil
		}
	}
	return 0, mistyped(col, v, "integer")
}

func (r Row) Float64(col string) (float64, error) {
	v, err := r.value(col)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int16:
		return float64(n), nil
	case int:
		return float64(n), nil
	case pgtype.Numeric:
		f, err := n.Float64Value()
		if err != nil || !f.Valid {
			return 0, mistyped(col, v, "numeric")
		}
		return f.Float64, nil
	}
	return 0, mistyped(col, v, "numeric")
}

func (r Row) Bool(col string) (bool, error) {
	v, err := r.value(col)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, mistyped(col, v, "boolean")
	}
	return b, nil
}

// Strings reads a text[] cell. Null elements fail extraction.
func (r Row) Strings(col string) ([]string, error) {
	v, err := r.value(col)
	if err != nil {
		return nil, err
	}
	switch arr := v.(type) {
	case []string:
		return append([]string(nil), arr...), nil
	case []any:
		out := make([]string, 0, len(arr))
		for i, e := range arr {
			s, ok := e.(string)
			if !ok {
				return nil, serr.NewExtraction(col, fmt.Sprintf("array element %d has type %T, want text", i, e))
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, mistyped(col, v, "text[]")
}

// NullableTime returns ok=false for a null cell; a missing column is still an error.
func (r Row) NullableTime(col string) (t time.Time, ok bool, err error) {
	v, present := r[col]
	if !present {
		return time.Time{}, false, serr.NewExtraction(col, "column missing from row")
	}
	switch tv := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return tv, true, nil
	case pgtype.Timestamptz:
		return tv.Time, tv.Valid, nil
	}
	return time.Time{}, false, mistyped(col, v, "timestamptz")
}
