// Package filter builds exclusion predicates over findings. A predicate
// returns true to keep a finding.
package filter

import (
	"strings"

	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/model"
)

type Predicate func(model.Finding) bool

// AcceptAll keeps every finding.
func AcceptAll(model.Finding) bool { return true }

// And keeps a finding only when every predicate keeps it. Nil entries are ignored.
func And(preds ...Predicate) Predicate {
	var active []Predicate
	for _, p := range preds {
		if p != nil {
			active = append(active, p)
		}
	}
	switch len(active) {
	case 0:
		return AcceptAll
	case 1:
		return active[0]
	}
	return func(f model.Finding) bool {
		for _, p := range active {
			if !p(f) {
				return false
			}
		}
		return true
	}
}

// Apply returns the findings kept by p, preserving order.
func Apply[T model.Finding](in []T, p Predicate) []T {
	if p == nil {
		p = AcceptAll
	}
	out := make([]T, 0, len(in))
	for _, f := range in {
		if p(f) {
			out = append(out, f)
		}
	}
	return out
}

type nameSet map[string]struct{}

func newNameSet(names []string, enrich func(string) string) nameSet {
	s := make(nameSet, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if enrich != nil {
			n = enrich(n)
		}
		s[strings.ToLower(n)] = struct{}{}
	}
	return s
}

func (s nameSet) has(name string) bool {
	_, ok := s[strings.ToLower(name)]
	return ok
}

// SkipByName drops findings whose Name matches any of names.
func SkipByName(names ...string) Predicate {
	set := newNameSet(names, nil)
	return func(f model.Finding) bool {
		return len(set) == 0 || !set.has(f.Name())
	}
}

// SkipTablesByName drops findings on the named tables. Bare names are
// qualified with the context schema.
func SkipTablesByName(sc model.SchemaContext, tables ...string) Predicate {
	set := newNameSet(tables, sc.EnrichWithSchema)
	return func(f model.Finding) bool {
		if len(set) == 0 {
			return true
		}
		t, ok := f.(model.TableNameAware)
		return !ok || !set.has(t.TableName())
	}
}

// SkipIndexesByName drops findings on the named indexes. A group of indexes
// is dropped when any member matches.
func SkipIndexesByName(sc model.SchemaContext, indexes ...string) Predicate {
	set := newNameSet(indexes, sc.EnrichWithSchema)
	return func(f model.Finding) bool {
		if len(set) == 0 {
			return true
		}
		if i, ok := f.(model.IndexNameAware); ok {
			return !set.has(i.IndexName())
		}
		if g, ok := f.(model.IndexesAware); ok {
			for _, idx := range g.Indexes() {
				if set.has(idx.IndexName()) {
					return false
				}
			}
		}
		return true
	}
}

func SkipByColumnName(columns ...string) Predicate {
	set := newNameSet(columns, nil)
	return func(f model.Finding) bool {
		if len(set) == 0 {
			return true
		}
		if c, ok := f.(model.ColumnNameAware); ok {
			return !set.has(c.ColumnName())
		}
		if cs, ok := f.(model.ColumnsAware); ok {
			for _, c := range cs.Columns() {
				if set.has(c.ColumnName()) {
					return false
				}
			}
		}
		return true
	}
}

func SkipByConstraintName(constraints ...string) Predicate {
	set := newNameSet(constraints, nil)
	return func(f model.Finding) bool {
		if len(set) == 0 {
			return true
		}
		if c, ok := f.(model.ConstraintNameAware); ok {
			return !set.has(c.ConstraintName())
		}
		if cs, ok := f.(model.ConstraintsAware); ok {
			for _, fk := range cs.ForeignKeys() {
				if set.has(fk.ConstraintName()) {
					return false
				}
			}
		}
		return true
	}
}

func SkipBySequenceName(sc model.SchemaContext, sequences ...string) Predicate {
	set := newNameSet(sequences, sc.EnrichWithSchema)
	return func(f model.Finding) bool {
		if len(set) == 0 {
			return true
		}
		s, ok := f.(model.SequenceNameAware)
		return !ok || !set.has(s.SequenceName())
	}
}

// SkipFlywayTables drops findings on Flyway's history table.
func SkipFlywayTables(sc model.SchemaContext) Predicate {
	return SkipTablesByName(sc, "flyway_schema_history")
}

// SkipLiquibaseTables drops findings on Liquibase's changelog tables.
func SkipLiquibaseTables(sc model.SchemaContext) Predicate {
	return SkipTablesByName(sc, "databasechangelog", "databasechangeloglock")
}

// SkipBloatUnderThreshold keeps a bloat-aware finding only when both its
// bloat size and bloat percentage reach the thresholds (inclusive).
// Zero for both thresholds keeps everything.
func SkipBloatUnderThreshold(sizeBytes int64, percentage float64) (Predicate, error) {
	if sizeBytes < 0 {
		return nil, serr.NewInvariant("size threshold cannot be negative", map[string]any{"size_threshold": sizeBytes})
	}
	if !(percentage >= 0 && percentage <= 100) {
		return nil, serr.NewInvariant("percentage threshold must be between 0 and 100", map[string]any{"percentage_threshold": percentage})
	}
	return func(f model.Finding) bool {
		if sizeBytes == 0 && percentage == 0 {
			return true
		}
		b, ok := f.(model.BloatAware)
		if !ok {
			return true
		}
		return b.BloatSizeInBytes() >= sizeBytes && b.BloatPercentage() >= percentage
	}, nil
}

// SkipSmallIndexes keeps index findings at or above sizeBytes.
func SkipSmallIndexes(sizeBytes int64) (Predicate, error) {
	if sizeBytes < 0 {
		return nil, serr.NewInvariant("size threshold cannot be negative", map[string]any{"size_threshold": sizeBytes})
	}
	return func(f model.Finding) bool {
		if i, ok := f.(model.IndexSizeAware); ok {
			return i.IndexSizeInBytes() >= sizeBytes
		}
		return true
	}, nil
}

// SkipSmallTables keeps table findings at or above sizeBytes.
func SkipSmallTables(sizeBytes int64) (Predicate, error) {
	if sizeBytes < 0 {
		return nil, serr.NewInvariant("size threshold cannot be negative", map[string]any{"size_threshold": sizeBytes})
	}
	return func(f model.Finding) bool {
		if t, ok := f.(model.TableSizeAware); ok {
			return t.TableSizeInBytes() >= sizeBytes
		}
		return true
	}, nil
}
