// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Key/value health report over every registered diagnostic.

package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"pgstruct-mcp/internal/config"
	"pgstruct-mcp/internal/diagnostic"
	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/filter"
	"pgstruct-mcp/internal/logging"
	"pgstruct-mcp/internal/model"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Key prefixes every report line.
const Key = "db_indexes_health"

// Checker is the part of check.Engine the report needs.
type Checker interface {
	Registry() *diagnostic.Registry
	Check(ctx context.Context, id diagnostic.ID, sc model.SchemaContext, preds ...filter.Predicate) ([]model.Finding, error)
}

type Entry struct {
	Diagnostic diagnostic.ID `json:"diagnostic" yaml:"diagnostic"`
	SubKey     string        `json:"key" yaml:"key"`
	Count      int           `json:"count" yaml:"count"`
}

type Report struct {
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
	Schemas     []string  `json:"schemas" yaml:"schemas"`
	Entries     []Entry   `json:"entries" yaml:"entries"`
}

// Generator runs every diagnostic of the engine's registry once per schema
// with the configured exclusions and counts what is left.
type Generator struct {
	checker    Checker
	exclusions config.Exclusions
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Generator)

func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock fixes the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		if now != nil {
			g.now = now
		}
	}
}

func WithExclusions(ex config.Exclusions) Option {
	return func(g *Generator) { g.exclusions = ex }
}

func New(checker Checker, opts ...Option) *Generator {
	g := &Generator{checker: checker, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Predicates turns exclusions into the joint filter applied to every diagnostic.
func Predicates(sc model.SchemaContext, ex config.Exclusions) ([]filter.Predicate, error) {
	bloat, err := filter.SkipBloatUnderThreshold(ex.BloatSizeBytes, ex.BloatPercentage)
	if err != nil {
		return nil, err
	}
	tables, err := filter.SkipSmallTables(ex.TableSizeThresholdBytes)
	if err != nil {
		return nil, err
	}
	indexes, err := filter.SkipSmallIndexes(ex.IndexSizeThresholdBytes)
	if err != nil {
		return nil, err
	}
	return []filter.Predicate{
		filter.SkipTablesByName(sc, ex.Tables...),
		filter.SkipIndexesByName(sc, ex.Indexes...),
		filter.SkipBySequenceName(sc, ex.Sequences...),
		bloat,
		tables,
		indexes,
	}, nil
}

// Generate counts findings per diagnostic, summed over scs, in registry order.
// The first failing check aborts the report.
func (g *Generator) Generate(ctx context.Context, scs []model.SchemaContext) (Report, error) {
	if len(scs) == 0 {
		return Report{}, serr.NewInvalidInput("no schemas to report on", "configure at least one schema", nil)
	}
	preds := make([][]filter.Predicate, len(scs))
	schemas := make([]string, len(scs))
	for i, sc := range scs {
		p, err := Predicates(sc, g.exclusions)
		if err != nil {
			return Report{}, err
		}
		preds[i] = p
		schemas[i] = sc.Schema()
	}

	rep := Report{GeneratedAt: g.now().UTC(), Schemas: schemas}
	for _, d := range g.checker.Registry().All() {
		count := 0
		for i, sc := range scs {
			fs, err := g.checker.Check(ctx, d.ID, sc, preds[i]...)
			if err != nil {
				return Report{}, err
			}
			count += len(fs)
		}
		if count > 0 {
			logging.WithDiagnostic(g.logger, string(d.ID), "").Warn("diagnostic has findings",
				zap.Int("count", count), zap.Strings("schemas", schemas))
		}
		rep.Entries = append(rep.Entries, Entry{Diagnostic: d.ID, SubKey: SubKey(d.ID), Count: count})
	}
	return rep, nil
}

// SubKey is the lower-case form of a diagnostic id used in report lines.
func SubKey(id diagnostic.ID) string { return strings.ToLower(string(id)) }

// Lines renders "<timestamp>\tdb_indexes_health\t<subkey>\t<count>" per entry.
func (r Report) Lines() []string {
	ts := r.GeneratedAt.UTC().Format(time.RFC3339)
	out := make([]string, 0, len(r.Entries))
	for _, e := range r.Entries {
		out = append(out, strings.Join([]string{ts, Key, e.SubKey, strconv.Itoa(e.Count)}, "\t"))
	}
	return out
}

// Total is the number of findings over all entries.
func (r Report) Total() int {
	n := 0
	for _, e := range r.Entries {
		n += e.Count
	}
	return n
}

// Render formats the report as text, json or yaml.
func (r Report) Render(format string) ([]byte, error) {
	switch format {
	case "", config.FormatText:
		lines := r.Lines()
		if len(lines) == 0 {
			return nil, nil
		}
		return []byte(strings.Join(lines, "\n") + "\n"), nil
	case config.FormatJSON:
		b, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("marshal report: %w", err)
		}
		return append(b, '\n'), nil
	case config.FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, serr.NewInvalidInput(fmt.Sprintf("unknown report format %q", format), "use text, json or yaml", nil)
}
