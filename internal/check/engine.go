// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Topology-aware execution of registered diagnostics.

package check

import (
	"context"
	"fmt"
	"time"

	"pgstruct-mcp/internal/db"
	"pgstruct-mcp/internal/diagnostic"
	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/extract"
	"pgstruct-mcp/internal/fanout"
	"pgstruct-mcp/internal/filter"
	"pgstruct-mcp/internal/logging"
	"pgstruct-mcp/internal/metrics"
	"pgstruct-mcp/internal/model"

	"go.uber.org/zap"
)

// Cluster is the part of db.Cluster the engine routes through.
type Cluster interface {
	CurrentPrimary(ctx context.Context) (*db.Node, error)
	Nodes() []*db.Node
}

// HostHook runs on each node right before an across-cluster diagnostic
// executes there.
type HostHook func(ctx context.Context, d diagnostic.Descriptor, n *db.Node)

type Engine struct {
	cluster    Cluster
	registry   *diagnostic.Registry
	extractors map[diagnostic.ID]extract.Func
	logger     *zap.Logger
	metrics    *metrics.Metrics
	parallel   bool
	beforeHost HostHook
}

type Option func(*Engine)

func WithRegistry(r *diagnostic.Registry) Option {
	return func(e *Engine) {
		if r != nil {
			e.registry = r
		}
	}
}

// WithExtractors replaces the diagnostic to extractor table.
func WithExtractors(m map[diagnostic.ID]extract.Func) Option {
	return func(e *Engine) {
		if m != nil {
			e.extractors = m
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithParallel runs across-cluster diagnostics on all nodes concurrently.
func WithParallel(on bool) Option {
	return func(e *Engine) { e.parallel = on }
}

func WithBeforeHost(h HostHook) Option {
	return func(e *Engine) { e.beforeHost = h }
}

// New requires an extractor for every registered diagnostic.
func New(cluster Cluster, opts ...Option) (*Engine, error) {
	if cluster == nil {
		return nil, serr.NewInvariant("check engine needs a cluster", nil)
	}
	e := &Engine{
		cluster:    cluster,
		registry:   diagnostic.Default(),
		extractors: builtinExtractors,
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	for _, d := range e.registry.All() {
		if e.extractors[d.ID] == nil {
			return nil, serr.NewInvariant("no extractor for diagnostic", map[string]any{"diagnostic": string(d.ID)})
		}
	}
	return e, nil
}

func (e *Engine) Registry() *diagnostic.Registry { return e.registry }

// Check runs one diagnostic for one schema and keeps the findings accepted by
// every predicate, in database row order. Across-cluster diagnostics return the
// per-node results concatenated in node order; any node failure fails the check.
func (e *Engine) Check(ctx context.Context, id diagnostic.ID, sc model.SchemaContext, preds ...filter.Predicate) ([]model.Finding, error) {
	d, err := e.registry.DescriptorFor(id)
	if err != nil {
		return nil, err
	}
	if sc.Schema() == "" {
		return nil, serr.NewInvariant("schema context is not initialized", map[string]any{"diagnostic": string(id)})
	}
	start := time.Now()
	findings, err := e.run(ctx, d, sc, filter.And(preds...))
	status := "ok"
	if err != nil {
		status = string(serr.CodeOf(err))
	}
	e.metrics.RecordCheck(string(d.ID), string(d.Topology), status, time.Since(start), len(findings))
	return findings, err
}

// CheckDefault runs id against the default schema without exclusions.
func (e *Engine) CheckDefault(ctx context.Context, id diagnostic.ID) ([]model.Finding, error) {
	return e.Check(ctx, id, model.DefaultSchemaContext())
}

// CheckSchemas runs id once per schema context, in the order given, and
// concatenates the results.
func (e *Engine) CheckSchemas(ctx context.Context, id diagnostic.ID, scs []model.SchemaContext, preds ...filter.Predicate) ([]model.Finding, error) {
	var out []model.Finding
	for _, sc := range scs {
		fs, err := e.Check(ctx, id, sc, preds...)
		if err != nil {
			return nil, err
		}
		out = append(out, fs...)
	}
	return out, nil
}

func (e *Engine) run(ctx context.Context, d diagnostic.Descriptor, sc model.SchemaContext, keep filter.Predicate) ([]model.Finding, error) {
	args := d.Binder.Bind(sc)
	log := logging.WithDiagnostic(e.logger, string(d.ID), sc.Schema())

	switch d.Topology {
	case diagnostic.PrimaryOnly:
		primary, err := e.cluster.CurrentPrimary(ctx)
		if err != nil {
			return nil, err
		}
		return e.onNode(ctx, log, d, primary, args, keep)

	case diagnostic.AcrossCluster:
		limit := 1
		if e.parallel {
			limit = 0
		}
		perNode, err := fanout.FanoutN(ctx, limit, e.cluster.Nodes(), func(ctx context.Context, n *db.Node) ([]model.Finding, error) {
			if err := ctx.Err(); err != nil {
				return nil, serr.NewConnectivity(n.Host().String(), err)
			}
			if e.beforeHost != nil {
				e.beforeHost(ctx, d, n)
			}
			return e.onNode(ctx, log, d, n, args, keep)
		})
		if err != nil {
			return nil, err
		}
		var out []model.Finding
		for _, fs := range perNode {
			out = append(out, fs...)
		}
		return out, nil
	}
	return nil, serr.NewInvariant(fmt.Sprintf("unknown topology %q", d.Topology), map[string]any{"diagnostic": string(d.ID)})
}

func (e *Engine) onNode(ctx context.Context, log *zap.Logger, d diagnostic.Descriptor, n *db.Node, args []any, keep filter.Predicate) ([]model.Finding, error) {
	host := n.Host().String()
	rows, err := n.Query(ctx, d.Query, args...)
	if err != nil {
		log.Warn("diagnostic query failed", logging.FieldHost(host), zap.Error(err))
		return nil, err
	}
	ex := e.extractors[d.ID]
	out := make([]model.Finding, 0, len(rows))
	for i, r := range rows {
		f, err := ex(r)
		if err != nil {
			return nil, serr.Wrap(serr.CodeExtraction, err, "cannot extract finding", "query output does not match the finding shape",
				map[string]any{"diagnostic": string(d.ID), "host": host, "row": i})
		}
		if keep(f) {
			out = append(out, f)
		}
	}
	log.Debug("diagnostic executed", logging.FieldHost(host),
		zap.String("topology", string(d.Topology)), zap.Int("rows", len(rows)), zap.Int("kept", len(out)))
	return out, nil
}

// As narrows findings to one variant.
func As[T model.Finding](fs []model.Finding) ([]T, error) {
	out := make([]T, 0, len(fs))
	for i, f := range fs {
		v, ok := f.(T)
		if !ok {
			var zero T
			return nil, serr.NewInvariant(fmt.Sprintf("finding %d is %T, not %T", i, f, zero), nil)
		}
		out = append(out, v)
	}
	return out, nil
}
