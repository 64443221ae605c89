// Package management reads and resets PostgreSQL cumulative statistics,
// which the runtime diagnostics depend on.
package management

import (
	"context"
	"errors"
	"time"

	"pgstruct-mcp/internal/check"
	"pgstruct-mcp/internal/db"
	dbsql "pgstruct-mcp/internal/db/sql"
	"pgstruct-mcp/internal/diagnostic"
	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/logging"

	"go.uber.org/zap"
)

type Manager struct {
	cluster check.Cluster
	logger  *zap.Logger
	now     func() time.Time
}

func New(cluster check.Cluster, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{cluster: cluster, logger: logger, now: time.Now}
}

// LastStatsReset reports when statistics were last reset on the primary.
// ok is false when they never were.
func (m *Manager) LastStatsReset(ctx context.Context) (t time.Time, ok bool, err error) {
	primary, err := m.cluster.CurrentPrimary(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	return StatsResetOn(ctx, primary)
}

// StatsResetOn reads the stats reset time of the current database on one node.
func StatsResetOn(ctx context.Context, n *db.Node) (time.Time, bool, error) {
	rows, err := n.Query(ctx, dbsql.QueryStatsResetTime)
	if err != nil {
		return time.Time{}, false, err
	}
	if len(rows) == 0 {
		return time.Time{}, false, nil
	}
	return rows[0].NullableTime("stats_reset")
}

// ResetResult is the outcome of a statistics reset on one host.
type ResetResult struct {
	Host  string `json:"host"`
	Reset bool   `json:"reset"`
	Error string `json:"error,omitempty"`
}

// ResetStatistics resets statistics on every node. A failure on one host
// does not stop the others; the joined error reports all failures.
func (m *Manager) ResetStatistics(ctx context.Context) ([]ResetResult, error) {
	nodes := m.cluster.Nodes()
	out := make([]ResetResult, 0, len(nodes))
	var errs []error
	for _, n := range nodes {
		host := n.Host().String()
		m.logger.Debug("resetting statistics", logging.FieldHost(host))
		res := ResetResult{Host: host}
		if _, err := n.Query(ctx, dbsql.QueryResetStats); err != nil {
			res.Error = serr.ToToolError(err).Message
			errs = append(errs, err)
			m.logger.Warn("statistics reset failed", logging.FieldHost(host), zap.Error(err))
		} else {
			res.Reset = true
		}
		out = append(out, res)
	}
	return out, errors.Join(errs...)
}

// LogStatsAge returns a hook that logs how long statistics have been
// collected on a host before a runtime diagnostic reads them there.
func (m *Manager) LogStatsAge() check.HostHook {
	return func(ctx context.Context, d diagnostic.Descriptor, n *db.Node) {
		if d.Kind != diagnostic.Runtime {
			return
		}
		host := n.Host().String()
		at, ok, err := StatsResetOn(ctx, n)
		switch {
		case err != nil:
			m.logger.Warn("cannot read statistics reset time", logging.FieldHost(host), zap.Error(err))
		case !ok:
			m.logger.Info("statistics never reset", logging.FieldHost(host), zap.String("diagnostic", string(d.ID)))
		default:
			m.logger.Info("statistics age",
				logging.FieldHost(host),
				zap.String("diagnostic", string(d.ID)),
				zap.Time("stats_reset", at),
				zap.Duration("age", m.now().Sub(at).Truncate(time.Second)))
		}
	}
}
