// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Cluster membership and current-primary tracking.

package db

import (
	"context"
	"sync/atomic"
	"time"

	serr "pgstruct-mcp/internal/errors"

	"go.uber.org/zap"
)

// ProbeFunc decides whether a node is currently the primary.
type ProbeFunc func(ctx context.Context, n *Node) (bool, error)

// Cluster holds every configured node and the last known primary.
// CurrentPrimary takes no locks; concurrent callers may probe in parallel.
type Cluster struct {
	nodes   []*Node
	primary atomic.Pointer[Node]
	probe   ProbeFunc
	logger  *zap.Logger

	onProbe  func(host Host, primary bool, err error)
	onSwitch func(from, to Host)
}

type ClusterOption func(*Cluster)

func WithLogger(l *zap.Logger) ClusterOption {
	return func(c *Cluster) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithProbe replaces the recovery-state probe.
func WithProbe(p ProbeFunc) ClusterOption {
	return func(c *Cluster) {
		if p != nil {
			c.probe = p
		}
	}
}

// WithProbeObserver is called after every probe.
func WithProbeObserver(fn func(host Host, primary bool, err error)) ClusterOption {
	return func(c *Cluster) { c.onProbe = fn }
}

// WithSwitchObserver is called when the cached primary changes.
func WithSwitchObserver(fn func(from, to Host)) ClusterOption {
	return func(c *Cluster) { c.onSwitch = fn }
}

// NewCluster requires a non-empty set of distinct hosts containing preferred.
func NewCluster(nodes []*Node, preferred *Node, opts ...ClusterOption) (*Cluster, error) {
	if len(nodes) == 0 {
		return nil, serr.NewInvariant("cluster needs at least one node", nil)
	}
	if preferred == nil {
		return nil, serr.NewInvariant("preferred primary is required", nil)
	}
	seen := make(map[Host]struct{}, len(nodes))
	member := false
	for _, n := range nodes {
		if n == nil {
			return nil, serr.NewInvariant("nil node in cluster", nil)
		}
		if _, dup := seen[n.Host()]; dup {
			return nil, serr.NewInvariant("duplicate node in cluster", map[string]any{"host": n.Host().String()})
		}
		seen[n.Host()] = struct{}{}
		if n == preferred {
			member = true
		}
	}
	if !member {
		return nil, serr.NewInvariant("preferred primary is not a cluster member", map[string]any{"host": preferred.Host().String()})
	}
	c := &Cluster{
		nodes:  append([]*Node(nil), nodes...),
		probe:  IsPrimary,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.primary.Store(preferred)
	return c, nil
}

// Nodes returns every configured node in configuration order.
func (c *Cluster) Nodes() []*Node {
	return append([]*Node(nil), c.nodes...)
}

// ConnectionsToAllHosts is an alias for Nodes.
func (c *Cluster) ConnectionsToAllHosts() []*Node { return c.Nodes() }

// CachedPrimary returns the last known primary without probing.
func (c *Cluster) CachedPrimary() *Node { return c.primary.Load() }

// CurrentPrimary re-checks the cached primary and, when it no longer reports
// primary, probes every other node in configuration order. Exactly one primary
// must be found. A probe error aborts resolution.
//
// The other nodes are only consulted once the cached node answers as a
// standby, so while the cached primary is unreachable every call fails with
// CONNECTIVITY, even if a standby has been promoted meanwhile. Callers that
// need to see the surviving nodes in that state should use Roles, or retry
// after the old primary is back (it then reports standby and resolution moves
// on).
func (c *Cluster) CurrentPrimary(ctx context.Context) (*Node, error) {
	cached := c.primary.Load()
	ok, err := c.probeNode(ctx, cached)
	if err != nil {
		return nil, err
	}
	if ok {
		return cached, nil
	}

	var found []*Node
	for _, n := range c.nodes {
		if n == cached {
			continue
		}
		ok, err := c.probeNode(ctx, n)
		if err != nil {
			return nil, err
		}
		if ok {
			found = append(found, n)
		}
	}
	switch len(found) {
	case 0:
		c.logger.Warn("no node reports primary", zap.Int("nodes", len(c.nodes)))
		return nil, serr.NewNoPrimary(len(c.nodes))
	case 1:
		next := found[0]
		c.primary.Store(next)
		c.logger.Info("primary changed",
			zap.Stringer("from", cached.Host()), zap.Stringer("to", next.Host()))
		if c.onSwitch != nil {
			c.onSwitch(cached.Host(), next.Host())
		}
		return next, nil
	default:
		hosts := make([]string, 0, len(found))
		for _, n := range found {
			hosts = append(hosts, n.Host().String())
		}
		c.logger.Error("split brain: multiple primaries", zap.Strings("hosts", hosts))
		return nil, serr.NewSplitBrain(hosts)
	}
}

func (c *Cluster) probeNode(ctx context.Context, n *Node) (bool, error) {
	ok, err := c.probe(ctx, n)
	if c.onProbe != nil {
		c.onProbe(n.Host(), ok, err)
	}
	if err != nil {
		c.logger.Warn("primary probe failed", zap.Stringer("host", n.Host()), zap.Error(err))
	}
	return ok, err
}

// NodeRole is a point-in-time role snapshot of one node.
type NodeRole struct {
	Host      string    `json:"host"`
	Primary   bool      `json:"primary"`
	Cached    bool      `json:"cached_primary"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// Roles probes every node and reports each outcome. Probe errors are recorded
// per node instead of failing the snapshot.
func (c *Cluster) Roles(ctx context.Context) []NodeRole {
	cached := c.primary.Load()
	out := make([]NodeRole, 0, len(c.nodes))
	for _, n := range c.nodes {
		role := NodeRole{Host: n.Host().String(), Cached: n == cached, CheckedAt: time.Now()}
		ok, err := c.probeNode(ctx, n)
		if err != nil {
			role.Error = serr.ToToolError(err).Message
		} else {
			role.Primary = ok
			if _, at, seen := n.LastRole(); seen {
				role.CheckedAt = at
			}
		}
		out = append(out, role)
	}
	return out
}

// Close closes every node handle.
func (c *Cluster) Close() {
	for _, n := range c.nodes {
		n.Close()
	}
}
