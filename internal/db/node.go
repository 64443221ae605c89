package db

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync/atomic"
	"time"

	serr "pgstruct-mcp/internal/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Querier executes a read-only statement and returns every row.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) ([]Row, error)
	Close()
}

// PoolQuerier adapts a pgx pool to Querier.
type PoolQuerier struct {
	pool *pgxpool.Pool
}

func NewPoolQuerier(pool *pgxpool.Pool) *PoolQuerier {
	return &PoolQuerier{pool: pool}
}

func (q *PoolQuerier) Query(ctx context.Context, sql string, args ...any) ([]Row, error) {
	rows, err := q.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, err
	}
	out := make([]Row, len(maps))
	for i, m := range maps {
		out[i] = Row(m)
	}
	return out, nil
}

func (q *PoolQuerier) Ping(ctx context.Context) error { return q.pool.Ping(ctx) }

func (q *PoolQuerier) Close() { q.pool.Close() }

// Host identifies a node.
type Host struct {
	Name string `json:"name"`
	Port uint16 `json:"port"`
}

func (h Host) String() string {
	return net.JoinHostPort(h.Name, strconv.Itoa(int(h.Port)))
}

// ParseHost accepts "name:port" or a bare name (port 5432).
func ParseHost(s string) (Host, error) {
	name, portStr, err := net.SplitHostPort(s)
	if err != nil {
		if s == "" {
			return Host{}, fmt.Errorf("empty host")
		}
		return Host{Name: s, Port: 5432}, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return Host{}, fmt.Errorf("invalid port in %q: %w", s, err)
	}
	return Host{Name: name, Port: uint16(port)}, nil
}

// Node is one cluster member. Role fields are updated only by probes.
type Node struct {
	host      Host
	q         Querier
	primary   atomic.Bool
	checkedAt atomic.Int64
}

func NewNode(host Host, q Querier) *Node {
	return &Node{host: host, q: q}
}

func (n *Node) Host() Host { return n.host }

// Query runs sql on this node; failures are reported as connectivity errors.
func (n *Node) Query(ctx context.Context, sql string, args ...any) ([]Row, error) {
	rows, err := n.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, serr.NewConnectivity(n.host.String(), err)
	}
	return rows, nil
}

// LastRole reports the outcome of the most recent probe. ok is false before the first probe.
func (n *Node) LastRole() (primary bool, checkedAt time.Time, ok bool) {
	ts := n.checkedAt.Load()
	if ts == 0 {
		return false, time.Time{}, false
	}
	return n.primary.Load(), time.Unix(0, ts), true
}

func (n *Node) recordRole(primary bool, at time.Time) {
	n.primary.Store(primary)
	n.checkedAt.Store(at.UnixNano())
}

func (n *Node) Close() {
	if n.q != nil {
		n.q.Close()
	}
}
