// Package dbtest provides a scripted in-memory Querier for unit tests.
package dbtest

import (
	"context"
	"fmt"
	"sync"

	"pgstruct-mcp/internal/db"
	dbsql "pgstruct-mcp/internal/db/sql"
)

type Call struct {
	SQL  string
	Args []any
}

type response struct {
	rows []db.Row
	err  error
}

// Querier answers the recovery probe from its role flag and every other
// statement from responses registered with On/OnError.
type Querier struct {
	mu         sync.Mutex
	inRecovery bool
	probeErr   error
	responses  map[string]response
	calls      []Call
	closed     bool
}

func NewQuerier(inRecovery bool) *Querier {
	return &Querier{inRecovery: inRecovery, responses: map[string]response{}}
}

// NewNode returns a node on host:5432 backed by a fresh Querier.
func NewNode(host string, inRecovery bool) (*db.Node, *Querier) {
	q := NewQuerier(inRecovery)
	return db.NewNode(db.Host{Name: host, Port: 5432}, q), q
}

func (q *Querier) On(sql string, rows ...db.Row) *Querier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.responses[sql] = response{rows: rows}
	return q
}

func (q *Querier) OnError(sql string, err error) *Querier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.responses[sql] = response{err: err}
	return q
}

func (q *Querier) SetInRecovery(v bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.inRecovery = v
}

func (q *Querier) SetProbeError(err error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.probeErr = err
}

func (q *Querier) Query(_ context.Context, sql string, args ...any) ([]db.Row, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.calls = append(q.calls, Call{SQL: sql, Args: args})
	if sql == dbsql.QueryIsInRecovery {
		if q.probeErr != nil {
			return nil, q.probeErr
		}
		return []db.Row{{"pg_is_in_recovery": q.inRecovery}}, nil
	}
	r, ok := q.responses[sql]
	if !ok {
		return nil, fmt.Errorf("dbtest: unexpected query %q", sql)
	}
	return r.rows, r.err
}

func (q *Querier) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
}

// Count returns how many times sql was executed.
func (q *Querier) Count(sql string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	n := 0
	for _, c := range q.calls {
		if c.SQL == sql {
			n++
		}
	}
	return n
}

func (q *Querier) ProbeCount() int { return q.Count(dbsql.QueryIsInRecovery) }

// Calls returns every non-probe call in execution order.
func (q *Querier) Calls() []Call {
	q.mu.Lock()
	defer q.mu.Unlock()
	var out []Call
	for _, c := range q.calls {
		if c.SQL != dbsql.QueryIsInRecovery {
			out = append(out, c)
		}
	}
	return out
}

func (q *Querier) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}
