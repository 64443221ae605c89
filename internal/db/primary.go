package db

import (
	"context"
	"time"

	dbsql "pgstruct-mcp/internal/db/sql"
	serr "pgstruct-mcp/internal/errors"
)

// IsPrimary probes the node's recovery state. A node not in recovery is the
// primary. Probe failures are returned, never mapped to a role.
func IsPrimary(ctx context.Context, n *Node) (bool, error) {
	rows, err := n.Query(ctx, dbsql.QueryIsInRecovery)
	if err != nil {
		return false, err
	}
	if len(rows) != 1 {
		return false, serr.NewConnectivity(n.Host().String(), serr.NewExtraction("pg_is_in_recovery", "probe must return exactly one row"))
	}
	inRecovery, err := rows[0].Bool("pg_is_in_recovery")
	if err != nil {
		return false, serr.NewConnectivity(n.Host().String(), err)
	}
	n.recordRole(!inRecovery, time.Now())
	return !inRecovery, nil
}
