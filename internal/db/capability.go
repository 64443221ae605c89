package db

import (
	"context"

	dbsql "pgstruct-mcp/internal/db/sql"
)

// Capabilities describe what the connected role may do on a node.
type Capabilities struct {
	CanResetStats       bool `json:"can_reset_stats"`
	CanReadAllStats     bool `json:"can_read_all_stats"`
	HasPgStatStatements bool `json:"has_pg_stat_statements"`
}

func DetectCapabilities(ctx context.Context, n *Node) (*Capabilities, error) {
	rows, err := n.Query(ctx, dbsql.QueryCapabilities)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &Capabilities{}, nil
	}
	r := rows[0]
	var caps Capabilities
	if caps.CanResetStats, err = r.Bool("can_reset_stats"); err != nil {
		return nil, err
	}
	if caps.CanReadAllStats, err = r.Bool("can_read_all_stats"); err != nil {
		return nil, err
	}
	if caps.HasPgStatStatements, err = r.Bool("has_pg_stat_statements"); err != nil {
		return nil, err
	}
	return &caps, nil
}
