package db

import (
	"context"

	dbsql "pgstruct-mcp/internal/db/sql"
)

type ServerInfo struct {
	Host            string `json:"host"`
	PostgresVersion string `json:"postgres_version"`
	Database        string `json:"database"`
	InRecovery      bool   `json:"in_recovery"`
}

func GetServerVersion(ctx context.Context, n *Node) (string, error) {
	return scalarString(ctx, n, dbsql.QueryServerVersion, "server_version")
}

func GetServerInfo(ctx context.Context, n *Node) (*ServerInfo, error) {
	v, err := GetServerVersion(ctx, n)
	if err != nil {
		return nil, err
	}
	dbname, err := scalarString(ctx, n, dbsql.QueryCurrentDB, "current_database")
	if err != nil {
		return nil, err
	}
	primary, err := IsPrimary(ctx, n)
	if err != nil {
		return nil, err
	}
	return &ServerInfo{Host: n.Host().String(), PostgresVersion: v, Database: dbname, InRecovery: !primary}, nil
}

func scalarString(ctx context.Context, n *Node, q, col string) (string, error) {
	rows, err := n.Query(ctx, q)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].String(col)
}
