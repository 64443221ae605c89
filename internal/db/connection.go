package db

import (
	"context"
	"fmt"
	"time"

	"pgstruct-mcp/internal/config"

	"github.com/jackc/pgx/v5/pgxpool"
)

// poolConfig parses dsn and applies credentials overrides, timeouts and
// session parameters from cfg.
func poolConfig(cfg config.Config, dsn string) (*pgxpool.Config, error) {
	pcfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}
	if cfg.User != "" {
		pcfg.ConnConfig.User = cfg.User
	}
	if cfg.Password != "" {
		pcfg.ConnConfig.Password = cfg.Password
	}
	pcfg.ConnConfig.ConnectTimeout = time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	// Each pool is pinned to one host whose role is found by probing, so a
	// target_session_attrs check would only lock standbys out.
	pcfg.ConnConfig.ValidateConnect = nil
	if pcfg.ConnConfig.RuntimeParams == nil {
		pcfg.ConnConfig.RuntimeParams = map[string]string{}
	}
	pcfg.ConnConfig.RuntimeParams["application_name"] = cfg.AppName
	pcfg.ConnConfig.RuntimeParams["statement_timeout"] = fmt.Sprintf("%d", cfg.StatementTimeoutMs)
	return pcfg, nil
}

func NewPool(ctx context.Context, pcfg *pgxpool.Config) (*pgxpool.Pool, error) {
	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool new: %w", err)
	}
	return pool, nil
}
