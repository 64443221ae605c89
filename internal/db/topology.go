package db

import (
	"context"
	"fmt"
	"time"

	"pgstruct-mcp/internal/config"
	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/logging"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type nodeTarget struct {
	host Host
	dsn  string
	pcfg *pgxpool.Config
}

// BuildCluster opens one pool per configured host. Hosts come from node_dsns
// when set, otherwise from the (possibly multi-host) dsn. Unreachable hosts
// are kept; their role is decided by later probes.
func BuildCluster(ctx context.Context, cfg config.Config, logger *zap.Logger, opts ...ClusterOption) (*Cluster, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	targets, err := nodeTargets(cfg)
	if err != nil {
		return nil, err
	}
	nodes := make([]*Node, 0, len(targets))
	closeAll := func() {
		for _, n := range nodes {
			n.Close()
		}
	}
	for _, t := range targets {
		pool, err := NewPool(ctx, t.pcfg)
		if err != nil {
			closeAll()
			return nil, err
		}
		q := NewPoolQuerier(pool)
		pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.ConnectTimeoutSeconds)*time.Second)
		if err := q.Ping(pingCtx); err != nil {
			logger.Warn("node unreachable at startup", logging.FieldDSN("dsn", t.dsn), logging.FieldHost(t.host.String()), zap.Error(err))
		}
		cancel()
		nodes = append(nodes, NewNode(t.host, q))
	}

	preferred := nodes[0]
	if cfg.PreferredPrimary != "" {
		want, err := ParseHost(cfg.PreferredPrimary)
		if err != nil {
			closeAll()
			return nil, serr.NewInvariant("invalid preferred_primary", map[string]any{"value": cfg.PreferredPrimary})
		}
		preferred = nil
		for _, n := range nodes {
			if n.Host() == want {
				preferred = n
				break
			}
		}
		if preferred == nil {
			closeAll()
			return nil, serr.NewInvariant("preferred primary is not a cluster member", map[string]any{"host": want.String()})
		}
	}
	c, err := NewCluster(nodes, preferred, append([]ClusterOption{WithLogger(logger)}, opts...)...)
	if err != nil {
		closeAll()
		return nil, err
	}
	return c, nil
}

func nodeTargets(cfg config.Config) ([]nodeTarget, error) {
	if len(cfg.NodeDSNs) > 0 {
		out := make([]nodeTarget, 0, len(cfg.NodeDSNs))
		for _, dsn := range cfg.NodeDSNs {
			pcfg, err := poolConfig(cfg, dsn)
			if err != nil {
				return nil, err
			}
			host := Host{Name: pcfg.ConnConfig.Host, Port: pcfg.ConnConfig.Port}
			pcfg.ConnConfig.Fallbacks = sameHostFallbacks(pcfg.ConnConfig.Fallbacks, host)
			out = append(out, nodeTarget{host: host, dsn: dsn, pcfg: pcfg})
		}
		return out, nil
	}
	return splitHosts(cfg, cfg.DSN)
}

// splitHosts turns a multi-host DSN into one target per distinct host:port.
// pgconn expands each host into fallbacks (TLS and plain for sslmode=prefer);
// each target keeps only the fallbacks of its own host.
func splitHosts(cfg config.Config, dsn string) ([]nodeTarget, error) {
	base, err := poolConfig(cfg, dsn)
	if err != nil {
		return nil, err
	}
	all := append([]*pgconn.FallbackConfig{{
		Host:      base.ConnConfig.Host,
		Port:      base.ConnConfig.Port,
		TLSConfig: base.ConnConfig.TLSConfig,
	}}, base.ConnConfig.Fallbacks...)

	var order []Host
	byHost := map[Host][]*pgconn.FallbackConfig{}
	for _, fb := range all {
		h := Host{Name: fb.Host, Port: fb.Port}
		if _, ok := byHost[h]; !ok {
			order = append(order, h)
		}
		byHost[h] = append(byHost[h], fb)
	}
	if len(order) == 0 {
		return nil, fmt.Errorf("dsn has no hosts")
	}

	out := make([]nodeTarget, 0, len(order))
	for _, h := range order {
		pcfg := base.Copy()
		fbs := byHost[h]
		pcfg.ConnConfig.Host = fbs[0].Host
		pcfg.ConnConfig.Port = fbs[0].Port
		pcfg.ConnConfig.TLSConfig = fbs[0].TLSConfig
		pcfg.ConnConfig.Fallbacks = append([]*pgconn.FallbackConfig(nil), fbs[1:]...)
		out = append(out, nodeTarget{host: h, dsn: dsn, pcfg: pcfg})
	}
	return out, nil
}

func sameHostFallbacks(fbs []*pgconn.FallbackConfig, h Host) []*pgconn.FallbackConfig {
	var out []*pgconn.FallbackConfig
	for _, fb := range fbs {
		if fb.Host == h.Name && fb.Port == h.Port {
			out = append(out, fb)
		}
	}
	return out
}
