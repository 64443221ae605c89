package tools

import (
	"context"
	"time"

	"pgstruct-mcp/internal/db"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const rolesCacheKey = "roles"

type ClusterTopologyInput struct {
	Refresh bool `json:"refresh,omitempty" jsonschema:"bypass the role cache"`
}

type ClusterTopologyOutput struct {
	Nodes         []db.NodeRole `json:"nodes"`
	CachedPrimary string        `json:"cached_primary,omitempty"`
	FromCache     bool          `json:"from_cache"`
}

// ClusterTopology probes every host. Snapshots are cached for
// cache_ttl_seconds when caching is enabled.
func ClusterTopology(ctx context.Context, deps Dependencies, input ClusterTopologyInput) (*mcp.CallToolResult, ClusterTopologyOutput, error) {
	var out ClusterTopologyOutput
	useCache := deps.Config.EnableCaching && deps.Roles != nil
	if useCache && !input.Refresh {
		if roles, ok := deps.Roles.Get(rolesCacheKey); ok {
			out.Nodes, out.FromCache = roles, true
		}
	}
	if out.Nodes == nil {
		out.Nodes = deps.Cluster.Roles(ctx)
		if useCache {
			deps.Roles.Set(rolesCacheKey, out.Nodes, time.Duration(deps.Config.CacheTTLSeconds)*time.Second)
		}
	}
	if p := deps.Cluster.CachedPrimary(); p != nil {
		out.CachedPrimary = p.Host().String()
	}
	return nil, out, nil
}
