package mcpserver

import (
	"context"

	"pgstruct-mcp/internal/cache"
	"pgstruct-mcp/internal/check"
	"pgstruct-mcp/internal/config"
	"pgstruct-mcp/internal/db"
	"pgstruct-mcp/internal/management"
	"pgstruct-mcp/internal/mcpserver/prompts"
	"pgstruct-mcp/internal/mcpserver/resources"
	"pgstruct-mcp/internal/mcpserver/tools"
	"pgstruct-mcp/internal/safety"
	"pgstruct-mcp/internal/version"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type Server struct {
	cfg     config.Config
	logger  *zap.Logger
	cluster *db.Cluster
	srv     *mcp.Server
}

func New(cfg config.Config, logger *zap.Logger, cluster *db.Cluster, engine *check.Engine) *Server {
	impl := &mcp.Implementation{Name: "pgstruct-mcp", Version: version.Version}
	m := mcp.NewServer(impl, nil)
	deps := tools.Dependencies{
		Cluster:    cluster,
		Engine:     engine,
		Manager:    management.New(cluster, logger),
		Logger:     logger,
		Guardrails: safety.NewGuardrails(cfg),
		Config:     cfg,
		Roles:      cache.New[[]db.NodeRole](),
	}
	tools.Register(m, deps)
	prompts.RegisterAll(m, deps)
	resources.RegisterAll(m, deps)
	return &Server{cfg: cfg, logger: logger, cluster: cluster, srv: m}
}

// MCP exposes the underlying server for HTTP transports.
func (s *Server) MCP() *mcp.Server { return s.srv }

// Run runs the server with the provided transport (e.g., &mcp.StdioTransport{}).
func (s *Server) Run(ctx context.Context, transport mcp.Transport) error {
	return s.srv.Run(ctx, transport)
}
