package tools

import (
	"context"
	"fmt"
	"time"

	"pgstruct-mcp/internal/cache"
	"pgstruct-mcp/internal/check"
	"pgstruct-mcp/internal/config"
	"pgstruct-mcp/internal/db"
	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/logging"
	"pgstruct-mcp/internal/management"
	"pgstruct-mcp/internal/model"
	"pgstruct-mcp/internal/safety"
	"pgstruct-mcp/internal/version"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type Dependencies struct {
	Cluster    *db.Cluster
	Engine     *check.Engine
	Manager    *management.Manager
	Logger     *zap.Logger
	Guardrails *safety.Guardrails
	Config     config.Config
	Roles      *cache.Cache[[]db.NodeRole]
}

func Register(server *mcp.Server, deps Dependencies) {
	mcp.AddTool(server, &mcp.Tool{Name: "ping", Description: "ping the server"}, func(ctx context.Context, req *mcp.CallToolRequest, input PingInput) (*mcp.CallToolResult, PingOutput, error) {
		return Ping(ctx, deps, input)
	})

	mcp.AddTool(server, &mcp.Tool{Name: "server_info", Description: "returns server, primary and statistics metadata"}, func(ctx context.Context, req *mcp.CallToolRequest, input ServerInfoInput) (*mcp.CallToolResult, ServerInfoOutput, error) {
		return ServerInfo(ctx, deps)
	})

	mcp.AddTool(server, &mcp.Tool{Name: "list_diagnostics", Description: "lists the registered structural diagnostics"}, func(ctx context.Context, req *mcp.CallToolRequest, input ListDiagnosticsInput) (*mcp.CallToolResult, ListDiagnosticsOutput, error) {
		return ListDiagnostics(ctx, deps, input)
	})

	mcp.AddTool(server, &mcp.Tool{Name: "run_diagnostic", Description: "runs one diagnostic for one schema with optional exclusions"}, func(ctx context.Context, req *mcp.CallToolRequest, input RunDiagnosticInput) (*mcp.CallToolResult, RunDiagnosticOutput, error) {
		return RunDiagnostic(ctx, deps, input)
	})

	mcp.AddTool(server, &mcp.Tool{Name: "health_report", Description: "counts findings of every diagnostic with the configured exclusions"}, func(ctx context.Context, req *mcp.CallToolRequest, input HealthReportInput) (*mcp.CallToolResult, HealthReportOutput, error) {
		return HealthReport(ctx, deps, input)
	})

	mcp.AddTool(server, &mcp.Tool{Name: "cluster_topology", Description: "probes every host and reports its role"}, func(ctx context.Context, req *mcp.CallToolRequest, input ClusterTopologyInput) (*mcp.CallToolResult, ClusterTopologyOutput, error) {
		return ClusterTopology(ctx, deps, input)
	})

	mcp.AddTool(server, &mcp.Tool{Name: "reset_statistics", Description: "resets statistics on every host (approval required)"}, func(ctx context.Context, req *mcp.CallToolRequest, input ResetStatisticsInput) (*mcp.CallToolResult, ResetStatisticsOutput, error) {
		return ResetStatistics(ctx, deps, input)
	})

	mcp.AddTool(server, &mcp.Tool{Name: "request_approval_token", Description: "issues a short-lived approval token (admin mode)"}, func(ctx context.Context, req *mcp.CallToolRequest, input RequestApprovalTokenInput) (*mcp.CallToolResult, RequestApprovalTokenOutput, error) {
		return RequestApprovalToken(ctx, deps, input)
	})
}

// Ping tool

type PingInput struct {
	Message string `json:"message,omitempty" jsonschema:"optional message to echo"`
}

type PingOutput struct {
	Pong string `json:"pong"`
}

func Ping(ctx context.Context, deps Dependencies, input PingInput) (*mcp.CallToolResult, PingOutput, error) {
	msg := input.Message
	if msg == "" {
		msg = "pong"
	}
	return nil, PingOutput{Pong: msg}, nil
}

// ServerInfo tool

type ServerInfoInput struct{}

type ServerInfoOutput struct {
	Version      version.BuildInfo `json:"version"`
	ReadOnly     bool              `json:"read_only"`
	AllowExecute bool              `json:"allow_execute"`
	Hosts        int               `json:"hosts"`
	Primary      *db.ServerInfo    `json:"primary,omitempty"`
	Capabilities *db.Capabilities  `json:"capabilities,omitempty"`
	StatsResetAt *time.Time        `json:"stats_reset_at,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
}

// ServerInfo degrades to static metadata plus warnings when the primary
// cannot be reached.
func ServerInfo(ctx context.Context, deps Dependencies) (*mcp.CallToolResult, ServerInfoOutput, error) {
	log := logging.WithTool(deps.Logger, "server_info")
	out := ServerInfoOutput{
		Version:      version.Info(),
		ReadOnly:     !deps.Config.AllowExecute,
		AllowExecute: deps.Config.AllowExecute,
		Hosts:        len(deps.Cluster.Nodes()),
	}
	primary, err := deps.Cluster.CurrentPrimary(ctx)
	if err != nil {
		log.Warn("primary unavailable", zap.Error(err))
		out.Warnings = append(out.Warnings, serr.ToToolError(err).Message)
		return nil, out, nil
	}
	if info, err := db.GetServerInfo(ctx, primary); err != nil {
		log.Warn("server info failed", zap.Error(err))
		out.Warnings = append(out.Warnings, "server info unavailable")
	} else {
		out.Primary = info
	}
	if caps, err := db.DetectCapabilities(ctx, primary); err != nil {
		log.Warn("capability detection failed", zap.Error(err))
		out.Warnings = append(out.Warnings, "capabilities unavailable")
	} else {
		out.Capabilities = caps
	}
	if at, ok, err := management.StatsResetOn(ctx, primary); err != nil {
		log.Warn("stats reset time failed", zap.Error(err))
		out.Warnings = append(out.Warnings, "statistics reset time unavailable")
	} else if ok {
		out.StatsResetAt = &at
	}
	return nil, out, nil
}

// Helper error creation
func callError(code serr.ErrorCode, msg, hint string) *mcp.CallToolResult {
	errObj := map[string]any{"code": code, "message": msg}
	if hint != "" {
		errObj["hint"] = hint
	}
	return &mcp.CallToolResult{
		IsError:           true,
		StructuredContent: errObj,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf("%s: %s", code, msg)},
		},
	}
}

// errorResult maps any error onto a tool error result, keeping its details.
func errorResult(err error) *mcp.CallToolResult {
	e := serr.ToToolError(err)
	res := callError(e.Code, e.Message, e.Hint)
	if len(e.Details) > 0 {
		res.StructuredContent.(map[string]any)["details"] = e.Details
	}
	return res
}

func normalizeLimitOffset(cfg config.Config, limit, offset int) (int, int) {
	if limit <= 0 {
		limit = cfg.MaxRows
	}
	if limit > cfg.MaxRows {
		limit = cfg.MaxRows
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// schemaContext builds a context for schema (configured default when empty)
// with the configured thresholds unless overridden.
func schemaContext(cfg config.Config, schema string, bloat, remaining *float64) (model.SchemaContext, error) {
	if schema == "" {
		schema = model.DefaultSchema
		if len(cfg.Schemas) > 0 {
			schema = cfg.Schemas[0]
		}
	}
	b, r := cfg.BloatPercentageThreshold, cfg.RemainingPercentageThreshold
	if bloat != nil {
		b = *bloat
	}
	if remaining != nil {
		r = *remaining
	}
	sc, err := model.NewSchemaContext(schema, b, r)
	if err != nil {
		return model.SchemaContext{}, serr.Wrap(serr.CodeInvalidInput, err, "invalid schema context", "thresholds must be between 0 and 100", map[string]any{"schema": schema})
	}
	return sc, nil
}
