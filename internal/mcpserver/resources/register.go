package resources

import (
	"context"
	"encoding/json"

	"pgstruct-mcp/internal/mcpserver/tools"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const DiagnosticsURI = "pgstruct://diagnostics"

// RegisterAll registers resources with the MCP server.
func RegisterAll(server *mcp.Server, deps tools.Dependencies) {
	server.AddResource(&mcp.Resource{
		URI:         DiagnosticsURI,
		Name:        "diagnostics",
		Description: "Registered diagnostics with topology, kind and binder",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		b, err := json.MarshalIndent(deps.Engine.Registry().All(), "", "  ")
		if err != nil {
			return nil, err
		}
		return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
			{URI: DiagnosticsURI, MIMEType: "application/json", Text: string(b)},
		}}, nil
	})
}
