package tools

import (
	"context"

	"pgstruct-mcp/internal/model"
	"pgstruct-mcp/internal/report"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type HealthReportInput struct {
	Schemas []string `json:"schemas,omitempty" jsonschema:"schemas to report on, defaults to the configured list"`
	Format  string   `json:"format,omitempty" jsonschema:"text, json or yaml"`
}

type HealthReportOutput struct {
	Report   report.Report `json:"report"`
	Total    int           `json:"total"`
	Rendered string        `json:"rendered"`
}

func HealthReport(ctx context.Context, deps Dependencies, input HealthReportInput) (*mcp.CallToolResult, HealthReportOutput, error) {
	schemas := input.Schemas
	if len(schemas) == 0 {
		schemas = deps.Config.Schemas
	}
	scs := make([]model.SchemaContext, 0, len(schemas))
	for _, s := range schemas {
		sc, err := schemaContext(deps.Config, s, nil, nil)
		if err != nil {
			return errorResult(err), HealthReportOutput{}, nil
		}
		scs = append(scs, sc)
	}
	format := input.Format
	if format == "" {
		format = deps.Config.ReportFormat
	}

	gen := report.New(deps.Engine, report.WithExclusions(deps.Config.Exclusions), report.WithLogger(deps.Logger))
	rep, err := gen.Generate(ctx, scs)
	if err != nil {
		return errorResult(err), HealthReportOutput{}, nil
	}
	rendered, err := rep.Render(format)
	if err != nil {
		return errorResult(err), HealthReportOutput{}, nil
	}
	return nil, HealthReportOutput{Report: rep, Total: rep.Total(), Rendered: string(rendered)}, nil
}
