package prompts

import (
	"context"
	"fmt"
	"strings"

	"pgstruct-mcp/internal/mcpserver/tools"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RegisterAll registers all prompts with the MCP server.
func RegisterAll(server *mcp.Server, deps tools.Dependencies) {
	server.AddPrompt(&mcp.Prompt{Name: "/pgstruct.health_check", Title: "Structural health check", Description: "Health report with the diagnostics that need attention"}, promptHealthCheck(deps))
	server.AddPrompt(&mcp.Prompt{
		Name:        "/pgstruct.investigate",
		Title:       "Investigate a diagnostic",
		Description: "Steps to drill into one diagnostic",
		Arguments:   []*mcp.PromptArgument{{Name: "diagnostic", Description: "diagnostic id, e.g. UNUSED_INDEXES", Required: true}},
	}, promptInvestigate(deps))
}

func promptHealthCheck(deps tools.Dependencies) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var b strings.Builder
		b.WriteString("### PostgreSQL structural health check\n")
		b.WriteString("- [ ] Run `cluster_topology` and confirm exactly one primary\n")
		b.WriteString("- [ ] Run `health_report`\n")
		b.WriteString("- [ ] Drill into non-zero diagnostics with `run_diagnostic`\n\n")

		res, out, err := tools.HealthReport(ctx, deps, tools.HealthReportInput{})
		switch {
		case err != nil:
			fmt.Fprintf(&b, "Unable to build the health report: %v\n", err)
		case res != nil && res.IsError:
			fmt.Fprintf(&b, "Unable to build the health report: %v\n", res.StructuredContent)
		default:
			fmt.Fprintf(&b, "**Schemas**: %s\n**Findings**: %d\n\n", strings.Join(out.Report.Schemas, ", "), out.Total)
			if out.Total > 0 {
				b.WriteString("Needs attention:\n")
				for _, e := range out.Report.Entries {
					if e.Count > 0 {
						fmt.Fprintf(&b, "- %s: %d\n", e.Diagnostic, e.Count)
					}
				}
				b.WriteString("\n")
			}
			fmt.Fprintf(&b, "```\n%s```\n", out.Rendered)
		}

		messages := []*mcp.PromptMessage{
			{Role: mcp.Role("assistant"), Content: &mcp.TextContent{Text: b.String()}},
		}
		return &mcp.GetPromptResult{Description: "Structural health check", Messages: messages}, nil
	}
}

func promptInvestigate(deps tools.Dependencies) mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		id := ""
		if req != nil && req.Params != nil && req.Params.Arguments != nil {
			id = strings.TrimSpace(req.Params.Arguments["diagnostic"])
		}
		if id == "" {
			msg := "### Investigate a diagnostic\n- Provide the `diagnostic` argument.\n- Run `list_diagnostics` for the available ids.\n"
			messages := []*mcp.PromptMessage{
				{Role: mcp.Role("assistant"), Content: &mcp.TextContent{Text: msg}},
			}
			return &mcp.GetPromptResult{Description: "Provide diagnostic argument", Messages: messages}, nil
		}

		var b strings.Builder
		fmt.Fprintf(&b, "### Investigate %s\n", strings.ToUpper(id))
		fmt.Fprintf(&b, "1) Run `run_diagnostic` with `{\"diagnostic\":\"%s\"}`\n", strings.ToUpper(id))
		b.WriteString("2) Narrow with `exclude_tables`, `exclude_indexes` or size thresholds\n")
		b.WriteString("3) For runtime diagnostics check `server_info.stats_reset_at`; young statistics under-report usage\n")
		b.WriteString("4) Persist accepted findings in the `exclusions` config section\n")

		messages := []*mcp.PromptMessage{
			{Role: mcp.Role("assistant"), Content: &mcp.TextContent{Text: b.String()}},
		}
		return &mcp.GetPromptResult{Description: "Investigate a diagnostic", Messages: messages}, nil
	}
}
