// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Implements reset_statistics, the only tool that changes server state.

package tools

import (
	"context"
	"time"

	"pgstruct-mcp/internal/logging"
	"pgstruct-mcp/internal/management"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ActionResetStatistics is the approval action for reset_statistics.
const ActionResetStatistics = "reset_statistics"

type ResetStatisticsInput struct {
	ApprovalToken string `json:"approval_token" jsonschema:"token from request_approval_token"`
}

type ResetStatisticsOutput struct {
	Results []management.ResetResult `json:"results"`
	ResetAt *time.Time               `json:"reset_at,omitempty"`
	Failed  int                      `json:"failed"`
}

func ResetStatistics(ctx context.Context, deps Dependencies, input ResetStatisticsInput) (*mcp.CallToolResult, ResetStatisticsOutput, error) {
	if err := deps.Guardrails.RequireExecuteAllowed(input.ApprovalToken, ActionResetStatistics); err != nil {
		return errorResult(err), ResetStatisticsOutput{}, nil
	}
	log := logging.WithTool(deps.Logger, "reset_statistics")
	results, err := deps.Manager.ResetStatistics(ctx)
	out := ResetStatisticsOutput{Results: results}
	for _, r := range results {
		if !r.Reset {
			out.Failed++
		}
	}
	if err != nil {
		log.Warn("statistics reset incomplete", zap.Int("failed", out.Failed), zap.Error(err))
		return nil, out, nil
	}
	now := time.Now().UTC()
	out.ResetAt = &now
	log.Info("statistics reset", zap.Int("hosts", len(results)))
	return nil, out, nil
}
