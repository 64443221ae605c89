// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Implements list_diagnostics and run_diagnostic.

package tools

import (
	"context"
	"strings"

	"pgstruct-mcp/internal/diagnostic"
	"pgstruct-mcp/internal/filter"
	"pgstruct-mcp/internal/logging"
	"pgstruct-mcp/internal/model"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

type ListDiagnosticsInput struct {
	Topology string `json:"topology,omitempty" jsonschema:"PRIMARY_ONLY or ACROSS_CLUSTER"`
	Kind     string `json:"kind,omitempty" jsonschema:"STATIC or RUNTIME"`
}

type ListDiagnosticsOutput struct {
	Diagnostics []diagnostic.Descriptor `json:"diagnostics"`
	Total       int                     `json:"total"`
}

func ListDiagnostics(ctx context.Context, deps Dependencies, input ListDiagnosticsInput) (*mcp.CallToolResult, ListDiagnosticsOutput, error) {
	out := ListDiagnosticsOutput{Diagnostics: []diagnostic.Descriptor{}}
	for _, d := range deps.Engine.Registry().All() {
		if input.Topology != "" && !strings.EqualFold(input.Topology, string(d.Topology)) {
			continue
		}
		if input.Kind != "" && !strings.EqualFold(input.Kind, string(d.Kind)) {
			continue
		}
		out.Diagnostics = append(out.Diagnostics, d)
	}
	out.Total = len(out.Diagnostics)
	return nil, out, nil
}

type RunDiagnosticInput struct {
	Diagnostic                   string   `json:"diagnostic" jsonschema:"diagnostic id, e.g. UNUSED_INDEXES"`
	Schema                       string   `json:"schema,omitempty" jsonschema:"schema to check, defaults to the first configured schema"`
	BloatPercentageThreshold     *float64 `json:"bloat_percentage_threshold,omitempty"`
	RemainingPercentageThreshold *float64 `json:"remaining_percentage_threshold,omitempty"`
	ExcludeTables                []string `json:"exclude_tables,omitempty"`
	ExcludeIndexes               []string `json:"exclude_indexes,omitempty"`
	ExcludeSequences             []string `json:"exclude_sequences,omitempty"`
	MinTableSizeBytes            int64    `json:"min_table_size_bytes,omitempty"`
	MinIndexSizeBytes            int64    `json:"min_index_size_bytes,omitempty"`
	Limit                        int      `json:"limit,omitempty" jsonschema:"page size, at least 1"`
	Offset                       int      `json:"offset,omitempty" jsonschema:"rows to skip, zero or more"`
}

type RunDiagnosticOutput struct {
	Diagnostic diagnostic.ID       `json:"diagnostic"`
	Topology   diagnostic.Topology `json:"topology"`
	Kind       diagnostic.Kind     `json:"kind"`
	Schema     string              `json:"schema"`
	Findings   []model.Finding     `json:"findings"`
	Meta       Meta                `json:"meta"`
}

// Meta contains pagination metadata.
type Meta struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	Total  int `json:"total"`
}

func RunDiagnostic(ctx context.Context, deps Dependencies, input RunDiagnosticInput) (*mcp.CallToolResult, RunDiagnosticOutput, error) {
	id, err := diagnostic.ParseID(input.Diagnostic)
	if err != nil {
		return errorResult(err), RunDiagnosticOutput{}, nil
	}
	d, err := deps.Engine.Registry().DescriptorFor(id)
	if err != nil {
		return errorResult(err), RunDiagnosticOutput{}, nil
	}
	sc, err := schemaContext(deps.Config, input.Schema, input.BloatPercentageThreshold, input.RemainingPercentageThreshold)
	if err != nil {
		return errorResult(err), RunDiagnosticOutput{}, nil
	}
	small, err := filter.SkipSmallTables(input.MinTableSizeBytes)
	if err != nil {
		return errorResult(err), RunDiagnosticOutput{}, nil
	}
	smallIdx, err := filter.SkipSmallIndexes(input.MinIndexSizeBytes)
	if err != nil {
		return errorResult(err), RunDiagnosticOutput{}, nil
	}

	findings, err := deps.Engine.Check(ctx, id, sc,
		filter.SkipTablesByName(sc, input.ExcludeTables...),
		filter.SkipIndexesByName(sc, input.ExcludeIndexes...),
		filter.SkipBySequenceName(sc, input.ExcludeSequences...),
		small, smallIdx,
	)
	if err != nil {
		logging.WithDiagnostic(logging.WithTool(deps.Logger, "run_diagnostic"), string(id), sc.Schema()).
			Warn("diagnostic failed", zap.Error(err))
		return errorResult(err), RunDiagnosticOutput{}, nil
	}

	limit, offset := normalizeLimitOffset(deps.Config, input.Limit, input.Offset)
	total := len(findings)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return nil, RunDiagnosticOutput{
		Diagnostic: d.ID,
		Topology:   d.Topology,
		Kind:       d.Kind,
		Schema:     sc.Schema(),
		Findings:   append([]model.Finding{}, findings[offset:end]...),
		Meta:       Meta{Limit: limit, Offset: offset, Total: total},
	}, nil
}
