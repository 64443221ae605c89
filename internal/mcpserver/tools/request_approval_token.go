package tools

import (
	"context"
	"time"

	"pgstruct-mcp/internal/config"
	serr "pgstruct-mcp/internal/errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// RequestApprovalTokenInput input for request_approval_token.
type RequestApprovalTokenInput struct {
	Action     string `json:"action" jsonschema:"action to approve, e.g. reset_statistics"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// RequestApprovalTokenOutput output.
type RequestApprovalTokenOutput struct {
	Token     string     `json:"token"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

var approvableActions = map[string]bool{ActionResetStatistics: true}

func RequestApprovalToken(ctx context.Context, deps Dependencies, input RequestApprovalTokenInput) (*mcp.CallToolResult, RequestApprovalTokenOutput, error) {
	if deps.Config.Mode != config.ModeAdmin {
		return callError(serr.CodePermissionDenied, "token issuance disabled", "set mode=admin"), RequestApprovalTokenOutput{}, nil
	}
	if !approvableActions[input.Action] {
		return callError(serr.CodeInvalidInput, "unknown action", "use reset_statistics"), RequestApprovalTokenOutput{}, nil
	}
	ttl := time.Duration(input.TTLSeconds) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	tok, err := deps.Guardrails.GenerateApprovalToken(input.Action, ttl)
	if err != nil {
		return errorResult(err), RequestApprovalTokenOutput{}, nil
	}
	exp := time.Now().Add(ttl)
	return nil, RequestApprovalTokenOutput{Token: tok, ExpiresAt: &exp}, nil
}
