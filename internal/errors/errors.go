// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Error kinds shared by the check engine and the MCP layer.

package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

type ErrorCode string

const (
	CodeConnectivity       ErrorCode = "CONNECTIVITY"
	CodeAmbiguousPrimary   ErrorCode = "AMBIGUOUS_PRIMARY"
	CodeUnknownDiagnostic  ErrorCode = "UNKNOWN_DIAGNOSTIC"
	CodeExtraction         ErrorCode = "EXTRACTION"
	CodeInvariantViolation ErrorCode = "INVARIANT_VIOLATION"
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodePermissionDenied   ErrorCode = "PERMISSION_DENIED"
	CodeExecuteDisabled    ErrorCode = "EXECUTE_DISABLED"
	CodeApprovalRequired   ErrorCode = "APPROVAL_REQUIRED"
	CodeInternalError      ErrorCode = "INTERNAL_ERROR"
)

// Reasons attached to AMBIGUOUS_PRIMARY errors.
const (
	ReasonNoPrimary  = "no_primary"
	ReasonSplitBrain = "split_brain"
)

// Kind sentinels. errors.Is(err, ErrConnectivity) matches any *Error with that code.
var (
	ErrConnectivity       = &Error{Code: CodeConnectivity}
	ErrAmbiguousPrimary   = &Error{Code: CodeAmbiguousPrimary}
	ErrUnknownDiagnostic  = &Error{Code: CodeUnknownDiagnostic}
	ErrExtraction         = &Error{Code: CodeExtraction}
	ErrInvariantViolation = &Error{Code: CodeInvariantViolation}
	ErrInvalidInput       = &Error{Code: CodeInvalidInput}
)

// Causes for ambiguous primary resolution.
var (
	ErrNoPrimary  = stderrors.New("no primary available")
	ErrSplitBrain = stderrors.New("more than one node reports primary")
)

type Error struct {
	Code    ErrorCode      `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error carrying the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code ErrorCode, msg, hint string, details map[string]any) *Error {
	return &Error{Code: code, Message: msg, Hint: hint, Details: sanitize(details)}
}

// Wrap is New with an underlying cause kept for errors.Is/As.
func Wrap(code ErrorCode, err error, msg, hint string, details map[string]any) *Error {
	e := New(code, msg, hint, details)
	e.Err = err
	return e
}

func NewConnectivity(host string, err error) *Error {
	return Wrap(CodeConnectivity, err, "node query failed", "check node reachability and credentials",
		map[string]any{"host": host})
}

func NewNoPrimary(probed int) *Error {
	return Wrap(CodeAmbiguousPrimary, ErrNoPrimary, "no node reports primary", "cluster may be mid-failover; retry with backoff",
		map[string]any{"reason": ReasonNoPrimary, "probed": probed})
}

func NewSplitBrain(hosts []string) *Error {
	return Wrap(CodeAmbiguousPrimary, ErrSplitBrain, "multiple nodes report primary", "investigate replication topology",
		map[string]any{"reason": ReasonSplitBrain, "hosts": strings.Join(hosts, ",")})
}

func NewUnknownDiagnostic(id string) *Error {
	return New(CodeUnknownDiagnostic, "unknown diagnostic", "call list_diagnostics for valid identifiers",
		map[string]any{"diagnostic": id})
}

func NewExtraction(column, msg string) *Error {
	return New(CodeExtraction, msg, "query columns do not match the finding shape",
		map[string]any{"column": column})
}

func NewInvariant(msg string, details map[string]any) *Error {
	return New(CodeInvariantViolation, msg, "", details)
}

func NewInvalidInput(msg, hint string, details map[string]any) *Error {
	return New(CodeInvalidInput, msg, hint, details)
}

func NewPermissionDenied(msg, hint string) *Error {
	return New(CodePermissionDenied, msg, hint, nil)
}

func NewExecuteDisabled() *Error {
	return New(CodeExecuteDisabled, "execute mode disabled", "set allow_execute=true and mode=admin to enable", nil)
}

func NewApprovalRequired(action string) *Error {
	return New(CodeApprovalRequired, "approval token required", "provide short-lived approval token", map[string]any{"action": action})
}

func NewInternal(err error) *Error {
	if err == nil {
		return New(CodeInternalError, "internal error", "see logs", nil)
	}
	return Wrap(CodeInternalError, err, "internal error", "see logs", map[string]any{"cause": scrub(err.Error())})
}

// CodeOf returns the code of the first *Error in err's chain, or INTERNAL_ERROR.
func CodeOf(err error) ErrorCode {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Code
	}
	return CodeInternalError
}

// ToToolError converts any error to an *Error;
// unknown errors are wrapped as internal error with scrubbed message.
func ToToolError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if stderrors.As(err, &e) {
		return e
	}
	return NewInternal(err)
}

func sanitize(details map[string]any) map[string]any {
	if details == nil {
		return nil
	}
	out := make(map[string]any, len(details))
	for k, v := range details {
		switch v.(type) {
		case int, int64, float64, bool:
			out[k] = v
		default:
			out[k] = scrub(fmt.Sprint(v))
		}
	}
	return out
}

// scrub best-effort masks secrets/DSNs by replacing common patterns.
func scrub(s string) string {
	replacements := []struct{ find, repl string }{
		{"postgres://", "postgres://***:***@"},
		{"postgresql://", "postgresql://***:***@"},
		{"password=", "password=***"},
		{"pwd=", "pwd=***"},
	}
	out := s
	for _, r := range replacements {
		out = strings.ReplaceAll(out, r.find, r.repl)
	}
	return out
}
