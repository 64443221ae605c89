package safety

import (
	"strings"
	"time"

	"pgstruct-mcp/internal/config"
	serr "pgstruct-mcp/internal/errors"
)

// Guardrails gates the few tools that change server state, such as
// resetting statistics, behind execute mode and a signed approval token.
type Guardrails struct {
	allowExecute   bool
	approvalSecret string
	approvalTTL    time.Duration
}

func NewGuardrails(cfg config.Config) *Guardrails {
	return &Guardrails{
		allowExecute:   cfg.AllowExecute,
		approvalSecret: cfg.ApprovalSecret,
		approvalTTL:    defaultApprovalTTL,
	}
}

func (g *Guardrails) ExecuteAllowed() bool { return g.allowExecute }

// RequireExecuteAllowed ensures execute mode is enabled and token is valid.
func (g *Guardrails) RequireExecuteAllowed(token string, action string) error {
	if !g.allowExecute {
		return serr.NewExecuteDisabled()
	}
	if token == "" {
		return serr.NewApprovalRequired(action)
	}
	if err := ValidateApprovalToken(g.approvalSecret, action, token); err != nil {
		return serr.Wrap(serr.CodeApprovalRequired, err, "invalid approval token", "request a new token with request_approval_token", map[string]any{"action": action})
	}
	return nil
}

// GenerateApprovalToken signs a token for action. ttl <= 0 uses the default
// approval lifetime.
func (g *Guardrails) GenerateApprovalToken(action string, ttl time.Duration) (string, error) {
	if !g.allowExecute {
		return "", serr.NewExecuteDisabled()
	}
	if ttl <= 0 {
		ttl = g.approvalTTL
	}
	return GenerateApprovalToken(g.approvalSecret, action, ttl)
}

// QueryIsReadOnly reports whether sql is a single statement that cannot
// write. Data-modifying CTEs and trailing statements after ';' disqualify it.
func QueryIsReadOnly(sql string) bool {
	body := strings.TrimSpace(skipComments(sql))
	if body == "" {
		return true
	}
	if i := statementEnd(body); i >= 0 && strings.TrimSpace(skipComments(body[i+1:])) != "" {
		return false
	}
	words := strings.FieldsFunc(strings.ToLower(body), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '(' || r == ')' || r == ',' || r == ';'
	})
	if len(words) == 0 {
		return true
	}
	switch words[0] {
	case "select", "show", "explain", "values", "table":
	case "with":
		for _, w := range words[1:] {
			switch w {
			case "insert", "update", "delete", "merge":
				return false
			}
		}
	default:
		return false
	}
	return true
}

// statementEnd returns the index of the first ';' outside quoted text, or -1.
func statementEnd(sql string) int {
	var quote byte
	for i := 0; i < len(sql); i++ {
		c := sql[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == ';':
			return i
		}
	}
	return -1
}

// skipComments drops leading whitespace and -- or /* */ comments.
func skipComments(sql string) string {
	s := strings.TrimLeft(sql, " \t\n\r")
	for {
		switch {
		case strings.HasPrefix(s, "--"):
			i := strings.IndexAny(s, "\n\r")
			if i < 0 {
				return ""
			}
			s = strings.TrimLeft(s[i:], " \t\n\r")
		case strings.HasPrefix(s, "/*"):
			i := strings.Index(s, "*/")
			if i < 0 {
				return ""
			}
			s = strings.TrimLeft(s[i+2:], " \t\n\r")
		default:
			return s
		}
	}
}
