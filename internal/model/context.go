package model

import (
	"fmt"
	"strings"

	serr "pgstruct-mcp/internal/errors"
)

const (
	DefaultSchema                       = "public"
	DefaultBloatPercentageThreshold     = 10.0
	DefaultRemainingPercentageThreshold = 10.0
)

// SchemaContext qualifies object names and supplies query parameters for one schema.
// The zero value is not valid; use NewSchemaContext, OfSchema or DefaultSchemaContext.
type SchemaContext struct {
	schema    string
	bloat     float64
	remaining float64
}

// NewSchemaContext lower-cases schema and validates both percentages.
func NewSchemaContext(schema string, bloatPercentage, remainingPercentage float64) (SchemaContext, error) {
	s := strings.ToLower(strings.TrimSpace(schema))
	if s == "" {
		return SchemaContext{}, serr.NewInvariant("schema name cannot be blank", nil)
	}
	if err := validPercent("bloat_percentage_threshold", bloatPercentage); err != nil {
		return SchemaContext{}, err
	}
	if err := validPercent("remaining_percentage_threshold", remainingPercentage); err != nil {
		return SchemaContext{}, err
	}
	return SchemaContext{schema: s, bloat: bloatPercentage, remaining: remainingPercentage}, nil
}

// OfSchema uses the default thresholds.
func OfSchema(schema string) (SchemaContext, error) {
	return NewSchemaContext(schema, DefaultBloatPercentageThreshold, DefaultRemainingPercentageThreshold)
}

func DefaultSchemaContext() SchemaContext {
	return SchemaContext{
		schema:    DefaultSchema,
		bloat:     DefaultBloatPercentageThreshold,
		remaining: DefaultRemainingPercentageThreshold,
	}
}

func (c SchemaContext) Schema() string                        { return c.schema }
func (c SchemaContext) BloatPercentageThreshold() float64     { return c.bloat }
func (c SchemaContext) RemainingPercentageThreshold() float64 { return c.remaining }
func (c SchemaContext) IsDefaultSchema() bool                 { return c.schema == DefaultSchema }

// EnrichWithSchema prefixes name with "<schema>." unless the schema is the
// default one or name already carries the prefix (case-insensitive).
func (c SchemaContext) EnrichWithSchema(name string) string {
	if c.IsDefaultSchema() || c.schema == "" {
		return name
	}
	prefix := c.schema + "."
	if strings.HasPrefix(strings.ToLower(name), prefix) {
		return name
	}
	return prefix + name
}

func (c SchemaContext) String() string {
	return fmt.Sprintf("SchemaContext{schema=%s, bloat=%.1f, remaining=%.1f}", c.schema, c.bloat, c.remaining)
}

func validPercent(field string, v float64) error {
	if !(v >= 0 && v <= 100) {
		return serr.NewInvariant("percentage must be between 0 and 100", map[string]any{"field": field, "value": v})
	}
	return nil
}
