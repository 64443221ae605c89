// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Diagnostic identifiers, descriptors and the validated registry.

package diagnostic

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/model"
	"pgstruct-mcp/internal/safety"
)

type ID string

const (
	BloatedIndexes                      ID = "BLOATED_INDEXES"
	BloatedTables                       ID = "BLOATED_TABLES"
	DuplicatedIndexes                   ID = "DUPLICATED_INDEXES"
	ForeignKeysWithoutIndex             ID = "FOREIGN_KEYS_WITHOUT_INDEX"
	IndexesWithNullValues               ID = "INDEXES_WITH_NULL_VALUES"
	IntersectedIndexes                  ID = "INTERSECTED_INDEXES"
	InvalidIndexes                      ID = "INVALID_INDEXES"
	TablesWithMissingIndexes            ID = "TABLES_WITH_MISSING_INDEXES"
	TablesWithoutPrimaryKey             ID = "TABLES_WITHOUT_PRIMARY_KEY"
	UnusedIndexes                       ID = "UNUSED_INDEXES"
	TablesWithoutDescription            ID = "TABLES_WITHOUT_DESCRIPTION"
	ColumnsWithoutDescription           ID = "COLUMNS_WITHOUT_DESCRIPTION"
	ColumnsWithJSONType                 ID = "COLUMNS_WITH_JSON_TYPE"
	ColumnsWithSerialTypes              ID = "COLUMNS_WITH_SERIAL_TYPES"
	FunctionsWithoutDescription         ID = "FUNCTIONS_WITHOUT_DESCRIPTION"
	IndexesWithBoolean                  ID = "INDEXES_WITH_BOOLEAN"
	NotValidConstraints                 ID = "NOT_VALID_CONSTRAINTS"
	BtreeIndexesOnArrayColumns          ID = "BTREE_INDEXES_ON_ARRAY_COLUMNS"
	SequenceOverflow                    ID = "SEQUENCE_OVERFLOW"
	PrimaryKeysWithSerialTypes          ID = "PRIMARY_KEYS_WITH_SERIAL_TYPES"
	DuplicatedForeignKeys               ID = "DUPLICATED_FOREIGN_KEYS"
	IntersectedForeignKeys              ID = "INTERSECTED_FOREIGN_KEYS"
	PossibleObjectNameOverflow          ID = "POSSIBLE_OBJECT_NAME_OVERFLOW"
	TablesNotLinkedToOthers             ID = "TABLES_NOT_LINKED_TO_OTHERS"
	ForeignKeysWithUnmatchedColumnType  ID = "FOREIGN_KEYS_WITH_UNMATCHED_COLUMN_TYPE"
	TablesWithZeroOrOneColumn           ID = "TABLES_WITH_ZERO_OR_ONE_COLUMN"
	ObjectsNotFollowingNamingConvention ID = "OBJECTS_NOT_FOLLOWING_NAMING_CONVENTION"
)

// ParseID accepts any letter case.
func ParseID(s string) (ID, error) {
	id := ID(strings.ToUpper(strings.TrimSpace(s)))
	if _, err := Default().DescriptorFor(id); err != nil {
		return "", err
	}
	return id, nil
}

// Topology says which hosts a diagnostic runs on.
type Topology string

const (
	PrimaryOnly   Topology = "PRIMARY_ONLY"
	AcrossCluster Topology = "ACROSS_CLUSTER"
)

// Kind distinguishes catalog-only checks from checks reading runtime statistics.
type Kind string

const (
	Static  Kind = "STATIC"
	Runtime Kind = "RUNTIME"
)

// Binder turns a schema context into positional query arguments.
type Binder string

const (
	BindNone            Binder = "none"
	BindSchema          Binder = "schema"
	BindSchemaBloat     Binder = "schema_bloat"
	BindSchemaRemaining Binder = "schema_remaining"
)

// Arity is the number of arguments the binder produces, -1 when unknown.
func (b Binder) Arity() int {
	switch b {
	case BindNone:
		return 0
	case BindSchema:
		return 1
	case BindSchemaBloat, BindSchemaRemaining:
		return 2
	}
	return -1
}

func (b Binder) Bind(sc model.SchemaContext) []any {
	switch b {
	case BindSchema:
		return []any{sc.Schema()}
	case BindSchemaBloat:
		return []any{sc.Schema(), sc.BloatPercentageThreshold()}
	case BindSchemaRemaining:
		return []any{sc.Schema(), sc.RemainingPercentageThreshold()}
	}
	return nil
}

type Descriptor struct {
	ID          ID       `json:"id"`
	Topology    Topology `json:"topology"`
	Kind        Kind     `json:"kind"`
	Binder      Binder   `json:"binder"`
	Description string   `json:"description"`
	Query       string   `json:"-"`
}

// Registry is an immutable, validated set of descriptors.
type Registry struct {
	byID  map[ID]Descriptor
	order []ID
}

var placeholderRe = regexp.MustCompile(`\$(\d+)`)

// NewRegistry validates every descriptor: unique ids, across-cluster only for
// runtime checks, read-only SQL and placeholders $1..$n matching the binder.
func NewRegistry(descs []Descriptor) (*Registry, error) {
	r := &Registry{byID: make(map[ID]Descriptor, len(descs))}
	for _, d := range descs {
		if d.ID == "" {
			return nil, serr.NewInvariant("diagnostic id is empty", nil)
		}
		if _, dup := r.byID[d.ID]; dup {
			return nil, serr.NewInvariant("duplicate diagnostic", map[string]any{"diagnostic": string(d.ID)})
		}
		if err := validate(d); err != nil {
			return nil, err
		}
		r.byID[d.ID] = d
		r.order = append(r.order, d.ID)
	}
	return r, nil
}

func validate(d Descriptor) error {
	details := map[string]any{"diagnostic": string(d.ID)}
	switch d.Topology {
	case PrimaryOnly, AcrossCluster:
	default:
		return serr.NewInvariant(fmt.Sprintf("unknown topology %q", d.Topology), details)
	}
	switch d.Kind {
	case Static, Runtime:
	default:
		return serr.NewInvariant(fmt.Sprintf("unknown kind %q", d.Kind), details)
	}
	if d.Topology == AcrossCluster && d.Kind != Runtime {
		return serr.NewInvariant("across-cluster diagnostics must read runtime statistics", details)
	}
	arity := d.Binder.Arity()
	if arity < 0 {
		return serr.NewInvariant(fmt.Sprintf("unknown binder %q", d.Binder), details)
	}
	if strings.TrimSpace(d.Query) == "" {
		return serr.NewInvariant("diagnostic query is empty", details)
	}
	if !safety.QueryIsReadOnly(d.Query) {
		return serr.NewInvariant("diagnostic query is not read-only", details)
	}
	if n, ok := placeholders(d.Query); !ok || n != arity {
		details["placeholders"] = n
		details["binder_arity"] = arity
		return serr.NewInvariant("query placeholders do not match binder", details)
	}
	return nil
}

// placeholders returns the highest $n used and whether $1..$n are all present.
func placeholders(sql string) (int, bool) {
	seen := map[int]bool{}
	max := 0
	for _, m := range placeholderRe.FindAllStringSubmatch(sql, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n == 0 {
			return 0, false
		}
		seen[n] = true
		if n > max {
			max = n
		}
	}
	return max, len(seen) == max
}

// DescriptorFor fails with an unknown-diagnostic error for unregistered ids.
func (r *Registry) DescriptorFor(id ID) (Descriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return Descriptor{}, serr.NewUnknownDiagnostic(string(id))
	}
	return d, nil
}

// All returns descriptors in registration order.
func (r *Registry) All() []Descriptor {
	out := make([]Descriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// IDs returns the registered ids sorted alphabetically.
func (r *Registry) IDs() []ID {
	out := append([]ID(nil), r.order...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in catalog. It panics if the catalog is invalid.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry(Catalog())
		if err != nil {
			panic(err)
		}
		defaultReg = r
	})
	return defaultReg
}
