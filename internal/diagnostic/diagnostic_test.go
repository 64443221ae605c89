package diagnostic

import (
	stderrors "errors"
	"strings"
	"testing"

	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogIsValid(t *testing.T) {
	r, err := NewRegistry(Catalog())
	require.NoError(t, err)
	assert.Len(t, r.All(), 27)
	assert.Equal(t, BloatedIndexes, r.All()[0].ID)
	assert.Equal(t, ObjectsNotFollowingNamingConvention, r.All()[26].ID)
}

// Column cells and column arrays must name columns the same way so that
// name predicates match either.
func TestCatalogUsesBareColumnNames(t *testing.T) {
	for _, d := range Catalog() {
		assert.NotContains(t, d.Query, "quote_ident(a.attname)", d.ID)
		assert.NotContains(t, d.Query, "quote_ident(col.attname)", d.ID)
		if strings.Contains(d.Query, "as columns") {
			assert.Contains(t, d.Query, "attname::text || ', '", d.ID)
		}
	}
}

func TestCatalogClassification(t *testing.T) {
	across := map[ID]bool{TablesWithMissingIndexes: true, UnusedIndexes: true}
	runtime := map[ID]bool{
		BloatedIndexes: true, BloatedTables: true, SequenceOverflow: true,
		TablesWithMissingIndexes: true, UnusedIndexes: true,
	}
	binders := map[ID]Binder{
		BloatedIndexes:   BindSchemaBloat,
		BloatedTables:    BindSchemaBloat,
		SequenceOverflow: BindSchemaRemaining,
	}

	for _, d := range Default().All() {
		wantTopology := PrimaryOnly
		if across[d.ID] {
			wantTopology = AcrossCluster
		}
		wantKind := Static
		if runtime[d.ID] {
			wantKind = Runtime
		}
		wantBinder, ok := binders[d.ID]
		if !ok {
			wantBinder = BindSchema
		}
		assert.Equal(t, wantTopology, d.Topology, d.ID)
		assert.Equal(t, wantKind, d.Kind, d.ID)
		assert.Equal(t, wantBinder, d.Binder, d.ID)
		assert.NotEmpty(t, d.Description, d.ID)
		assert.NotContains(t, d.Query, "%!", d.ID)
	}
}

func TestDescriptorForUnknown(t *testing.T) {
	_, err := Default().DescriptorFor("NOPE")
	assert.True(t, stderrors.Is(err, serr.ErrUnknownDiagnostic))

	id, err := ParseID(" unused_indexes ")
	require.NoError(t, err)
	assert.Equal(t, UnusedIndexes, id)

	_, err = ParseID("unused")
	assert.Error(t, err)
}

func TestBind(t *testing.T) {
	sc, err := model.NewSchemaContext("Sales", 25, 5)
	require.NoError(t, err)

	assert.Nil(t, BindNone.Bind(sc))
	assert.Equal(t, []any{"sales"}, BindSchema.Bind(sc))
	assert.Equal(t, []any{"sales", 25.0}, BindSchemaBloat.Bind(sc))
	assert.Equal(t, []any{"sales", 5.0}, BindSchemaRemaining.Bind(sc))
}

func TestNewRegistryRejectsInvalidDescriptors(t *testing.T) {
	ok := Descriptor{ID: "A", Topology: PrimaryOnly, Kind: Static, Binder: BindSchema, Query: "select 1 where $1 = 'x'"}

	cases := map[string][]Descriptor{
		"duplicate":        {ok, ok},
		"static across":    {{ID: "B", Topology: AcrossCluster, Kind: Static, Binder: BindSchema, Query: ok.Query}},
		"arity mismatch":   {{ID: "C", Topology: PrimaryOnly, Kind: Static, Binder: BindSchemaBloat, Query: ok.Query}},
		"placeholder gap":  {{ID: "D", Topology: PrimaryOnly, Kind: Static, Binder: BindSchemaBloat, Query: "select $1, $3"}},
		"write statement":  {{ID: "E", Topology: PrimaryOnly, Kind: Static, Binder: BindNone, Query: "delete from t"}},
		"unknown binder":   {{ID: "F", Topology: PrimaryOnly, Kind: Static, Binder: "odd", Query: "select 1"}},
		"unknown topology": {{ID: "G", Topology: "EVERYWHERE", Kind: Runtime, Binder: BindNone, Query: "select 1"}},
		"empty id":         {{Topology: PrimaryOnly, Kind: Static, Binder: BindNone, Query: "select 1"}},
	}
	for name, descs := range cases {
		_, err := NewRegistry(descs)
		assert.True(t, stderrors.Is(err, serr.ErrInvariantViolation), name)
	}

	r, err := NewRegistry([]Descriptor{ok, {ID: "H", Topology: AcrossCluster, Kind: Runtime, Binder: BindNone, Query: "select 1"}})
	require.NoError(t, err)
	assert.Equal(t, []ID{"A", "H"}, r.IDs())
}

func TestPlaceholders(t *testing.T) {
	n, ok := placeholders("select $1::text, $2::float8, $1")
	assert.Equal(t, 2, n)
	assert.True(t, ok)

	n, ok = placeholders("select 1")
	assert.Equal(t, 0, n)
	assert.True(t, ok)

	_, ok = placeholders("select $2")
	assert.False(t, ok)
}
