package filter

import (
	stderrors "errors"
	"math"
	"testing"

	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustSchema(t *testing.T, name string) model.SchemaContext {
	t.Helper()
	sc, err := model.OfSchema(name)
	require.NoError(t, err)
	return sc
}

func TestNameExclusionIsCaseInsensitive(t *testing.T) {
	pub := model.DefaultSchemaContext()
	keep := model.NewIndex("orders", "idx_bar")
	drop := model.NewIndex("orders", "idx_foo")

	p := SkipIndexesByName(pub, "IDX_FOO")
	assert.False(t, p(drop))
	assert.True(t, p(keep))

	assert.False(t, SkipByName("Idx_Foo")(drop))
}

func TestSkipIndexesByNameMatchesGroups(t *testing.T) {
	dup := model.NewDuplicatedIndexes("orders", []model.IndexWithSize{
		model.NewIndexWithSize("orders", "idx_a", 1),
		model.NewIndexWithSize("orders", "idx_b", 1),
	})
	assert.False(t, SkipIndexesByName(model.DefaultSchemaContext(), "idx_b")(dup))
	assert.True(t, SkipIndexesByName(model.DefaultSchemaContext(), "idx_c")(dup))
}

func TestSkipTablesByNameEnrichesSchema(t *testing.T) {
	sales := mustSchema(t, "Sales")
	p := SkipTablesByName(sales, "orders", "sales.customers")
	assert.False(t, p(model.NewTable("sales.orders", 1)))
	assert.False(t, p(model.NewTable("SALES.CUSTOMERS", 1)))
	assert.True(t, p(model.NewTable("sales.payments", 1)))
	assert.True(t, p(model.NewStoredFunction("f", "f()")), "findings without a table pass")
}

func TestServiceTables(t *testing.T) {
	pub := model.DefaultSchemaContext()
	assert.False(t, SkipFlywayTables(pub)(model.NewTable("flyway_schema_history", 1)))
	assert.False(t, SkipLiquibaseTables(pub)(model.NewTable("databasechangeloglock", 1)))
	assert.True(t, SkipLiquibaseTables(pub)(model.NewTable("orders", 1)))
}

func TestColumnConstraintSequencePredicates(t *testing.T) {
	col := model.NewColumn("t", "Payload", false)
	fk := model.NewForeignKey("t", "fk_t_user", []model.Column{model.NewColumn("t", "user_id", true)})
	seq := model.NewSequenceState("orders_id_seq", "integer", 5)

	assert.False(t, SkipByColumnName("payload")(col))
	assert.False(t, SkipByColumnName("USER_ID")(fk), "any column of a composite finding matches")
	assert.False(t, SkipByConstraintName("FK_T_USER")(fk))
	assert.False(t, SkipByConstraintName("fk_t_user")(model.NewDuplicatedForeignKeys(fk, fk)))
	assert.False(t, SkipBySequenceName(model.DefaultSchemaContext(), "orders_id_seq")(seq))
	assert.True(t, SkipByColumnName()(col), "empty set keeps everything")
}

func TestSkipBloatUnderThresholdInclusive(t *testing.T) {
	p, err := SkipBloatUnderThreshold(100, 20)
	require.NoError(t, err)

	assert.True(t, p(model.NewIndexWithBloat("t", "i", 1000, 100, 20)), "boundary is accepted")
	assert.False(t, p(model.NewIndexWithBloat("t", "i", 1000, 99, 50)))
	assert.False(t, p(model.NewTableWithBloat("t", 1000, 500, 19.9)))
	assert.True(t, p(model.NewIndex("t", "i")), "non-bloat findings pass")

	zero, err := SkipBloatUnderThreshold(0, 0)
	require.NoError(t, err)
	assert.True(t, zero(model.NewIndexWithBloat("t", "i", 0, 0, 0)))
}

func TestThresholdValidation(t *testing.T) {
	_, err := SkipBloatUnderThreshold(-1, 10)
	assert.True(t, stderrors.Is(err, serr.ErrInvariantViolation))
	_, err = SkipBloatUnderThreshold(0, 100.5)
	assert.True(t, stderrors.Is(err, serr.ErrInvariantViolation))
	_, err = SkipBloatUnderThreshold(0, math.NaN())
	assert.True(t, stderrors.Is(err, serr.ErrInvariantViolation))
	_, err = SkipSmallIndexes(-5)
	assert.Error(t, err)
	_, err = SkipSmallTables(-5)
	assert.Error(t, err)
}

func TestSizePredicates(t *testing.T) {
	idx, err := SkipSmallIndexes(1024)
	require.NoError(t, err)
	assert.True(t, idx(model.NewUnusedIndex("t", "i", 1024, 0)))
	assert.False(t, idx(model.NewUnusedIndex("t", "i", 1023, 0)))

	tbl, err := SkipSmallTables(1024)
	require.NoError(t, err)
	assert.False(t, tbl(model.NewTableWithMissingIndex("t", 10, 100, 0)))
	assert.True(t, tbl(model.NewIndex("t", "i")))
}

func TestAndAndApplyArePureFilters(t *testing.T) {
	all := []model.Finding{
		model.NewIndex("a", "idx_1"),
		model.NewIndex("b", "idx_2"),
		model.NewIndex("c", "idx_3"),
	}
	p := And(SkipIndexesByName(model.DefaultSchemaContext(), "idx_2"), nil, SkipTablesByName(model.DefaultSchemaContext(), "c"))
	got := Apply(all, p)
	assert.Equal(t, []model.Finding{all[0]}, got)
	assert.Subset(t, all, got)

	assert.Equal(t, all, Apply(all, And()))
	assert.Equal(t, all, Apply(all, nil))
}
