// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Row extractors: one per finding variant, composed for nested values.

package extract

import (
	"fmt"
	"strconv"
	"strings"

	"pgstruct-mcp/internal/db"
	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/model"
)

// Column names shared by the diagnostic queries.
const (
	ColTableName         = "table_name"
	ColTableSize         = "table_size"
	ColIndexName         = "index_name"
	ColIndexSize         = "index_size"
	ColIndexScans        = "index_scans"
	ColBloatSize         = "bloat_size"
	ColBloatPercentage   = "bloat_percentage"
	ColSeqScans          = "seq_scans"
	ColColumns           = "columns"
	ColColumnName        = "column_name"
	ColColumnNotNull     = "column_not_null"
	ColColumnType        = "column_type"
	ColSequenceName      = "sequence_name"
	ColDataType          = "data_type"
	ColRemainingPercent  = "remaining_percentage"
	ColConstraintName    = "constraint_name"
	ColConstraintType    = "constraint_type"
	ColConstraintColumns = "constraint_columns"
	ColDuplicatedIndexes = "duplicated_indexes"
	ColFunctionName      = "function_name"
	ColFunctionSignature = "function_signature"
	ColObjectName        = "object_name"
	ColObjectType        = "object_type"
)

// Extractor builds one finding from one row.
type Extractor[T model.Finding] func(db.Row) (T, error)

// Func is an Extractor with the variant erased.
type Func func(db.Row) (model.Finding, error)

func Erase[T model.Finding](e Extractor[T]) Func {
	return func(r db.Row) (model.Finding, error) {
		v, err := e(r)
		if err != nil {
			return nil, err
		}
		return v, nil
	}
}

func Table(r db.Row) (model.Table, error) {
	name, err := r.String(ColTableName)
	if err != nil {
		return model.Table{}, err
	}
	size, err := r.Int64(ColTableSize)
	if err != nil {
		return model.Table{}, err
	}
	return model.NewTable(name, size), nil
}

func TableWithBloat(r db.Row) (model.TableWithBloat, error) {
	t, err := Table(r)
	if err != nil {
		return model.TableWithBloat{}, err
	}
	bloat, pct, err := bloat(r)
	if err != nil {
		return model.TableWithBloat{}, err
	}
	return model.NewTableWithBloat(t.TableName(), t.TableSizeInBytes(), bloat, pct), nil
}

func TableWithMissingIndex(r db.Row) (model.TableWithMissingIndex, error) {
	t, err := Table(r)
	if err != nil {
		return model.TableWithMissingIndex{}, err
	}
	seq, err := r.Int64(ColSeqScans)
	if err != nil {
		return model.TableWithMissingIndex{}, err
	}
	idx, err := r.Int64(ColIndexScans)
	if err != nil {
		return model.TableWithMissingIndex{}, err
	}
	return model.NewTableWithMissingIndex(t.TableName(), t.TableSizeInBytes(), seq, idx), nil
}

func TableWithColumns(r db.Row) (model.TableWithColumns, error) {
	t, err := Table(r)
	if err != nil {
		return model.TableWithColumns{}, err
	}
	cols, err := columns(r, t.TableName(), ColColumns)
	if err != nil {
		return model.TableWithColumns{}, err
	}
	return model.NewTableWithColumns(t.TableName(), t.TableSizeInBytes(), cols), nil
}

func Index(r db.Row) (model.Index, error) {
	table, err := r.String(ColTableName)
	if err != nil {
		return model.Index{}, err
	}
	index, err := r.String(ColIndexName)
	if err != nil {
		return model.Index{}, err
	}
	return model.NewIndex(table, index), nil
}

func IndexWithSize(r db.Row) (model.IndexWithSize, error) {
	i, err := Index(r)
	if err != nil {
		return model.IndexWithSize{}, err
	}
	size, err := r.Int64(ColIndexSize)
	if err != nil {
		return model.IndexWithSize{}, err
	}
	return model.NewIndexWithSize(i.TableName(), i.IndexName(), size), nil
}

func UnusedIndex(r db.Row) (model.UnusedIndex, error) {
	i, err := IndexWithSize(r)
	if err != nil {
		return model.UnusedIndex{}, err
	}
	scans, err := r.Int64(ColIndexScans)
	if err != nil {
		return model.UnusedIndex{}, err
	}
	return model.NewUnusedIndex(i.TableName(), i.IndexName(), i.IndexSizeInBytes(), scans), nil
}

func IndexWithBloat(r db.Row) (model.IndexWithBloat, error) {
	i, err := IndexWithSize(r)
	if err != nil {
		return model.IndexWithBloat{}, err
	}
	bloat, pct, err := bloat(r)
	if err != nil {
		return model.IndexWithBloat{}, err
	}
	return model.NewIndexWithBloat(i.TableName(), i.IndexName(), i.IndexSizeInBytes(), bloat, pct), nil
}

func IndexWithColumns(r db.Row) (model.IndexWithColumns, error) {
	i, err := IndexWithSize(r)
	if err != nil {
		return model.IndexWithColumns{}, err
	}
	cols, err := columns(r, i.TableName(), ColColumns)
	if err != nil {
		return model.IndexWithColumns{}, err
	}
	return model.NewIndexWithColumns(i.TableName(), i.IndexName(), i.IndexSizeInBytes(), cols), nil
}

func DuplicatedIndexes(r db.Row) (model.DuplicatedIndexes, error) {
	table, err := r.String(ColTableName)
	if err != nil {
		return model.DuplicatedIndexes{}, err
	}
	raw, err := r.String(ColDuplicatedIndexes)
	if err != nil {
		return model.DuplicatedIndexes{}, err
	}
	indexes, err := ParseDuplicatedIndexes(table, raw)
	if err != nil {
		return model.DuplicatedIndexes{}, err
	}
	return model.NewDuplicatedIndexes(table, indexes), nil
}

// ParseDuplicatedIndexes reads "idx=<name>, size=<bytes>; idx=<name>, size=<bytes>".
func ParseDuplicatedIndexes(table, raw string) ([]model.IndexWithSize, error) {
	var out []model.IndexWithSize
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ",", 2)
		if len(parts) != 2 {
			return nil, serr.NewExtraction(ColDuplicatedIndexes, fmt.Sprintf("malformed entry %q", entry))
		}
		name, okName := strings.CutPrefix(strings.TrimSpace(parts[0]), "idx=")
		sizeStr, okSize := strings.CutPrefix(strings.TrimSpace(parts[1]), "size=")
		if !okName || !okSize || name == "" {
			return nil, serr.NewExtraction(ColDuplicatedIndexes, fmt.Sprintf("malformed entry %q", entry))
		}
		size, err := strconv.ParseInt(sizeStr, 10, 64)
		if err != nil {
			return nil, serr.NewExtraction(ColDuplicatedIndexes, fmt.Sprintf("bad size in %q", entry))
		}
		out = append(out, model.NewIndexWithSize(table, name, size))
	}
	if len(out) < 2 {
		return nil, serr.NewExtraction(ColDuplicatedIndexes, "expected at least two indexes")
	}
	return out, nil
}

func Column(r db.Row) (model.Column, error) {
	table, err := r.String(ColTableName)
	if err != nil {
		return model.Column{}, err
	}
	name, err := r.String(ColColumnName)
	if err != nil {
		return model.Column{}, err
	}
	notNull, err := r.Bool(ColColumnNotNull)
	if err != nil {
		return model.Column{}, err
	}
	return model.NewColumn(table, name, notNull), nil
}

func ColumnWithSerialType(r db.Row) (model.ColumnWithSerialType, error) {
	c, err := Column(r)
	if err != nil {
		return model.ColumnWithSerialType{}, err
	}
	typ, err := r.String(ColColumnType)
	if err != nil {
		return model.ColumnWithSerialType{}, err
	}
	seq, err := r.String(ColSequenceName)
	if err != nil {
		return model.ColumnWithSerialType{}, err
	}
	return model.NewColumnWithSerialType(c, typ, seq), nil
}

// ParseColumn reads the "name, not_null" form used in column arrays. Column
// names may themselves contain commas, so only the last one separates.
func ParseColumn(table, raw string) (model.Column, error) {
	i := strings.LastIndexByte(raw, ',')
	if i < 0 {
		return model.Column{}, serr.NewExtraction(ColColumns, fmt.Sprintf("malformed column %q", raw))
	}
	name := strings.TrimSpace(raw[:i])
	notNull, err := strconv.ParseBool(strings.TrimSpace(raw[i+1:]))
	if err != nil || name == "" {
		return model.Column{}, serr.NewExtraction(ColColumns, fmt.Sprintf("malformed column %q", raw))
	}
	return model.NewColumn(table, name, notNull), nil
}

func columns(r db.Row, table, col string) ([]model.Column, error) {
	raw, err := r.Strings(col)
	if err != nil {
		return nil, err
	}
	out := make([]model.Column, 0, len(raw))
	for _, c := range raw {
		parsed, err := ParseColumn(table, c)
		if err != nil {
			return nil, err
		}
		out = append(out, parsed)
	}
	return out, nil
}

func Constraint(r db.Row) (model.Constraint, error) {
	table, err := r.String(ColTableName)
	if err != nil {
		return model.Constraint{}, err
	}
	name, err := r.String(ColConstraintName)
	if err != nil {
		return model.Constraint{}, err
	}
	typ, err := r.String(ColConstraintType)
	if err != nil {
		return model.Constraint{}, err
	}
	return model.NewConstraint(table, name, typ), nil
}

// ForeignKey reads constraint_name and columns, or
// <prefix>_constraint_name and <prefix>_constraint_columns when prefix is set.
func ForeignKey(prefix string) Extractor[model.ForeignKey] {
	nameCol, colsCol := ColConstraintName, ColColumns
	if prefix != "" {
		nameCol = prefix + "_" + ColConstraintName
		colsCol = prefix + "_" + ColConstraintColumns
	}
	return func(r db.Row) (model.ForeignKey, error) {
		table, err := r.String(ColTableName)
		if err != nil {
			return model.ForeignKey{}, err
		}
		name, err := r.String(nameCol)
		if err != nil {
			return model.ForeignKey{}, err
		}
		cols, err := columns(r, table, colsCol)
		if err != nil {
			return model.ForeignKey{}, err
		}
		return model.NewForeignKey(table, name, cols), nil
	}
}

// DuplicatedForeignKeys pairs the unprefixed foreign key with the prefixed one.
func DuplicatedForeignKeys(prefix string) Extractor[model.DuplicatedForeignKeys] {
	first, second := ForeignKey(""), ForeignKey(prefix)
	return func(r db.Row) (model.DuplicatedForeignKeys, error) {
		a, err := first(r)
		if err != nil {
			return model.DuplicatedForeignKeys{}, err
		}
		b, err := second(r)
		if err != nil {
			return model.DuplicatedForeignKeys{}, err
		}
		return model.NewDuplicatedForeignKeys(a, b), nil
	}
}

func SequenceState(r db.Row) (model.SequenceState, error) {
	name, err := r.String(ColSequenceName)
	if err != nil {
		return model.SequenceState{}, err
	}
	typ, err := r.String(ColDataType)
	if err != nil {
		return model.SequenceState{}, err
	}
	pct, err := r.Float64(ColRemainingPercent)
	if err != nil {
		return model.SequenceState{}, err
	}
	return model.NewSequenceState(name, typ, pct), nil
}

func StoredFunction(r db.Row) (model.StoredFunction, error) {
	name, err := r.String(ColFunctionName)
	if err != nil {
		return model.StoredFunction{}, err
	}
	sig, err := r.String(ColFunctionSignature)
	if err != nil {
		return model.StoredFunction{}, err
	}
	return model.NewStoredFunction(name, sig), nil
}

func AnyObject(r db.Row) (model.AnyObject, error) {
	name, err := r.String(ColObjectName)
	if err != nil {
		return model.AnyObject{}, err
	}
	typ, err := r.String(ColObjectType)
	if err != nil {
		return model.AnyObject{}, err
	}
	return model.NewAnyObject(name, model.ObjectType(typ)), nil
}

func bloat(r db.Row) (int64, float64, error) {
	size, err := r.Int64(ColBloatSize)
	if err != nil {
		return 0, 0, err
	}
	pct, err := r.Float64(ColBloatPercentage)
	if err != nil {
		return 0, 0, err
	}
	return size, pct, nil
}
