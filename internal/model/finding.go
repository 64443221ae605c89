// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Finding variants produced by diagnostics. Every variant is an immutable
// value; slices are copied on construction and on access.

package model

type ObjectType string

const (
	ObjectTable            ObjectType = "table"
	ObjectIndex            ObjectType = "index"
	ObjectColumn           ObjectType = "column"
	ObjectConstraint       ObjectType = "constraint"
	ObjectSequence         ObjectType = "sequence"
	ObjectFunction         ObjectType = "function"
	ObjectProcedure        ObjectType = "procedure"
	ObjectView             ObjectType = "view"
	ObjectMaterializedView ObjectType = "materialized view"
)

// Finding is one reported instance of a structural problem.
type Finding interface {
	Name() string
	ObjectType() ObjectType
}

type TableNameAware interface {
	TableName() string
}

type IndexNameAware interface {
	IndexName() string
}

// IndexesAware is implemented by findings that group several indexes.
type IndexesAware interface {
	Indexes() []IndexWithSize
}

type ColumnNameAware interface {
	ColumnName() string
}

type ColumnsAware interface {
	Columns() []Column
}

type ConstraintNameAware interface {
	ConstraintName() string
}

// ConstraintsAware is implemented by findings that group several foreign keys.
type ConstraintsAware interface {
	ForeignKeys() []ForeignKey
}

type SequenceNameAware interface {
	SequenceName() string
}

type BloatAware interface {
	BloatSizeInBytes() int64
	BloatPercentage() float64
}

type IndexSizeAware interface {
	IndexSizeInBytes() int64
}

type TableSizeAware interface {
	TableSizeInBytes() int64
}
