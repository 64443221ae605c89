package model

import "encoding/json"

type Table struct {
	tableName string
	sizeBytes int64
}

func NewTable(tableName string, sizeBytes int64) Table {
	return Table{tableName: tableName, sizeBytes: sizeBytes}
}

func (t Table) Name() string            { return t.tableName }
func (t Table) ObjectType() ObjectType  { return ObjectTable }
func (t Table) TableName() string       { return t.tableName }
func (t Table) TableSizeInBytes() int64 { return t.sizeBytes }

func (t Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName string `json:"table_name"`
		TableSize int64  `json:"table_size"`
	}{t.tableName, t.sizeBytes})
}

type TableWithBloat struct {
	Table
	bloatBytes   int64
	bloatPercent float64
}

func NewTableWithBloat(tableName string, sizeBytes, bloatBytes int64, bloatPercent float64) TableWithBloat {
	return TableWithBloat{Table: NewTable(tableName, sizeBytes), bloatBytes: bloatBytes, bloatPercent: bloatPercent}
}

func (t TableWithBloat) BloatSizeInBytes() int64  { return t.bloatBytes }
func (t TableWithBloat) BloatPercentage() float64 { return t.bloatPercent }

func (t TableWithBloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName       string  `json:"table_name"`
		TableSize       int64   `json:"table_size"`
		BloatSize       int64   `json:"bloat_size"`
		BloatPercentage float64 `json:"bloat_percentage"`
	}{t.tableName, t.sizeBytes, t.bloatBytes, t.bloatPercent})
}

// TableWithMissingIndex is a table read mostly through sequential scans.
type TableWithMissingIndex struct {
	Table
	seqScans   int64
	indexScans int64
}

func NewTableWithMissingIndex(tableName string, sizeBytes, seqScans, indexScans int64) TableWithMissingIndex {
	return TableWithMissingIndex{Table: NewTable(tableName, sizeBytes), seqScans: seqScans, indexScans: indexScans}
}

func (t TableWithMissingIndex) SeqScans() int64   { return t.seqScans }
func (t TableWithMissingIndex) IndexScans() int64 { return t.indexScans }

func (t TableWithMissingIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName  string `json:"table_name"`
		TableSize  int64  `json:"table_size"`
		SeqScans   int64  `json:"seq_scans"`
		IndexScans int64  `json:"index_scans"`
	}{t.tableName, t.sizeBytes, t.seqScans, t.indexScans})
}

type TableWithColumns struct {
	Table
	columns []Column
}

func NewTableWithColumns(tableName string, sizeBytes int64, columns []Column) TableWithColumns {
	return TableWithColumns{Table: NewTable(tableName, sizeBytes), columns: append([]Column(nil), columns...)}
}

func (t TableWithColumns) Columns() []Column { return append([]Column(nil), t.columns...) }

func (t TableWithColumns) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName string   `json:"table_name"`
		TableSize int64    `json:"table_size"`
		Columns   []Column `json:"columns"`
	}{t.tableName, t.sizeBytes, t.columns})
}
