package model

import (
	"encoding/json"
	"strings"
)

type Index struct {
	tableName string
	indexName string
}

func NewIndex(tableName, indexName string) Index {
	return Index{tableName: tableName, indexName: indexName}
}

func (i Index) Name() string           { return i.indexName }
func (i Index) ObjectType() ObjectType { return ObjectIndex }
func (i Index) TableName() string      { return i.tableName }
func (i Index) IndexName() string      { return i.indexName }

func (i Index) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName string `json:"table_name"`
		IndexName string `json:"index_name"`
	}{i.tableName, i.indexName})
}

type IndexWithSize struct {
	Index
	sizeBytes int64
}

func NewIndexWithSize(tableName, indexName string, sizeBytes int64) IndexWithSize {
	return IndexWithSize{Index: NewIndex(tableName, indexName), sizeBytes: sizeBytes}
}

func (i IndexWithSize) IndexSizeInBytes() int64 { return i.sizeBytes }

func (i IndexWithSize) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName string `json:"table_name"`
		IndexName string `json:"index_name"`
		IndexSize int64  `json:"index_size"`
	}{i.tableName, i.indexName, i.sizeBytes})
}

// UnusedIndex carries the scan counter observed on one host.
type UnusedIndex struct {
	IndexWithSize
	indexScans int64
}

func NewUnusedIndex(tableName, indexName string, sizeBytes, indexScans int64) UnusedIndex {
	return UnusedIndex{IndexWithSize: NewIndexWithSize(tableName, indexName, sizeBytes), indexScans: indexScans}
}

func (i UnusedIndex) IndexScans() int64 { return i.indexScans }

func (i UnusedIndex) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName  string `json:"table_name"`
		IndexName  string `json:"index_name"`
		IndexSize  int64  `json:"index_size"`
		IndexScans int64  `json:"index_scans"`
	}{i.tableName, i.indexName, i.sizeBytes, i.indexScans})
}

type IndexWithBloat struct {
	IndexWithSize
	bloatBytes   int64
	bloatPercent float64
}

func NewIndexWithBloat(tableName, indexName string, sizeBytes, bloatBytes int64, bloatPercent float64) IndexWithBloat {
	return IndexWithBloat{
		IndexWithSize: NewIndexWithSize(tableName, indexName, sizeBytes),
		bloatBytes:    bloatBytes,
		bloatPercent:  bloatPercent,
	}
}

func (i IndexWithBloat) BloatSizeInBytes() int64  { return i.bloatBytes }
func (i IndexWithBloat) BloatPercentage() float64 { return i.bloatPercent }

func (i IndexWithBloat) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName       string  `json:"table_name"`
		IndexName       string  `json:"index_name"`
		IndexSize       int64   `json:"index_size"`
		BloatSize       int64   `json:"bloat_size"`
		BloatPercentage float64 `json:"bloat_percentage"`
	}{i.tableName, i.indexName, i.sizeBytes, i.bloatBytes, i.bloatPercent})
}

// IndexWithColumns is an index together with the columns that make it suspicious
// (nullable, boolean or array columns).
type IndexWithColumns struct {
	IndexWithSize
	columns []Column
}

func NewIndexWithColumns(tableName, indexName string, sizeBytes int64, columns []Column) IndexWithColumns {
	return IndexWithColumns{
		IndexWithSize: NewIndexWithSize(tableName, indexName, sizeBytes),
		columns:       append([]Column(nil), columns...),
	}
}

func (i IndexWithColumns) Columns() []Column { return append([]Column(nil), i.columns...) }

func (i IndexWithColumns) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName string   `json:"table_name"`
		IndexName string   `json:"index_name"`
		IndexSize int64    `json:"index_size"`
		Columns   []Column `json:"columns"`
	}{i.tableName, i.indexName, i.sizeBytes, i.columns})
}

// DuplicatedIndexes groups two or more indexes of one table covering the same
// (or intersecting) columns.
type DuplicatedIndexes struct {
	tableName string
	indexes   []IndexWithSize
}

func NewDuplicatedIndexes(tableName string, indexes []IndexWithSize) DuplicatedIndexes {
	return DuplicatedIndexes{tableName: tableName, indexes: append([]IndexWithSize(nil), indexes...)}
}

// Name joins the index names with commas.
func (d DuplicatedIndexes) Name() string {
	names := make([]string, 0, len(d.indexes))
	for _, idx := range d.indexes {
		names = append(names, idx.IndexName())
	}
	return strings.Join(names, ",")
}

func (d DuplicatedIndexes) ObjectType() ObjectType   { return ObjectIndex }
func (d DuplicatedIndexes) TableName() string        { return d.tableName }
func (d DuplicatedIndexes) Indexes() []IndexWithSize { return append([]IndexWithSize(nil), d.indexes...) }

// TotalSize sums the sizes of every index in the group.
func (d DuplicatedIndexes) TotalSize() int64 {
	var total int64
	for _, idx := range d.indexes {
		total += idx.IndexSizeInBytes()
	}
	return total
}

func (d DuplicatedIndexes) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName string          `json:"table_name"`
		TotalSize int64           `json:"total_size"`
		Indexes   []IndexWithSize `json:"indexes"`
	}{d.tableName, d.TotalSize(), d.indexes})
}
