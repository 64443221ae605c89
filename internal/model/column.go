package model

import "encoding/json"

type Column struct {
	tableName  string
	columnName string
	notNull    bool
}

func NewColumn(tableName, columnName string, notNull bool) Column {
	return Column{tableName: tableName, columnName: columnName, notNull: notNull}
}

func (c Column) Name() string           { return c.columnName }
func (c Column) ObjectType() ObjectType { return ObjectColumn }
func (c Column) TableName() string      { return c.tableName }
func (c Column) ColumnName() string     { return c.columnName }
func (c Column) IsNotNull() bool        { return c.notNull }
func (c Column) IsNullable() bool       { return !c.notNull }

func (c Column) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName  string `json:"table_name"`
		ColumnName string `json:"column_name"`
		NotNull    bool   `json:"not_null"`
	}{c.tableName, c.columnName, c.notNull})
}

// ColumnWithSerialType is a column backed by an owned sequence (smallserial, serial, bigserial).
type ColumnWithSerialType struct {
	Column
	serialType   string
	sequenceName string
}

func NewColumnWithSerialType(column Column, serialType, sequenceName string) ColumnWithSerialType {
	return ColumnWithSerialType{Column: column, serialType: serialType, sequenceName: sequenceName}
}

func (c ColumnWithSerialType) SerialType() string   { return c.serialType }
func (c ColumnWithSerialType) SequenceName() string { return c.sequenceName }

func (c ColumnWithSerialType) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName    string `json:"table_name"`
		ColumnName   string `json:"column_name"`
		NotNull      bool   `json:"not_null"`
		SerialType   string `json:"serial_type"`
		SequenceName string `json:"sequence_name"`
	}{c.tableName, c.columnName, c.notNull, c.serialType, c.sequenceName})
}
