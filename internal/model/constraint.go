package model

import (
	"encoding/json"
	"strings"
)

// Constraint types as reported by pg_constraint.contype.
const (
	ConstraintCheck      = "c"
	ConstraintForeignKey = "f"
	ConstraintPrimaryKey = "p"
	ConstraintUnique     = "u"
	ConstraintExclusion  = "x"
)

type Constraint struct {
	tableName      string
	constraintName string
	constraintType string
}

func NewConstraint(tableName, constraintName, constraintType string) Constraint {
	return Constraint{tableName: tableName, constraintName: constraintName, constraintType: constraintType}
}

func (c Constraint) Name() string           { return c.constraintName }
func (c Constraint) ObjectType() ObjectType { return ObjectConstraint }
func (c Constraint) TableName() string      { return c.tableName }
func (c Constraint) ConstraintName() string { return c.constraintName }
func (c Constraint) ConstraintType() string { return c.constraintType }

func (c Constraint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName      string `json:"table_name"`
		ConstraintName string `json:"constraint_name"`
		ConstraintType string `json:"constraint_type"`
	}{c.tableName, c.constraintName, c.constraintType})
}

type ForeignKey struct {
	Constraint
	columns []Column
}

func NewForeignKey(tableName, constraintName string, columns []Column) ForeignKey {
	return ForeignKey{
		Constraint: NewConstraint(tableName, constraintName, ConstraintForeignKey),
		columns:    append([]Column(nil), columns...),
	}
}

func (f ForeignKey) Columns() []Column { return append([]Column(nil), f.columns...) }

func (f ForeignKey) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName      string   `json:"table_name"`
		ConstraintName string   `json:"constraint_name"`
		Columns        []Column `json:"columns"`
	}{f.tableName, f.constraintName, f.columns})
}

// DuplicatedForeignKeys groups foreign keys of one table with identical or
// overlapping column sets.
type DuplicatedForeignKeys struct {
	foreignKeys []ForeignKey
}

func NewDuplicatedForeignKeys(foreignKeys ...ForeignKey) DuplicatedForeignKeys {
	return DuplicatedForeignKeys{foreignKeys: append([]ForeignKey(nil), foreignKeys...)}
}

func (d DuplicatedForeignKeys) Name() string {
	names := make([]string, 0, len(d.foreignKeys))
	for _, fk := range d.foreignKeys {
		names = append(names, fk.ConstraintName())
	}
	return strings.Join(names, ",")
}

func (d DuplicatedForeignKeys) ObjectType() ObjectType { return ObjectConstraint }

func (d DuplicatedForeignKeys) TableName() string {
	if len(d.foreignKeys) == 0 {
		return ""
	}
	return d.foreignKeys[0].TableName()
}

func (d DuplicatedForeignKeys) ForeignKeys() []ForeignKey {
	return append([]ForeignKey(nil), d.foreignKeys...)
}

func (d DuplicatedForeignKeys) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		TableName   string       `json:"table_name"`
		ForeignKeys []ForeignKey `json:"foreign_keys"`
	}{d.TableName(), d.foreignKeys})
}
