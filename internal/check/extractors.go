package check

import (
	"pgstruct-mcp/internal/diagnostic"
	"pgstruct-mcp/internal/extract"
	"pgstruct-mcp/internal/model"
)

var builtinExtractors = map[diagnostic.ID]extract.Func{
	diagnostic.BloatedIndexes:                      extract.Erase[model.IndexWithBloat](extract.IndexWithBloat),
	diagnostic.BloatedTables:                       extract.Erase[model.TableWithBloat](extract.TableWithBloat),
	diagnostic.DuplicatedIndexes:                   extract.Erase[model.DuplicatedIndexes](extract.DuplicatedIndexes),
	diagnostic.ForeignKeysWithoutIndex:             extract.Erase(extract.ForeignKey("")),
	diagnostic.IndexesWithNullValues:               extract.Erase[model.IndexWithColumns](extract.IndexWithColumns),
	diagnostic.IntersectedIndexes:                  extract.Erase[model.DuplicatedIndexes](extract.DuplicatedIndexes),
	diagnostic.InvalidIndexes:                      extract.Erase[model.Index](extract.Index),
	diagnostic.TablesWithMissingIndexes:            extract.Erase[model.TableWithMissingIndex](extract.TableWithMissingIndex),
	diagnostic.TablesWithoutPrimaryKey:             extract.Erase[model.Table](extract.Table),
	diagnostic.UnusedIndexes:                       extract.Erase[model.UnusedIndex](extract.UnusedIndex),
	diagnostic.TablesWithoutDescription:            extract.Erase[model.Table](extract.Table),
	diagnostic.ColumnsWithoutDescription:           extract.Erase[model.Column](extract.Column),
	diagnostic.ColumnsWithJSONType:                 extract.Erase[model.Column](extract.Column),
	diagnostic.ColumnsWithSerialTypes:              extract.Erase[model.ColumnWithSerialType](extract.ColumnWithSerialType),
	diagnostic.FunctionsWithoutDescription:         extract.Erase[model.StoredFunction](extract.StoredFunction),
	diagnostic.IndexesWithBoolean:                  extract.Erase[model.IndexWithColumns](extract.IndexWithColumns),
	diagnostic.NotValidConstraints:                 extract.Erase[model.Constraint](extract.Constraint),
	diagnostic.BtreeIndexesOnArrayColumns:          extract.Erase[model.IndexWithColumns](extract.IndexWithColumns),
	diagnostic.SequenceOverflow:                    extract.Erase[model.SequenceState](extract.SequenceState),
	diagnostic.PrimaryKeysWithSerialTypes:          extract.Erase[model.ColumnWithSerialType](extract.ColumnWithSerialType),
	diagnostic.DuplicatedForeignKeys:               extract.Erase(extract.DuplicatedForeignKeys("duplicate")),
	diagnostic.IntersectedForeignKeys:              extract.Erase(extract.DuplicatedForeignKeys("intersected")),
	diagnostic.PossibleObjectNameOverflow:          extract.Erase[model.AnyObject](extract.AnyObject),
	diagnostic.TablesNotLinkedToOthers:             extract.Erase[model.Table](extract.Table),
	diagnostic.ForeignKeysWithUnmatchedColumnType:  extract.Erase(extract.ForeignKey("")),
	diagnostic.TablesWithZeroOrOneColumn:           extract.Erase[model.TableWithColumns](extract.TableWithColumns),
	diagnostic.ObjectsNotFollowingNamingConvention: extract.Erase[model.AnyObject](extract.AnyObject),
}

// Extractors returns a copy of the built-in diagnostic to extractor table.
func Extractors() map[diagnostic.ID]extract.Func {
	out := make(map[diagnostic.ID]extract.Func, len(builtinExtractors))
	for id, fn := range builtinExtractors {
		out[id] = fn
	}
	return out
}
