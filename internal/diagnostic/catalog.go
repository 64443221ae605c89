package diagnostic

import "fmt"

// Catalog returns the built-in diagnostics in their canonical order.
func Catalog() []Descriptor {
	return []Descriptor{
		{BloatedIndexes, PrimaryOnly, Runtime, BindSchemaBloat,
			"B-tree indexes whose estimated bloat reaches the percentage threshold.",
			queryBloatedIndexes},
		{BloatedTables, PrimaryOnly, Runtime, BindSchemaBloat,
			"Tables whose estimated bloat reaches the percentage threshold.",
			queryBloatedTables},
		{DuplicatedIndexes, PrimaryOnly, Static, BindSchema,
			"Groups of indexes with identical definitions on the same table.",
			queryDuplicatedIndexes},
		{ForeignKeysWithoutIndex, PrimaryOnly, Static, BindSchema,
			"Foreign keys whose columns are not the leading columns of any index.",
			queryForeignKeysWithoutIndex},
		{IndexesWithNullValues, PrimaryOnly, Static, BindSchema,
			"Non-unique, non-partial indexes on nullable columns.",
			queryIndexesWithNullValues},
		{IntersectedIndexes, PrimaryOnly, Static, BindSchema,
			"Pairs of b-tree indexes where one key is a prefix of the other.",
			queryIntersectedIndexes},
		{InvalidIndexes, PrimaryOnly, Static, BindSchema,
			"Indexes left invalid by a failed concurrent build.",
			queryInvalidIndexes},
		{TablesWithMissingIndexes, AcrossCluster, Runtime, BindSchema,
			"Tables read by sequential scans more often than by index scans.",
			queryTablesWithMissingIndexes},
		{TablesWithoutPrimaryKey, PrimaryOnly, Static, BindSchema,
			"Tables without a primary key.",
			queryTablesWithoutPrimaryKey},
		{UnusedIndexes, AcrossCluster, Runtime, BindSchema,
			"Indexes rarely or never used by scans.",
			queryUnusedIndexes},
		{TablesWithoutDescription, PrimaryOnly, Static, BindSchema,
			"Tables without a comment.",
			queryTablesWithoutDescription},
		{ColumnsWithoutDescription, PrimaryOnly, Static, BindSchema,
			"Columns without a comment.",
			queryColumnsWithoutDescription},
		{ColumnsWithJSONType, PrimaryOnly, Static, BindSchema,
			"Columns of type json rather than jsonb.",
			queryColumnsWithJSONType},
		{ColumnsWithSerialTypes, PrimaryOnly, Static, BindSchema,
			"Non primary key columns backed by serial sequences.",
			fmt.Sprintf(querySerialColumns, "not")},
		{FunctionsWithoutDescription, PrimaryOnly, Static, BindSchema,
			"Functions and procedures without a comment.",
			queryFunctionsWithoutDescription},
		{IndexesWithBoolean, PrimaryOnly, Static, BindSchema,
			"Non-unique indexes containing a boolean column.",
			fmt.Sprintf(queryIndexesOnColumnType, "not pi.indisunique and a.atttypid = 'bool'::regtype")},
		{NotValidConstraints, PrimaryOnly, Static, BindSchema,
			"Check and foreign key constraints created NOT VALID and never validated.",
			queryNotValidConstraints},
		{BtreeIndexesOnArrayColumns, PrimaryOnly, Static, BindSchema,
			"B-tree indexes on array columns.",
			fmt.Sprintf(queryIndexesOnColumnType, "am.amname = 'btree' and ty.typcategory = 'A'")},
		{SequenceOverflow, PrimaryOnly, Runtime, BindSchemaRemaining,
			"Sequences whose remaining range is at or below the threshold.",
			querySequenceOverflow},
		{PrimaryKeysWithSerialTypes, PrimaryOnly, Static, BindSchema,
			"Primary key columns backed by serial sequences.",
			fmt.Sprintf(querySerialColumns, "")},
		{DuplicatedForeignKeys, PrimaryOnly, Static, BindSchema,
			"Pairs of foreign keys with identical columns and targets.",
			fmt.Sprintf(queryForeignKeyPairs, "a.conkey = b.conkey and a.confkey = b.confkey", "duplicate")},
		{IntersectedForeignKeys, PrimaryOnly, Static, BindSchema,
			"Pairs of foreign keys to the same table sharing some columns.",
			fmt.Sprintf(queryForeignKeyPairs, "a.conkey && b.conkey and a.conkey <> b.conkey", "intersected")},
		{PossibleObjectNameOverflow, PrimaryOnly, Static, BindSchema,
			"Objects whose names reach the identifier length limit and may have been truncated.",
			fmt.Sprintf(queryObjectNames, "length(raw_name) >= current_setting('max_identifier_length')::int")},
		{TablesNotLinkedToOthers, PrimaryOnly, Static, BindSchema,
			"Tables neither referencing nor referenced by a foreign key.",
			queryTablesNotLinkedToOthers},
		{ForeignKeysWithUnmatchedColumnType, PrimaryOnly, Static, BindSchema,
			"Foreign keys whose column types differ from the referenced columns.",
			queryForeignKeysWithUnmatchedColumnType},
		{TablesWithZeroOrOneColumn, PrimaryOnly, Static, BindSchema,
			"Tables with at most one column.",
			queryTablesWithZeroOrOneColumn},
		{ObjectsNotFollowingNamingConvention, PrimaryOnly, Static, BindSchema,
			"Objects whose names need quoting: upper case or characters outside [a-z0-9_].",
			fmt.Sprintf(queryObjectNames, "raw_name !~ '^[a-z_][a-z0-9_]*$'")},
	}
}
