package diagnostic

// Query templates. $1 is always the schema name; $2, when present, is the
// bloat or remaining percentage threshold.
const (
	queryBloatedIndexes = `with index_stats as (
    select
        pi.indexrelid as index_oid,
        pi.indrelid as table_oid,
        pc.relpages,
        pc.reltuples,
        current_setting('block_size')::float8 as block_size,
        coalesce(substring(array_to_string(pc.reloptions, ' ') from 'fillfactor=([0-9]+)')::float8, 90) as fill_factor,
        8 + sum((1 - coalesce(ps.null_frac, 0)) * coalesce(ps.avg_width, 1024))::float8 as tuple_size
    from pg_catalog.pg_index pi
    join pg_catalog.pg_class pc on pc.oid = pi.indexrelid
    join pg_catalog.pg_class tc on tc.oid = pi.indrelid
    join pg_catalog.pg_am am on am.oid = pc.relam and am.amname = 'btree'
    join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
    join pg_catalog.pg_attribute pa on pa.attrelid = pi.indrelid and pa.attnum = any(pi.indkey)
    left join pg_catalog.pg_stats ps on ps.schemaname = nsp.nspname and ps.tablename = tc.relname and ps.attname = pa.attname
    where pc.relpages > 0 and nsp.nspname = $1::text
    group by pi.indexrelid, pi.indrelid, pc.relpages, pc.reltuples, pc.reloptions
),
estimates as (
    select
        index_oid,
        table_oid,
        block_size * relpages as real_size,
        block_size * (1 + ceil(reltuples * (tuple_size + 4) / ((block_size - 40) * fill_factor / 100))) as expected_size
    from index_stats
)
select
    table_oid::regclass::text as table_name,
    index_oid::regclass::text as index_name,
    pg_catalog.pg_relation_size(index_oid) as index_size,
    greatest(real_size - expected_size, 0)::bigint as bloat_size,
    round((100 * greatest(real_size - expected_size, 0) / real_size)::numeric, 2)::float8 as bloat_percentage
from estimates
where 100 * (real_size - expected_size) / real_size >= $2::float8
order by table_name, index_name`

	queryBloatedTables = `with table_stats as (
    select
        pc.oid as table_oid,
        pc.relpages,
        pc.reltuples,
        current_setting('block_size')::float8 as block_size,
        24 + case when max(coalesce(ps.null_frac, 0)) > 0 then (7 + count(*)) / 8 else 0 end as tuple_header,
        sum((1 - coalesce(ps.null_frac, 0)) * coalesce(ps.avg_width, 0))::float8 as tuple_data
    from pg_catalog.pg_class pc
    join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
    join pg_catalog.pg_attribute pa on pa.attrelid = pc.oid and pa.attnum > 0 and not pa.attisdropped
    left join pg_catalog.pg_stats ps on ps.schemaname = nsp.nspname and ps.tablename = pc.relname and ps.attname = pa.attname
    where pc.relkind in ('r', 'p') and pc.relpages > 0 and nsp.nspname = $1::text
    group by pc.oid, pc.relpages, pc.reltuples
),
estimates as (
    select
        table_oid,
        block_size * relpages as real_size,
        block_size * ceil(reltuples / greatest(floor((block_size - 24) / (tuple_header + tuple_data + 4)), 1)) as expected_size
    from table_stats
)
select
    table_oid::regclass::text as table_name,
    pg_catalog.pg_table_size(table_oid) as table_size,
    greatest(real_size - expected_size, 0)::bigint as bloat_size,
    round((100 * greatest(real_size - expected_size, 0) / real_size)::numeric, 2)::float8 as bloat_percentage
from estimates
where 100 * (real_size - expected_size) / real_size >= $2::float8
order by table_name`

	queryDuplicatedIndexes = `select
    table_oid::regclass::text as table_name,
    string_agg('idx=' || index_oid::regclass::text || ', size=' || pg_catalog.pg_relation_size(index_oid), '; '
        order by index_oid::regclass::text) as duplicated_indexes
from (
    select
        pi.indexrelid as index_oid,
        pi.indrelid as table_oid,
        pi.indclass::text || ' ' || pi.indkey::text || ' ' ||
            coalesce(pg_catalog.pg_get_expr(pi.indexprs, pi.indrelid), '') || ' ' ||
            coalesce(pg_catalog.pg_get_expr(pi.indpred, pi.indrelid), '') as grouping_key
    from pg_catalog.pg_index pi
    join pg_catalog.pg_class pc on pc.oid = pi.indexrelid
    join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
    where nsp.nspname = $1::text and not pi.indisexclusion
) idx
group by table_oid, grouping_key
having count(*) > 1
order by table_name, duplicated_indexes`

	queryIntersectedIndexes = `with index_info as (
    select
        pi.indrelid as table_oid,
        pi.indexrelid as index_oid,
        pi.indkey::text as cols
    from pg_catalog.pg_index pi
    join pg_catalog.pg_class pc on pc.oid = pi.indexrelid
    join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
    join pg_catalog.pg_am am on am.oid = pc.relam and am.amname = 'btree'
    where nsp.nspname = $1::text and pi.indexprs is null and pi.indpred is null
)
select
    a.table_oid::regclass::text as table_name,
    'idx=' || a.index_oid::regclass::text || ', size=' || pg_catalog.pg_relation_size(a.index_oid) ||
        '; idx=' || b.index_oid::regclass::text || ', size=' || pg_catalog.pg_relation_size(b.index_oid) as duplicated_indexes
from index_info a
join index_info b on b.table_oid = a.table_oid and a.index_oid < b.index_oid
where a.cols <> b.cols and (b.cols like a.cols || ' %' or a.cols like b.cols || ' %')
order by table_name, duplicated_indexes`

	queryForeignKeysWithoutIndex = `select
    c.conrelid::regclass::text as table_name,
    c.conname::text as constraint_name,
    array_agg(a.attname::text || ', ' || a.attnotnull::text order by u.ord) as columns
from pg_catalog.pg_constraint c
join pg_catalog.pg_namespace nsp on nsp.oid = c.connamespace
cross join lateral unnest(c.conkey) with ordinality as u(attnum, ord)
join pg_catalog.pg_attribute a on a.attrelid = c.conrelid and a.attnum = u.attnum
where c.contype = 'f' and nsp.nspname = $1::text
    and not exists (
        select 1
        from pg_catalog.pg_index pi
        where pi.indrelid = c.conrelid
            and (string_to_array(pi.indkey::text, ' ')::int2[])[1:array_length(c.conkey, 1)] @> c.conkey
    )
group by c.conrelid, c.conname
order by table_name, constraint_name`

	queryIndexesWithNullValues = `select
    pi.indrelid::regclass::text as table_name,
    pi.indexrelid::regclass::text as index_name,
    pg_catalog.pg_relation_size(pi.indexrelid) as index_size,
    array_agg(a.attname::text || ', ' || a.attnotnull::text order by a.attnum) as columns
from pg_catalog.pg_index pi
join pg_catalog.pg_class pc on pc.oid = pi.indexrelid
join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
join pg_catalog.pg_attribute a on a.attrelid = pi.indrelid and a.attnum = any(pi.indkey)
where nsp.nspname = $1::text
    and not pi.indisunique
    and pi.indpred is null
    and not a.attnotnull
group by pi.indrelid, pi.indexrelid
order by table_name, index_name`

	queryInvalidIndexes = `select
    pi.indrelid::regclass::text as table_name,
    pi.indexrelid::regclass::text as index_name
from pg_catalog.pg_index pi
join pg_catalog.pg_class pc on pc.oid = pi.indexrelid
join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
where not pi.indisvalid and nsp.nspname = $1::text
order by table_name, index_name`

	queryTablesWithMissingIndexes = `select
    psat.relid::regclass::text as table_name,
    pg_catalog.pg_table_size(psat.relid) as table_size,
    coalesce(psat.seq_scan, 0) as seq_scans,
    coalesce(psat.idx_scan, 0) as index_scans
from pg_catalog.pg_stat_all_tables psat
where psat.schemaname = $1::text
    and coalesce(psat.seq_scan, 0) - coalesce(psat.idx_scan, 0) > 0
    and pg_catalog.pg_table_size(psat.relid) > 5 * current_setting('block_size')::int
order by table_name`

	queryTablesWithoutPrimaryKey = `select
    pc.oid::regclass::text as table_name,
    pg_catalog.pg_table_size(pc.oid) as table_size
from pg_catalog.pg_class pc
join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
where pc.relkind in ('r', 'p') and not pc.relispartition and nsp.nspname = $1::text
    and not exists (
        select 1 from pg_catalog.pg_constraint c where c.conrelid = pc.oid and c.contype = 'p'
    )
order by table_name`

	queryUnusedIndexes = `select
    psui.relid::regclass::text as table_name,
    psui.indexrelid::regclass::text as index_name,
    pg_catalog.pg_relation_size(psui.indexrelid) as index_size,
    psui.idx_scan as index_scans
from pg_catalog.pg_stat_all_indexes psui
join pg_catalog.pg_index pi on pi.indexrelid = psui.indexrelid
where psui.schemaname = $1::text
    and not pi.indisunique
    and psui.idx_scan < 50
    and not exists (select 1 from pg_catalog.pg_constraint c where c.conindid = pi.indexrelid)
order by table_name, index_name`

	queryTablesWithoutDescription = `select
    pc.oid::regclass::text as table_name,
    pg_catalog.pg_table_size(pc.oid) as table_size
from pg_catalog.pg_class pc
join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
where pc.relkind in ('r', 'p') and not pc.relispartition and nsp.nspname = $1::text
    and coalesce(length(trim(pg_catalog.obj_description(pc.oid, 'pg_class'))), 0) = 0
order by table_name`

	queryColumnsWithoutDescription = `select
    t.oid::regclass::text as table_name,
    col.attname::text as column_name,
    col.attnotnull as column_not_null
from pg_catalog.pg_class t
join pg_catalog.pg_namespace nsp on nsp.oid = t.relnamespace
join pg_catalog.pg_attribute col on col.attrelid = t.oid
where t.relkind in ('r', 'p') and not t.relispartition and nsp.nspname = $1::text
    and col.attnum > 0 and not col.attisdropped
    and coalesce(length(trim(pg_catalog.col_description(t.oid, col.attnum))), 0) = 0
order by table_name, column_name`

	queryColumnsWithJSONType = `select
    t.oid::regclass::text as table_name,
    col.attname::text as column_name,
    col.attnotnull as column_not_null
from pg_catalog.pg_class t
join pg_catalog.pg_namespace nsp on nsp.oid = t.relnamespace
join pg_catalog.pg_attribute col on col.attrelid = t.oid
where t.relkind in ('r', 'p') and not t.relispartition and nsp.nspname = $1::text
    and col.attnum > 0 and not col.attisdropped
    and col.atttypid = 'json'::regtype
order by table_name, column_name`

	// serial columns own their sequence through an auto dependency
	querySerialColumns = `select
    t.oid::regclass::text as table_name,
    col.attname::text as column_name,
    col.attnotnull as column_not_null,
    case col.atttypid
        when 'int2'::regtype then 'smallserial'
        when 'int4'::regtype then 'serial'
        else 'bigserial'
    end as column_type,
    seq.oid::regclass::text as sequence_name
from pg_catalog.pg_class t
join pg_catalog.pg_namespace nsp on nsp.oid = t.relnamespace
join pg_catalog.pg_attribute col on col.attrelid = t.oid
join pg_catalog.pg_depend dep on dep.refobjid = t.oid and dep.refobjsubid = col.attnum
    and dep.deptype = 'a' and dep.classid = 'pg_catalog.pg_class'::regclass
join pg_catalog.pg_class seq on seq.oid = dep.objid and seq.relkind = 'S'
where nsp.nspname = $1::text
    and col.attnum > 0 and not col.attisdropped
    and col.atttypid in ('int2'::regtype, 'int4'::regtype, 'int8'::regtype)
    and %s exists (
        select 1 from pg_catalog.pg_constraint c
        where c.conrelid = t.oid and c.contype = 'p' and col.attnum = any(c.conkey)
    )
order by table_name, column_name`

	queryFunctionsWithoutDescription = `select
    p.oid::regproc::text as function_name,
    p.oid::regprocedure::text as function_signature
from pg_catalog.pg_proc p
join pg_catalog.pg_namespace nsp on nsp.oid = p.pronamespace
where nsp.nspname = $1::text
    and p.prokind in ('f', 'p')
    and coalesce(length(trim(pg_catalog.obj_description(p.oid, 'pg_proc'))), 0) = 0
    and not exists (select 1 from pg_catalog.pg_depend d where d.objid = p.oid and d.deptype = 'e')
order by function_name, function_signature`

	// %s restricts the indexed column types
	queryIndexesOnColumnType = `select
    pi.indrelid::regclass::text as table_name,
    pi.indexrelid::regclass::text as index_name,
    pg_catalog.pg_relation_size(pi.indexrelid) as index_size,
    array_agg(a.attname::text || ', ' || a.attnotnull::text order by a.attnum) as columns
from pg_catalog.pg_index pi
join pg_catalog.pg_class pc on pc.oid = pi.indexrelid
join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
join pg_catalog.pg_am am on am.oid = pc.relam
join pg_catalog.pg_attribute a on a.attrelid = pi.indrelid and a.attnum = any(pi.indkey)
join pg_catalog.pg_type ty on ty.oid = a.atttypid
where nsp.nspname = $1::text and %s
group by pi.indrelid, pi.indexrelid
order by table_name, index_name`

	queryNotValidConstraints = `select
    c.conrelid::regclass::text as table_name,
    c.conname::text as constraint_name,
    c.contype::text as constraint_type
from pg_catalog.pg_constraint c
join pg_catalog.pg_namespace nsp on nsp.oid = c.connamespace
where not c.convalidated and c.contype in ('c', 'f') and nsp.nspname = $1::text
order by table_name, constraint_name`

	querySequenceOverflow = `with seqs as (
    select
        (quote_ident(s.schemaname) || '.' || quote_ident(s.sequencename))::regclass::text as sequence_name,
        s.data_type::text as data_type,
        case when s.increment_by > 0
            then 100.0 * (s.max_value::numeric - coalesce(s.last_value, s.start_value)::numeric) / (s.max_value::numeric - s.min_value::numeric)
            else 100.0 * (coalesce(s.last_value, s.start_value)::numeric - s.min_value::numeric) / (s.max_value::numeric - s.min_value::numeric)
        end as remaining_percentage
    from pg_catalog.pg_sequences s
    where s.schemaname = $1::text and not s.cycle
)
select
    sequence_name,
    data_type,
    round(remaining_percentage, 2)::float8 as remaining_percentage
from seqs
where remaining_percentage <= $2::float8
order by sequence_name`

	// %s compares the two constraint column sets
	queryForeignKeyPairs = `with fkeys as (
    select
        c.conrelid,
        c.oid,
        c.conname::text as conname,
        c.conkey,
        c.confrelid,
        c.confkey,
        array_agg(a.attname::text || ', ' || a.attnotnull::text order by u.ord) as cols
    from pg_catalog.pg_constraint c
    join pg_catalog.pg_namespace nsp on nsp.oid = c.connamespace
    cross join lateral unnest(c.conkey) with ordinality as u(attnum, ord)
    join pg_catalog.pg_attribute a on a.attrelid = c.conrelid and a.attnum = u.attnum
    where c.contype = 'f' and nsp.nspname = $1::text
    group by c.conrelid, c.oid, c.conname, c.conkey, c.confrelid, c.confkey
)
select
    a.conrelid::regclass::text as table_name,
    a.conname as constraint_name,
    a.cols as columns,
    b.conname as %[2]s_constraint_name,
    b.cols as %[2]s_constraint_columns
from fkeys a
join fkeys b on b.conrelid = a.conrelid and a.oid < b.oid and b.confrelid = a.confrelid
where %[1]s
order by table_name, constraint_name, %[2]s_constraint_name`

	// %s filters object names
	queryObjectNames = `select object_name, object_type
from (
    select
        pc.oid::regclass::text as object_name,
        case pc.relkind
            when 'r' then 'table' when 'p' then 'table'
            when 'i' then 'index' when 'I' then 'index'
            when 'S' then 'sequence'
            when 'v' then 'view'
            when 'm' then 'materialized view'
        end as object_type,
        pc.relname::text as raw_name
    from pg_catalog.pg_class pc
    join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
    where nsp.nspname = $1::text and pc.relkind in ('r', 'p', 'i', 'I', 'S', 'v', 'm')
    union all
    select c.conname::text, 'constraint', c.conname::text
    from pg_catalog.pg_constraint c
    join pg_catalog.pg_namespace nsp on nsp.oid = c.connamespace
    where nsp.nspname = $1::text
    union all
    select p.oid::regprocedure::text, case p.prokind when 'p' then 'procedure' else 'function' end, p.proname::text
    from pg_catalog.pg_proc p
    join pg_catalog.pg_namespace nsp on nsp.oid = p.pronamespace
    where nsp.nspname = $1::text and p.prokind in ('f', 'p')
) objects
where %s
order by object_type, object_name`

	queryTablesNotLinkedToOthers = `select
    pc.oid::regclass::text as table_name,
    pg_catalog.pg_table_size(pc.oid) as table_size
from pg_catalog.pg_class pc
join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
where pc.relkind in ('r', 'p') and not pc.relispartition and nsp.nspname = $1::text
    and not exists (
        select 1 from pg_catalog.pg_constraint c
        where c.contype = 'f' and (c.conrelid = pc.oid or c.confrelid = pc.oid)
    )
order by table_name`

	queryForeignKeysWithUnmatchedColumnType = `select
    c.conrelid::regclass::text as table_name,
    c.conname::text as constraint_name,
    array_agg(a.attname::text || ', ' || a.attnotnull::text order by u.ord) as columns
from pg_catalog.pg_constraint c
join pg_catalog.pg_namespace nsp on nsp.oid = c.connamespace
cross join lateral unnest(c.conkey, c.confkey) with ordinality as u(attnum, fattnum, ord)
join pg_catalog.pg_attribute a on a.attrelid = c.conrelid and a.attnum = u.attnum
join pg_catalog.pg_attribute fa on fa.attrelid = c.confrelid and fa.attnum = u.fattnum
where c.contype = 'f' and nsp.nspname = $1::text
group by c.conrelid, c.conname
having bool_or(a.atttypid <> fa.atttypid or a.atttypmod <> fa.atttypmod)
order by table_name, constraint_name`

	queryTablesWithZeroOrOneColumn = `select
    pc.oid::regclass::text as table_name,
    pg_catalog.pg_table_size(pc.oid) as table_size,
    coalesce(
        array_agg(a.attname::text || ', ' || a.attnotnull::text order by a.attnum) filter (where a.attnum is not null),
        '{}'::text[]
    ) as columns
from pg_catalog.pg_class pc
join pg_catalog.pg_namespace nsp on nsp.oid = pc.relnamespace
left join pg_catalog.pg_attribute a on a.attrelid = pc.oid and a.attnum > 0 and not a.attisdropped
where pc.relkind in ('r', 'p') and not pc.relispartition and nsp.nspname = $1::text
group by pc.oid
having count(a.attnum) <= 1
order by table_name`
)
