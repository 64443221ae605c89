package dbsql

const (
	QueryServerVersion  = "SHOW server_version"
	QueryIsInRecovery   = "SELECT pg_is_in_recovery() AS pg_is_in_recovery"
	QueryCurrentDB      = "SELECT current_database() AS current_database"
	QueryStatsResetTime = "SELECT stats_reset FROM pg_stat_database WHERE datname = current_database()"
	QueryResetStats     = "SELECT pg_stat_reset()"
	QueryCapabilities   = `SELECT
    has_function_privilege('pg_stat_reset()', 'execute') AS can_reset_stats,
    pg_has_role(current_user, 'pg_read_all_stats', 'member') AS can_read_all_stats,
    EXISTS (SELECT 1 FROM pg_extension WHERE extname = 'pg_stat_statements') AS has_pg_stat_statements`
)
