package tools

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"pgstruct-mcp/internal/cache"
	"pgstruct-mcp/internal/check"
	"pgstruct-mcp/internal/config"
	"pgstruct-mcp/internal/db"
	"pgstruct-mcp/internal/db/dbtest"
	dbsql "pgstruct-mcp/internal/db/sql"
	"pgstruct-mcp/internal/diagnostic"
	serr "pgstruct-mcp/internal/errors"
	"pgstruct-mcp/internal/management"
	"pgstruct-mcp/internal/safety"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fixture struct {
	deps Dependencies
	a, b *dbtest.Querier
}

func newFixture(t *testing.T, mutate func(*config.Config)) fixture {
	t.Helper()
	a, qa := dbtest.NewNode("a", false)
	b, qb := dbtest.NewNode("b", true)
	cluster, err := db.NewCluster([]*db.Node{a, b}, a)
	require.NoError(t, err)
	engine, err := check.New(cluster)
	require.NoError(t, err)
	cfg := config.Config{
		Mode:                         config.ModeReadOnly,
		MaxRows:                      100,
		Schemas:                      []string{"public"},
		BloatPercentageThreshold:     10,
		RemainingPercentageThreshold: 10,
		ReportFormat:                 config.FormatText,
		EnableCaching:                true,
		CacheTTLSeconds:              60,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return fixture{
		deps: Dependencies{
			Cluster:    cluster,
			Engine:     engine,
			Manager:    management.New(cluster, zap.NewNop()),
			Logger:     zap.NewNop(),
			Guardrails: safety.NewGuardrails(cfg),
			Config:     cfg,
			Roles:      cache.New[[]db.NodeRole](),
		},
		a: qa,
		b: qb,
	}
}

func errorCode(t *testing.T, res *mcp.CallToolResult) serr.ErrorCode {
	t.Helper()
	require.NotNil(t, res)
	require.True(t, res.IsError)
	return res.StructuredContent.(map[string]any)["code"].(serr.ErrorCode)
}

func unusedQuery(t *testing.T) string {
	t.Helper()
	d, err := diagnostic.Default().DescriptorFor(diagnostic.UnusedIndexes)
	require.NoError(t, err)
	return d.Query
}

func unusedRow(index string) db.Row {
	return db.Row{"table_name": "orders", "index_name": index, "index_size": int64(8192), "index_scans": int64(0)}
}

func TestPing(t *testing.T) {
	_, out, err := Ping(context.Background(), Dependencies{}, PingInput{})
	require.NoError(t, err)
	assert.Equal(t, "pong", out.Pong)
	_, out, _ = Ping(context.Background(), Dependencies{}, PingInput{Message: "hi"})
	assert.Equal(t, "hi", out.Pong)
}

func TestRunDiagnosticFiltersAndPages(t *testing.T) {
	fx := newFixture(t, nil)
	q := unusedQuery(t)
	fx.a.On(q, unusedRow("idx_1"), unusedRow("idx_skip"))
	fx.b.On(q, unusedRow("idx_2"))

	res, out, err := RunDiagnostic(context.Background(), fx.deps, RunDiagnosticInput{
		Diagnostic:     "unused_indexes",
		ExcludeIndexes: []string{"IDX_SKIP"},
		Limit:          1,
		Offset:         1,
	})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, diagnostic.UnusedIndexes, out.Diagnostic)
	assert.Equal(t, diagnostic.AcrossCluster, out.Topology)
	assert.Equal(t, "public", out.Schema)
	assert.Equal(t, Meta{Limit: 1, Offset: 1, Total: 2}, out.Meta)
	require.Len(t, out.Findings, 1)
	assert.Equal(t, "idx_2", out.Findings[0].Name())
}

func TestRunDiagnosticErrors(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	res, _, _ := RunDiagnostic(ctx, fx.deps, RunDiagnosticInput{Diagnostic: "NO_SUCH_CHECK"})
	assert.Equal(t, serr.CodeUnknownDiagnostic, errorCode(t, res))

	bad := 150.0
	res, _, _ = RunDiagnostic(ctx, fx.deps, RunDiagnosticInput{Diagnostic: "BLOATED_TABLES", BloatPercentageThreshold: &bad})
	assert.Equal(t, serr.CodeInvalidInput, errorCode(t, res))

	fx.b.OnError(unusedQuery(t), stderrors.New("connection refused"))
	fx.a.On(unusedQuery(t))
	res, _, _ = RunDiagnostic(ctx, fx.deps, RunDiagnosticInput{Diagnostic: "UNUSED_INDEXES"})
	assert.Equal(t, serr.CodeConnectivity, errorCode(t, res))
}

func TestListDiagnosticsFilters(t *testing.T) {
	fx := newFixture(t, nil)
	_, all, err := ListDiagnostics(context.Background(), fx.deps, ListDiagnosticsInput{})
	require.NoError(t, err)
	assert.Equal(t, len(diagnostic.Default().All()), all.Total)

	_, across, err := ListDiagnostics(context.Background(), fx.deps, ListDiagnosticsInput{Topology: "across_cluster"})
	require.NoError(t, err)
	require.NotEmpty(t, across.Diagnostics)
	for _, d := range across.Diagnostics {
		assert.Equal(t, diagnostic.AcrossCluster, d.Topology)
		assert.Equal(t, diagnostic.Runtime, d.Kind)
	}
}

func TestClusterTopologyUsesRoleCache(t *testing.T) {
	fx := newFixture(t, nil)
	ctx := context.Background()

	_, first, err := ClusterTopology(ctx, fx.deps, ClusterTopologyInput{})
	require.NoError(t, err)
	assert.False(t, first.FromCache)
	require.Len(t, first.Nodes, 2)
	assert.True(t, first.Nodes[0].Primary)
	assert.False(t, first.Nodes[1].Primary)
	probes := fx.a.ProbeCount() + fx.b.ProbeCount()

	_, second, err := ClusterTopology(ctx, fx.deps, ClusterTopologyInput{})
	require.NoError(t, err)
	assert.True(t, second.FromCache)
	assert.Equal(t, probes, fx.a.ProbeCount()+fx.b.ProbeCount())

	_, third, err := ClusterTopology(ctx, fx.deps, ClusterTopologyInput{Refresh: true})
	require.NoError(t, err)
	assert.False(t, third.FromCache)
	assert.Greater(t, fx.a.ProbeCount()+fx.b.ProbeCount(), probes)
}

func TestResetStatisticsRequiresApproval(t *testing.T) {
	ctx := context.Background()
	off := newFixture(t, nil)
	res, _, _ := ResetStatistics(ctx, off.deps, ResetStatisticsInput{ApprovalToken: "x"})
	assert.Equal(t, serr.CodeExecuteDisabled, errorCode(t, res))

	fx := newFixture(t, func(c *config.Config) {
		c.Mode = config.ModeAdmin
		c.AllowExecute = true
		c.ApprovalSecret = "s3cret"
	})
	res, _, _ = ResetStatistics(ctx, fx.deps, ResetStatisticsInput{})
	assert.Equal(t, serr.CodeApprovalRequired, errorCode(t, res))

	_, tok, err := RequestApprovalToken(ctx, fx.deps, RequestApprovalTokenInput{Action: ActionResetStatistics})
	require.NoError(t, err)
	require.NotEmpty(t, tok.Token)

	fx.a.On(dbsql.QueryResetStats)
	fx.b.OnError(dbsql.QueryResetStats, stderrors.New("permission denied"))
	res, out, err := ResetStatistics(ctx, fx.deps, ResetStatisticsInput{ApprovalToken: tok.Token})
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, out.Failed)
	assert.Nil(t, out.ResetAt)
	require.Len(t, out.Results, 2)
	assert.True(t, out.Results[0].Reset)

	fx.b.On(dbsql.QueryResetStats)
	_, out, _ = ResetStatistics(ctx, fx.deps, ResetStatisticsInput{ApprovalToken: tok.Token})
	assert.Equal(t, 0, out.Failed)
	assert.NotNil(t, out.ResetAt)
}

func TestRequestApprovalToken(t *testing.T) {
	ctx := context.Background()
	ro := newFixture(t, nil)
	res, _, _ := RequestApprovalToken(ctx, ro.deps, RequestApprovalTokenInput{Action: ActionResetStatistics})
	assert.Equal(t, serr.CodePermissionDenied, errorCode(t, res))

	admin := newFixture(t, func(c *config.Config) { c.Mode = config.ModeAdmin })
	res, _, _ = RequestApprovalToken(ctx, admin.deps, RequestApprovalTokenInput{Action: ActionResetStatistics})
	assert.Equal(t, serr.CodeExecuteDisabled, errorCode(t, res))

	fx := newFixture(t, func(c *config.Config) {
		c.Mode = config.ModeAdmin
		c.AllowExecute = true
		c.ApprovalSecret = "s3cret"
	})
	res, _, _ = RequestApprovalToken(ctx, fx.deps, RequestApprovalTokenInput{Action: "drop_everything"})
	assert.Equal(t, serr.CodeInvalidInput, errorCode(t, res))

	_, out, err := RequestApprovalToken(ctx, fx.deps, RequestApprovalTokenInput{Action: ActionResetStatistics, TTLSeconds: 30})
	require.NoError(t, err)
	assert.NoError(t, safety.ValidateApprovalToken("s3cret", ActionResetStatistics, out.Token))
	assert.WithinDuration(t, time.Now().Add(30*time.Second), *out.ExpiresAt, 5*time.Second)
}

func TestServerInfo(t *testing.T) {
	fx := newFixture(t, nil)
	at := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	fx.a.On(dbsql.QueryServerVersion, db.Row{"server_version": "16.2"})
	fx.a.On(dbsql.QueryCurrentDB, db.Row{"current_database": "app"})
	fx.a.On(dbsql.QueryCapabilities, db.Row{"can_reset_stats": true, "can_read_all_stats": true, "has_pg_stat_statements": false})
	fx.a.On(dbsql.QueryStatsResetTime, db.Row{"stats_reset": at})

	_, out, err := ServerInfo(context.Background(), fx.deps)
	require.NoError(t, err)
	assert.Empty(t, out.Warnings)
	assert.Equal(t, 2, out.Hosts)
	assert.True(t, out.ReadOnly)
	require.NotNil(t, out.Primary)
	assert.Equal(t, "16.2", out.Primary.PostgresVersion)
	assert.Equal(t, "app", out.Primary.Database)
	require.NotNil(t, out.Capabilities)
	assert.True(t, out.Capabilities.CanResetStats)
	require.NotNil(t, out.StatsResetAt)
	assert.True(t, at.Equal(*out.StatsResetAt))
}

func TestServerInfoWithoutPrimary(t *testing.T) {
	fx := newFixture(t, nil)
	fx.a.SetInRecovery(true)

	res, out, err := ServerInfo(context.Background(), fx.deps)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Nil(t, out.Primary)
	assert.Len(t, out.Warnings, 1)
}

func TestHealthReportRendersConfiguredFormat(t *testing.T) {
	fx := newFixture(t, func(c *config.Config) {
		c.ReportFormat = config.FormatYAML
		c.Exclusions.Indexes = []string{"idx_ignored"}
	})
	for _, d := range diagnostic.Default().All() {
		fx.a.On(d.Query)
		fx.b.On(d.Query)
	}
	fx.a.On(unusedQuery(t), unusedRow("idx_1"), unusedRow("idx_ignored"))

	res, out, err := HealthReport(context.Background(), fx.deps, HealthReportInput{})
	require.NoError(t, err)
	require.Nil(t, res)
	assert.Equal(t, 1, out.Total)
	assert.Contains(t, out.Rendered, "key: unused_indexes")

	_, out, _ = HealthReport(context.Background(), fx.deps, HealthReportInput{Format: config.FormatText})
	assert.Contains(t, out.Rendered, "\tdb_indexes_health\tunused_indexes\t1")

	res, _, _ = HealthReport(context.Background(), fx.deps, HealthReportInput{Format: "xml"})
	assert.Equal(t, serr.CodeInvalidInput, errorCode(t, res))
}
