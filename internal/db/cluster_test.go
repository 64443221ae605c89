package db_test

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"

	"pgstruct-mcp/internal/db"
	"pgstruct-mcp/internal/db/dbtest"
	serr "pgstruct-mcp/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClusterRequiresPreferredMember(t *testing.T) {
	a, _ := dbtest.NewNode("a", false)
	b, _ := dbtest.NewNode("b", true)
	outsider, _ := dbtest.NewNode("c", false)

	_, err := db.NewCluster([]*db.Node{a, b}, outsider)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, serr.ErrInvariantViolation))

	_, err = db.NewCluster(nil, a)
	assert.True(t, stderrors.Is(err, serr.ErrInvariantViolation))

	dup, _ := dbtest.NewNode("a", true)
	_, err = db.NewCluster([]*db.Node{a, dup}, a)
	assert.True(t, stderrors.Is(err, serr.ErrInvariantViolation))
}

func TestNodesContainsConstructionNode(t *testing.T) {
	a, _ := dbtest.NewNode("a", false)
	b, _ := dbtest.NewNode("b", true)
	c, err := db.NewCluster([]*db.Node{a, b}, b)
	require.NoError(t, err)
	assert.Contains(t, c.ConnectionsToAllHosts(), b)
	assert.Equal(t, []*db.Node{a, b}, c.Nodes())
	assert.Same(t, b, c.CachedPrimary())
}

func TestCurrentPrimaryCacheFirst(t *testing.T) {
	a, qa := dbtest.NewNode("a", false)
	b, qb := dbtest.NewNode("b", true)
	c, err := db.NewCluster([]*db.Node{a, b}, a)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		p, err := c.CurrentPrimary(context.Background())
		require.NoError(t, err)
		assert.Same(t, a, p)
	}
	assert.Equal(t, 3, qa.ProbeCount())
	assert.Equal(t, 0, qb.ProbeCount(), "standby must not be probed while cached primary holds")

	primary, at, ok := a.LastRole()
	assert.True(t, ok)
	assert.True(t, primary)
	assert.False(t, at.IsZero())
}

func TestCurrentPrimaryFollowsFailover(t *testing.T) {
	a, qa := dbtest.NewNode("a", false)
	b, qb := dbtest.NewNode("b", true)
	cn, qc := dbtest.NewNode("c", true)
	var switches []string
	c, err := db.NewCluster([]*db.Node{a, b, cn}, a, db.WithSwitchObserver(func(from, to db.Host) {
		switches = append(switches, from.String()+"->"+to.String())
	}))
	require.NoError(t, err)

	qa.SetInRecovery(true)
	qc.SetInRecovery(false)

	p, err := c.CurrentPrimary(context.Background())
	require.NoError(t, err)
	assert.Same(t, cn, p)
	assert.Same(t, cn, c.CachedPrimary())
	assert.Equal(t, []string{"a:5432->c:5432"}, switches)
	assert.Equal(t, 1, qb.ProbeCount())

	// cached again: only c is probed
	_, err = c.CurrentPrimary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, qb.ProbeCount())
	assert.Equal(t, 2, qc.ProbeCount())
}

func TestCurrentPrimaryNoPrimary(t *testing.T) {
	a, _ := dbtest.NewNode("a", true)
	b, _ := dbtest.NewNode("b", true)
	c, err := db.NewCluster([]*db.Node{a, b}, a)
	require.NoError(t, err)

	p, err := c.CurrentPrimary(context.Background())
	assert.Nil(t, p)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, serr.ErrAmbiguousPrimary))
	assert.True(t, stderrors.Is(err, serr.ErrNoPrimary))
}

func TestCurrentPrimarySplitBrain(t *testing.T) {
	a, _ := dbtest.NewNode("a", true)
	b, _ := dbtest.NewNode("b", false)
	cn, _ := dbtest.NewNode("c", false)
	c, err := db.NewCluster([]*db.Node{a, b, cn}, a)
	require.NoError(t, err)

	p, err := c.CurrentPrimary(context.Background())
	assert.Nil(t, p)
	assert.True(t, stderrors.Is(err, serr.ErrSplitBrain))
	assert.Equal(t, serr.CodeAmbiguousPrimary, serr.CodeOf(err))
	assert.Same(t, a, c.CachedPrimary(), "cache is left untouched on ambiguity")
}

func TestCurrentPrimaryProbeErrorAborts(t *testing.T) {
	a, qa := dbtest.NewNode("a", true)
	b, qb := dbtest.NewNode("b", false)
	cn, qc := dbtest.NewNode("c", false)
	c, err := db.NewCluster([]*db.Node{a, b, cn}, a)
	require.NoError(t, err)
	qb.SetProbeError(stderrors.New("connection refused"))

	_, err = c.CurrentPrimary(context.Background())
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, serr.ErrConnectivity))
	assert.Equal(t, 1, qa.ProbeCount())
	assert.Equal(t, 0, qc.ProbeCount(), "resolution stops at the failing node")

	qa.SetProbeError(stderrors.New("timeout"))
	_, err = c.CurrentPrimary(context.Background())
	assert.True(t, stderrors.Is(err, serr.ErrConnectivity))
}

func TestUnreachableCachedPrimaryLeavesRolesAvailable(t *testing.T) {
	a, qa := dbtest.NewNode("a", true)
	b, qb := dbtest.NewNode("b", false)
	c, err := db.NewCluster([]*db.Node{a, b}, a)
	require.NoError(t, err)
	qa.SetProbeError(stderrors.New("connection refused"))

	_, err = c.CurrentPrimary(context.Background())
	assert.True(t, stderrors.Is(err, serr.ErrConnectivity))
	assert.Equal(t, 0, qb.ProbeCount())
	assert.Same(t, a, c.CachedPrimary())

	roles := c.Roles(context.Background())
	require.Len(t, roles, 2)
	assert.NotEmpty(t, roles[0].Error)
	assert.True(t, roles[1].Primary)

	qa.SetProbeError(nil)
	p, err := c.CurrentPrimary(context.Background())
	require.NoError(t, err)
	assert.Same(t, b, p)
}

func TestCurrentPrimaryConcurrent(t *testing.T) {
	a, qa := dbtest.NewNode("a", true)
	b, _ := dbtest.NewNode("b", false)
	c, err := db.NewCluster([]*db.Node{a, b}, a)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := c.CurrentPrimary(context.Background())
			assert.NoError(t, err)
			assert.Same(t, b, p)
		}()
	}
	wg.Wait()
	assert.Same(t, b, c.CachedPrimary())
	assert.GreaterOrEqual(t, qa.ProbeCount(), 1)
}

func TestRolesSnapshot(t *testing.T) {
	a, _ := dbtest.NewNode("a", false)
	b, qb := dbtest.NewNode("b", true)
	qb.SetProbeError(stderrors.New("down"))
	c, err := db.NewCluster([]*db.Node{a, b}, a)
	require.NoError(t, err)

	roles := c.Roles(context.Background())
	require.Len(t, roles, 2)
	assert.True(t, roles[0].Primary)
	assert.True(t, roles[0].Cached)
	assert.False(t, roles[1].Primary)
	assert.NotEmpty(t, roles[1].Error)
}

func TestCloseClosesEveryNode(t *testing.T) {
	a, qa := dbtest.NewNode("a", false)
	b, qb := dbtest.NewNode("b", true)
	c, err := db.NewCluster([]*db.Node{a, b}, a)
	require.NoError(t, err)
	c.Close()
	assert.True(t, qa.Closed())
	assert.True(t, qb.Closed())
}
