// pgstruct-mcp: structural health diagnostics for PostgreSQL clusters
// SPDX-License-Identifier: MIT
//
// Unit tests for per-node fanout.

package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"pgstruct-mcp/internal/db"
	"pgstruct-mcp/internal/db/dbtest"
)

func testNodes() []*db.Node {
	a, _ := dbtest.NewNode("a", false)
	b, _ := dbtest.NewNode("b", true)
	c, _ := dbtest.NewNode("c", true)
	return []*db.Node{a, b, c}
}

func TestFanout(t *testing.T) {
	nodes := testNodes()
	res, err := Fanout[string](context.Background(), nodes, func(ctx context.Context, n *db.Node) (string, error) {
		return n.Host().Name, nil
	})
	if err != nil {
		t.Fatalf("Fanout error: %v", err)
	}
	if len(res) != len(nodes) {
		t.Fatalf("expected %d results, got %d", len(nodes), len(res))
	}
	for i, want := range []string{"a", "b", "c"} {
		if res[i] != want {
			t.Fatalf("result %d: expected %s, got %s", i, want, res[i])
		}
	}
}

func TestFanoutReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	res, err := Fanout[int](context.Background(), testNodes(), func(ctx context.Context, n *db.Node) (int, error) {
		if n.Host().Name == "b" {
			return 0, boom
		}
		return 1, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if res != nil {
		t.Fatalf("expected no results on error, got %v", res)
	}
}

func TestFanoutNSequential(t *testing.T) {
	var inFlight, maxInFlight int32
	_, err := FanoutN[struct{}](context.Background(), 1, testNodes(), func(ctx context.Context, n *db.Node) (struct{}, error) {
		cur := atomic.AddInt32(&inFlight, 1)
		if cur > atomic.LoadInt32(&maxInFlight) {
			atomic.StoreInt32(&maxInFlight, cur)
		}
		atomic.AddInt32(&inFlight, -1)
		return struct{}{}, nil
	})
	if err != nil {
		t.Fatalf("FanoutN error: %v", err)
	}
	if maxInFlight != 1 {
		t.Fatalf("expected one call in flight, saw %d", maxInFlight)
	}
}
