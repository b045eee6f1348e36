package router

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/boomballa/rkv/internal/command"
	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/rkvconfig"
	"github.com/boomballa/rkv/internal/slot"
	"github.com/boomballa/rkv/internal/testutil"
	"github.com/boomballa/rkv/rkverr"
)

func hostPort(addr string) (string, int64) {
	h, p, err := net.SplitHostPort(addr)
	if err != nil {
		panic(err)
	}
	n, _ := strconv.ParseInt(p, 10, 64)
	return h, n
}

func clusterSlotsReply(full string) resp.Value {
	h, p := hostPort(full)
	return resp.Array(resp.Array(
		resp.Integer(0), resp.Integer(16383),
		resp.Array(resp.BulkStringFrom(h), resp.Integer(p)),
	))
}

func isClusterSlots(args []string) bool {
	return len(args) >= 2 && args[0] == "CLUSTER" && args[1] == "SLOTS"
}

func newTestRouter(t *testing.T, seeds []string) *Router {
	t.Helper()
	r := New(seeds, nil, rkvconfig.DefaultOptions())
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(r.Close)
	return r
}

func TestDispatchSetThenGet(t *testing.T) {
	node := testutil.StartFakeNode(t, nil)
	store := map[string]string{}
	node.SetHandler(func(args []string) resp.Value {
		if isClusterSlots(args) {
			return clusterSlotsReply(node.Addr())
		}
		switch args[0] {
		case "SET":
			store[args[1]] = args[2]
			return resp.SimpleString("OK")
		case "GET":
			v, ok := store[args[1]]
			if !ok {
				return resp.Nil
			}
			return resp.BulkStringFrom(v)
		}
		return resp.Error("ERR unknown command")
	})

	r := newTestRouter(t, []string{node.Addr()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if _, err := Dispatch[bool](ctx, r, command.Set{Key: "test", Value: []byte("value")}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := Dispatch[[]byte](ctx, r, command.Get{Key: "test"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "value" {
		t.Fatalf("got %q, want value", got)
	}
}

func TestDispatchMultipleSlotRejected(t *testing.T) {
	node := testutil.StartFakeNode(t, nil)
	node.SetHandler(func(args []string) resp.Value {
		if isClusterSlots(args) {
			return clusterSlotsReply(node.Addr())
		}
		return resp.Error("ERR unreachable")
	})
	r := newTestRouter(t, []string{node.Addr()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Dispatch[int64](ctx, r, command.Del{Keys: []string{"a", "b"}})
	if !rkverr.Is(err, rkverr.MultipleSlot) {
		t.Fatalf("expected MultipleSlot error, got %v", err)
	}
}

func TestDispatchFollowsMovedRedirect(t *testing.T) {
	var nodeA, nodeB *testutil.FakeNode
	nodeA = testutil.StartFakeNode(t, nil)
	nodeB = testutil.StartFakeNode(t, nil)

	keySlot := slot.KeySlot("k")
	nodeA.SetHandler(func(args []string) resp.Value {
		if isClusterSlots(args) {
			return clusterSlotsReply(nodeA.Addr())
		}
		return resp.Error(fmt.Sprintf("MOVED %d %s", keySlot, nodeB.Addr()))
	})
	nodeB.SetHandler(func(args []string) resp.Value {
		if isClusterSlots(args) {
			return clusterSlotsReply(nodeB.Addr())
		}
		if args[0] == "GET" {
			return resp.BulkStringFrom("moved-value")
		}
		return resp.Error("ERR unknown")
	})

	r := newTestRouter(t, []string{nodeA.Addr()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := Dispatch[[]byte](ctx, r, command.Get{Key: "k"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "moved-value" {
		t.Fatalf("got %q, want moved-value", got)
	}
}

func TestDispatchFollowsAskRedirect(t *testing.T) {
	var src, dst *testutil.FakeNode
	src = testutil.StartFakeNode(t, nil)
	dst = testutil.StartFakeNode(t, nil)

	keySlot := slot.KeySlot("k")
	src.SetHandler(func(args []string) resp.Value {
		if isClusterSlots(args) {
			return clusterSlotsReply(src.Addr())
		}
		return resp.Error(fmt.Sprintf("ASK %d %s", keySlot, dst.Addr()))
	})
	sawAsking := false
	dst.SetHandler(func(args []string) resp.Value {
		if isClusterSlots(args) {
			return clusterSlotsReply(dst.Addr())
		}
		if args[0] == "ASKING" {
			sawAsking = true
			return resp.SimpleString("OK")
		}
		if args[0] == "GET" {
			return resp.BulkStringFrom("ask-value")
		}
		return resp.Error("ERR unknown")
	})

	r := newTestRouter(t, []string{src.Addr()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	got, err := Dispatch[[]byte](ctx, r, command.Get{Key: "k"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != "ask-value" {
		t.Fatalf("got %q, want ask-value", got)
	}
	time.Sleep(50 * time.Millisecond) // let the fire-and-forget ASKING land
	if !sawAsking {
		t.Fatal("expected ASKING to have been sent to the destination node")
	}
}

func TestStopClearsTableAndReconnects(t *testing.T) {
	node := testutil.StartFakeNode(t, nil)
	node.SetHandler(func(args []string) resp.Value {
		if isClusterSlots(args) {
			return clusterSlotsReply(node.Addr())
		}
		if args[0] == "GET" {
			return resp.BulkStringFrom("still-here")
		}
		return resp.Error("ERR unknown")
	})
	r := newTestRouter(t, []string{node.Addr()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	got, err := Dispatch[[]byte](ctx, r, command.Get{Key: "k"})
	if err != nil {
		t.Fatalf("Get after Stop: %v", err)
	}
	if string(got) != "still-here" {
		t.Fatalf("got %q, want still-here", got)
	}
}
