// Package testutil provides in-process test doubles: a scriptable fake
// RESP node server used by internal/conn and internal/router unit tests,
// plus the go-redis-backed oracle helpers integration tests cross-check
// against — mirroring boomballa-df2redis/internal/comparator's role of
// comparing our behavior against a real Redis instance, but driving a real
// cluster deployment rather than a byte-level RDB/AOF diff.
package testutil

import (
	"bufio"
	"net"
	"sync"
	"testing"

	"github.com/boomballa/rkv/internal/resp"
)

// Handler answers one request, given its arguments (command name and
// operands as strings, bulk strings decoded).
type Handler func(args []string) resp.Value

// FakeNode is a single-node RESP server: it accepts any number of
// connections and answers every request with whatever Handler returns,
// letting tests script MOVED/ASK errors, CLUSTER SLOTS replies, and so on
// without a real cluster.
type FakeNode struct {
	ln net.Listener

	mu      sync.Mutex
	handler Handler
}

// StartFakeNode starts listening on an ephemeral local port and returns
// its address. The listener is closed when the test cleans up; connections
// already accepted stay open until their client side closes them.
func StartFakeNode(t *testing.T, handler Handler) *FakeNode {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("testutil: listen: %v", err)
	}
	n := &FakeNode{ln: ln, handler: handler}
	go n.acceptLoop()
	t.Cleanup(func() { ln.Close() })
	return n
}

// Addr returns "host:port" for this fake node.
func (n *FakeNode) Addr() string { return n.ln.Addr().String() }

// SetHandler swaps the response handler, letting a test change behavior
// mid-scenario (e.g. stop returning MOVED once the table should settle).
func (n *FakeNode) SetHandler(h Handler) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.handler = h
}

func (n *FakeNode) currentHandler() Handler {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.handler
}

func (n *FakeNode) acceptLoop() {
	for {
		c, err := n.ln.Accept()
		if err != nil {
			return
		}
		go n.serve(c)
	}
}

func (n *FakeNode) serve(c net.Conn) {
	defer c.Close()
	r := bufio.NewReader(c)
	for {
		v, err := resp.Decode(r)
		if err != nil {
			return
		}
		reply := n.currentHandler()(valueToArgs(v))
		if err := resp.Encode(c, reply); err != nil {
			return
		}
	}
}

func valueToArgs(v resp.Value) []string {
	if v.Kind != resp.KindArray {
		return nil
	}
	args := make([]string, len(v.Array))
	for i, e := range v.Array {
		switch e.Kind {
		case resp.KindBulkString:
			args[i] = string(e.Bulk)
		case resp.KindSimpleString:
			args[i] = e.Str
		}
	}
	return args
}
