// Package router implements the cluster routing actor: it owns the slot
// table and the registry of per-node connections, dispatches commands to
// the right node, and resolves MOVED/ASK redirects.
//
// The mailbox idiom (a buffered channel of closures drained by one
// goroutine) is grounded on kevwan-radix.v2/cluster/cluster.go's
// callCh/spin() pair. The retry/redirect state machine — including the
// shared 16-hop budget and the fire-and-forget ASKING dispatch — follows a
// Handler<RawRequest>-style actor loop. Refresh coalescing (at most one
// CLUSTER SLOTS in flight) is grounded on a vendored go-redis
// ClusterClient, specifically clusterStateHolder's Load/LazyReload
// single-flight gate.
package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/boomballa/rkv/internal/command"
	"github.com/boomballa/rkv/internal/conn"
	"github.com/boomballa/rkv/internal/logger"
	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/rkvconfig"
	"github.com/boomballa/rkv/internal/slot"
	"github.com/boomballa/rkv/rkverr"
)

// defaultMaxRetry is used when rkvconfig.Options.MaxRetries is zero, which
// a caller building Options by hand (rather than through DefaultOptions)
// may leave unset.
const defaultMaxRetry = 16

type slotRange struct {
	start, end int64
	master     string
}

func (r slotRange) contains(s slot.Slot) bool {
	return int64(s) >= r.start && int64(s) <= r.end
}

type refreshState struct {
	done chan struct{}
	err  error
}

// Router is the cluster routing actor. Its mailbox serializes every
// mutation of the slot table and node registry; command dispatch performs
// its network I/O outside the mailbox so one stalled node cannot block
// routing decisions for the rest of the cluster.
type Router struct {
	callCh chan func(*Router)
	dial   conn.Dialer

	maxRetry        int
	dialTimeout     time.Duration
	password        string
	minRefreshEvery time.Duration

	seeds       []string
	table       []slotRange
	nodes       map[string]*conn.NodeConn
	refresh     *refreshState
	lastRefresh time.Time
}

// New constructs a Router over the given seed addresses, configured by
// opts (dial timeout, retry budget, refresh throttle, AUTH password). Call
// Start before dispatching any command.
func New(seeds []string, dial conn.Dialer, opts rkvconfig.Options) *Router {
	maxRetry := opts.MaxRetries
	if maxRetry <= 0 {
		maxRetry = defaultMaxRetry
	}
	r := &Router{
		callCh:          make(chan func(*Router), 256),
		dial:            dial,
		maxRetry:        maxRetry,
		dialTimeout:     opts.PoolDialTimeout,
		password:        opts.Password,
		minRefreshEvery: opts.RefreshInterval,
		seeds:           append([]string(nil), seeds...),
		nodes:           make(map[string]*conn.NodeConn),
	}
	go r.spin()
	return r
}

func (r *Router) spin() {
	for fn := range r.callCh {
		fn(r)
	}
}

// call runs fn on the actor goroutine and blocks until it completes.
func (r *Router) call(fn func(*Router)) {
	done := make(chan struct{})
	r.callCh <- func(rt *Router) {
		fn(rt)
		close(done)
	}
	<-done
}

// Start performs the startup sequence: a synchronous CLUSTER SLOTS refresh
// against the seed addresses. New traffic should not be dispatched until
// this returns.
func (r *Router) Start(ctx context.Context) error {
	return r.refreshAndWait(ctx)
}

// Stop clears the slot table and drops every node connection (failing
// their in-flight waiters with Disconnected), then re-runs the startup
// sequence, matching the supervisor's restarting/started lifecycle.
func (r *Router) Stop(ctx context.Context) error {
	r.call(func(rt *Router) {
		for _, nc := range rt.nodes {
			nc.Close()
		}
		rt.nodes = make(map[string]*conn.NodeConn)
		rt.table = nil
		rt.lastRefresh = time.Time{} // force Start's refresh through, bypassing the throttle
	})
	return r.Start(ctx)
}

// Close permanently shuts the router down: every node connection is
// closed and the mailbox goroutine exits. The Router must not be used
// afterward.
func (r *Router) Close() {
	r.call(func(rt *Router) {
		for _, nc := range rt.nodes {
			nc.Close()
		}
		rt.nodes = make(map[string]*conn.NodeConn)
	})
	close(r.callCh)
}

// Nodes lists the addresses of every node connection currently registered,
// for introspection (internal/debugserver).
func (r *Router) Nodes() []string {
	var addrs []string
	r.call(func(rt *Router) {
		for addr := range rt.nodes {
			addrs = append(addrs, addr)
		}
	})
	return addrs
}

// Slots retrieves the live slot-to-node mapping directly from the
// cluster, for introspection (internal/debugserver).
func (r *Router) Slots(ctx context.Context) ([]command.SlotRange, error) {
	return Dispatch[[]command.SlotRange](ctx, r, command.ClusterSlots{})
}

// Dispatch routes cmd to the node owning its slot (or an arbitrary
// connected node for keyless commands), following MOVED/ASK redirects up
// to MaxRetry hops, and parses the final reply into T.
func Dispatch[T any](ctx context.Context, r *Router, cmd command.Command[T]) (T, error) {
	var zero T
	h := slot.NewHasher()
	if err := cmd.HashKeys(h); err != nil {
		return zero, rkverr.Wrap(rkverr.MultipleSlot, "command keys span multiple slots", err)
	}
	s, hasSlot := h.Get()

	addr, err := r.resolveAddr(ctx, s, hasSlot)
	if err != nil {
		return zero, err
	}

	reply, err := r.dispatchWithRetry(ctx, addr, cmd.IntoRequest(), 0)
	if err != nil {
		return zero, err
	}
	return cmd.FromResponse(reply)
}

func (r *Router) resolveAddr(ctx context.Context, s slot.Slot, hasSlot bool) (string, error) {
	if !hasSlot {
		return r.anyAddr(), nil
	}
	var addr string
	var found bool
	r.call(func(rt *Router) {
		for _, sr := range rt.table {
			if sr.contains(s) {
				addr, found = sr.master, true
				return
			}
		}
	})
	if !found {
		// Trigger a background refresh so a subsequent call has a better
		// chance of routing correctly; this call still fails now.
		go func() {
			if err := r.refreshAndWait(context.Background()); err != nil {
				logger.SlotEvent(logger.WARN, int64(s), "background refresh after miss failed: %v", err)
			}
		}()
		return "", rkverr.New(rkverr.NotConnected, fmt.Sprintf("no node known for slot %d", s))
	}
	return addr, nil
}

// anyAddr returns some address known to be reachable, for keyless
// commands: the first seed if no table has been built yet, otherwise any
// master from the current table.
func (r *Router) anyAddr() string {
	var addr string
	r.call(func(rt *Router) {
		if len(rt.table) > 0 {
			addr = rt.table[0].master
			return
		}
	})
	if addr != "" {
		return addr
	}
	if len(r.seeds) > 0 {
		return r.seeds[0]
	}
	return ""
}

func (r *Router) getOrCreateNode(addr string) *conn.NodeConn {
	var nc *conn.NodeConn
	r.call(func(rt *Router) {
		if existing, ok := rt.nodes[addr]; ok {
			nc = existing
			return
		}
		nc = conn.New(addr, rt.dial)
		nc.SetDialTimeout(rt.dialTimeout)
		nc.SetPassword(rt.password)
		rt.nodes[addr] = nc
	})
	return nc
}

// dispatchWithRetry sends req to addr and resolves MOVED/ASK redirects,
// sharing one MaxRetry budget across both redirect kinds.
func (r *Router) dispatchWithRetry(ctx context.Context, addr string, req resp.Value, attempt int) (resp.Value, error) {
	nc := r.getOrCreateNode(addr)
	reply, err := nc.Send(ctx, req)
	if err != nil {
		return resp.Value{}, err
	}
	if reply.Kind != resp.KindError {
		return reply, nil
	}

	kind, targetSlot, targetAddr, ok := parseRedirect(reply.Str)
	if !ok || attempt >= r.maxRetry {
		// Unrecognized error text, or the budget is exhausted: surface the
		// server error verbatim.
		return reply, nil
	}
	_ = targetSlot

	switch kind {
	case "MOVED":
		if err := r.refreshAndWait(ctx); err != nil {
			logger.SlotEvent(logger.WARN, targetSlot, "refresh after MOVED failed, keeping stale table: %v", err)
		}
		return r.dispatchWithRetry(ctx, targetAddr, req, attempt+1)
	case "ASK":
		target := r.getOrCreateNode(targetAddr)
		// Fire-and-forget: ASKING is dispatched directly against the
		// connection, bypassing this retry loop entirely, so it can never
		// itself be redirected.
		go func() {
			if _, err := target.Send(context.Background(), command.Asking{}.IntoRequest()); err != nil {
				logger.NodeWarn(targetAddr, "ASKING failed: %v", err)
			}
		}()
		return r.dispatchWithRetry(ctx, targetAddr, req, attempt+1)
	default:
		return reply, nil
	}
}

// parseRedirect recognizes "MOVED <slot> <host:port>" / "ASK <slot>
// <host:port>" error text, splitting on single spaces.
func parseRedirect(text string) (kind string, targetSlot int64, addr string, ok bool) {
	parts := strings.Split(text, " ")
	if len(parts) < 3 {
		return "", 0, "", false
	}
	if parts[0] != "MOVED" && parts[0] != "ASK" {
		return "", 0, "", false
	}
	s, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return "", 0, "", false
	}
	if parts[2] == "" {
		return "", 0, "", false
	}
	return parts[0], s, parts[2], true
}

// refreshAndWait performs (or joins) a single in-flight CLUSTER SLOTS
// refresh: concurrent callers while one is pending all wait on the same
// result rather than issuing their own queries. Once a refresh has
// completed, further callers within minRefreshEvery of it are answered
// from the existing table instead of triggering another round-trip.
func (r *Router) refreshAndWait(ctx context.Context) error {
	var rs *refreshState
	var leader, throttled bool
	r.call(func(rt *Router) {
		if rt.refresh != nil {
			rs = rt.refresh
			return
		}
		if rt.minRefreshEvery > 0 && !rt.lastRefresh.IsZero() && time.Since(rt.lastRefresh) < rt.minRefreshEvery {
			throttled = true
			return
		}
		rs = &refreshState{done: make(chan struct{})}
		rt.refresh = rs
		leader = true
	})

	if throttled {
		return nil
	}

	if leader {
		err := r.doRefresh(ctx)
		rs.err = err
		close(rs.done)
		r.call(func(rt *Router) {
			rt.refresh = nil
			if err == nil {
				rt.lastRefresh = time.Now()
			}
		})
		return err
	}

	select {
	case <-rs.done:
		return rs.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// doRefresh issues CLUSTER SLOTS against a seed (or any already-known
// node), parses the result, eagerly connects to each master, and swaps
// the table in. Failure leaves the prior table untouched.
func (r *Router) doRefresh(ctx context.Context) error {
	queryAddr := r.anyAddr()
	if queryAddr == "" {
		return rkverr.New(rkverr.NotConnected, "no seed address available")
	}

	nc := r.getOrCreateNode(queryAddr)
	cmd := command.ClusterSlots{}
	reply, err := nc.Send(ctx, cmd.IntoRequest())
	if err != nil {
		return err
	}
	ranges, err := cmd.FromResponse(reply)
	if err != nil {
		return err
	}

	newTable := make([]slotRange, 0, len(ranges))
	for _, rg := range ranges {
		if len(rg.Nodes) == 0 {
			continue
		}
		master := rg.Nodes[0]
		addr := fmt.Sprintf("%s:%d", master.Host, master.Port)
		newTable = append(newTable, slotRange{start: rg.Start, end: rg.End, master: addr})
		masterConn := r.getOrCreateNode(addr)
		go func() {
			if err := masterConn.Connect(context.Background()); err != nil {
				logger.NodeWarn(addr, "eager connect failed: %v", err)
			}
		}()
	}

	r.call(func(rt *Router) { rt.table = newTable })
	return nil
}
