// Package rkv is a client library for a Redis-Cluster-style sharded
// key-value store: a typed command set, automatic slot routing, and
// MOVED/ASK redirect handling, built the way
// boomballa-df2redis/internal/cluster.ClusterClient wraps per-node
// connections behind a single dispatching facade.
package rkv

import (
	"context"

	"github.com/boomballa/rkv/internal/command"
	"github.com/boomballa/rkv/internal/conn"
	"github.com/boomballa/rkv/internal/debugserver"
	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/rkvconfig"
	"github.com/boomballa/rkv/internal/router"
	"github.com/boomballa/rkv/internal/slot"
	"github.com/boomballa/rkv/rkverr"
)

// Client is a connected handle to a Redis Cluster deployment.
type Client struct {
	r *router.Router
}

// Dial connects to the cluster described by opts, performing the initial
// CLUSTER SLOTS discovery before returning.
func Dial(ctx context.Context, opts rkvconfig.Options) (*Client, error) {
	if len(opts.Seeds) == 0 {
		return nil, rkverr.New(rkverr.NotConnected, "no seed addresses configured")
	}
	r := router.New(opts.Seeds, nil, opts)
	if err := r.Start(ctx); err != nil {
		r.Close()
		return nil, err
	}
	return &Client{r: r}, nil
}

// Close shuts the client down, closing every node connection.
func (c *Client) Close() { c.r.Close() }

// Do dispatches an already-constructed command, for callers composing one
// of the typed variants directly or extending the command set.
func Do[T any](ctx context.Context, c *Client, cmd command.Command[T]) (T, error) {
	return router.Dispatch[T](ctx, c.r, cmd)
}

// Get retrieves the value stored at key, returning (nil, nil) if it
// doesn't exist.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return Do[[]byte](ctx, c, command.Get{Key: key})
}

// Set stores value at key with no expiration.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	_, err := Do[bool](ctx, c, command.Set{Key: key, Value: value})
	return err
}

// SetEx stores value at key, expiring after seconds.
func (c *Client) SetEx(ctx context.Context, key string, value []byte, seconds int64) error {
	_, err := Do[bool](ctx, c, command.Set{
		Key: key, Value: value,
		Expiration: command.Expiration{Kind: command.Ex, Value: seconds},
	})
	return err
}

// Del removes zero or more keys, returning the number actually removed.
func (c *Client) Del(ctx context.Context, keys ...string) (int64, error) {
	return Do[int64](ctx, c, command.Del{Keys: keys})
}

// Expire sets key's TTL in seconds, reporting whether key existed.
func (c *Client) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	return Do[bool](ctx, c, command.Expire{Key: key, Seconds: seconds})
}

// TTL reports key's remaining time to live in seconds.
func (c *Client) TTL(ctx context.Context, key string) (command.TtlOutcome, error) {
	return Do[command.TtlOutcome](ctx, c, command.Ttl{Key: key})
}

// PTTL reports key's remaining time to live in milliseconds.
func (c *Client) PTTL(ctx context.Context, key string) (command.TtlOutcome, error) {
	return Do[command.TtlOutcome](ctx, c, command.Pttl{Key: key})
}

// Incr increments key by 1.
func (c *Client) Incr(ctx context.Context, key string) (command.IntOutcome, error) {
	return Do[command.IntOutcome](ctx, c, command.Incr{Key: key})
}

// IncrBy increments key by delta.
func (c *Client) IncrBy(ctx context.Context, key string, delta int64) (command.IntOutcome, error) {
	return Do[command.IntOutcome](ctx, c, command.IncrBy{Key: key, Delta: delta})
}

// Decr decrements key by 1.
func (c *Client) Decr(ctx context.Context, key string) (command.IntOutcome, error) {
	return Do[command.IntOutcome](ctx, c, command.Decr{Key: key})
}

// DecrBy decrements key by delta.
func (c *Client) DecrBy(ctx context.Context, key string, delta int64) (command.IntOutcome, error) {
	return Do[command.IntOutcome](ctx, c, command.DecrBy{Key: key, Delta: delta})
}

// Ping checks liveness against an arbitrary connected node.
func (c *Client) Ping(ctx context.Context) (string, error) {
	return Do[string](ctx, c, command.Ping{})
}

// Echo returns message back from an arbitrary connected node.
func (c *Client) Echo(ctx context.Context, message string) (string, error) {
	return Do[string](ctx, c, command.Echo{Message: message})
}

// EvalOnSlot runs a Lua script on the node owning targetSlot.
func (c *Client) EvalOnSlot(ctx context.Context, script string, targetSlot slot.Slot, keys, args []string) (resp.Value, error) {
	return Do[resp.Value](ctx, c, command.Eval{Script: script, Keys: keys, Args: args, TargetSlot: targetSlot})
}

// ClusterSlots retrieves the cluster's current slot-to-node mapping.
func (c *Client) ClusterSlots(ctx context.Context) ([]command.SlotRange, error) {
	return Do[[]command.SlotRange](ctx, c, command.ClusterSlots{})
}

// Raw issues an arbitrary command, for operations this facade doesn't
// model explicitly.
func (c *Client) Raw(ctx context.Context, args ...string) (resp.Value, error) {
	return Do[resp.Value](ctx, c, command.Raw{Args: args})
}

// NodeDialer is the function type node connections dial through (an alias
// of conn.Dialer). Dial always uses the default TCP dialer; no Client
// option accepts a NodeDialer.
type NodeDialer = conn.Dialer

// DebugServe blocks, serving the cluster's slot table and node list as
// JSON over HTTP on addr, until ctx is canceled.
func (c *Client) DebugServe(ctx context.Context, addr string) error {
	return debugserver.Serve(ctx, addr, c.r)
}
