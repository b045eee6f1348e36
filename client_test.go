package rkv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/rkvconfig"
	"github.com/boomballa/rkv/internal/testutil"
)

func TestClientSetGetDel(t *testing.T) {
	node := testutil.StartFakeNode(t, nil)
	store := map[string][]byte{}
	node.SetHandler(func(args []string) resp.Value {
		if len(args) >= 2 && args[0] == "CLUSTER" && args[1] == "SLOTS" {
			return resp.Array(resp.Array(
				resp.Integer(0), resp.Integer(16383),
				resp.Array(resp.BulkStringFrom("127.0.0.1"), resp.Integer(portOf(node.Addr()))),
			))
		}
		switch args[0] {
		case "SET":
			store[args[1]] = []byte(args[2])
			return resp.SimpleString("OK")
		case "GET":
			v, ok := store[args[1]]
			if !ok {
				return resp.Nil
			}
			return resp.BulkStringFrom(string(v))
		case "DEL":
			n := int64(0)
			for _, k := range args[1:] {
				if _, ok := store[k]; ok {
					delete(store, k)
					n++
				}
			}
			return resp.Integer(n)
		}
		return resp.Error("ERR unknown command")
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	opts := rkvconfig.DefaultOptions()
	opts.Seeds = []string{node.Addr()}
	c, err := Dial(ctx, opts)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Set(ctx, "foo", []byte("bar")))

	v, err := c.Get(ctx, "foo")
	require.NoError(t, err)
	require.Equal(t, "bar", string(v))

	n, err := c.Del(ctx, "foo")
	require.NoError(t, err)
	require.Equal(t, int64(1), n)
}

func portOf(addr string) int64 {
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == ':' {
			var n int64
			for _, c := range addr[i+1:] {
				n = n*10 + int64(c-'0')
			}
			return n
		}
	}
	return 0
}
