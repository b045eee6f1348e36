package command

import (
	"testing"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
	"github.com/boomballa/rkv/rkverr"
)

func TestGetRoundTrip(t *testing.T) {
	c := Get{Key: "foo"}
	req := c.IntoRequest()
	if req.Kind != resp.KindArray || len(req.Array) != 2 {
		t.Fatalf("unexpected request shape: %v", req)
	}
	v, err := c.FromResponse(resp.BulkStringFrom("bar"))
	if err != nil || string(v) != "bar" {
		t.Fatalf("got (%q, %v), want (bar, nil)", v, err)
	}
	v, err = c.FromResponse(resp.Nil)
	if err != nil || v != nil {
		t.Fatalf("got (%v, %v), want (nil, nil)", v, err)
	}
	if _, err := c.FromResponse(resp.Integer(1)); !rkverr.Is(err, rkverr.Protocol) {
		t.Fatalf("expected Protocol error on shape mismatch, got %v", err)
	}
}

func TestSetRequiresOK(t *testing.T) {
	c := Set{Key: "foo", Value: []byte("bar"), Expiration: Expiration{Kind: Ex, Value: 30}}
	req := c.IntoRequest()
	want := []string{"SET", "foo", "bar", "EX", "30"}
	if len(req.Array) != len(want) {
		t.Fatalf("got %d args, want %d", len(req.Array), len(want))
	}
	for i, w := range want {
		if string(req.Array[i].Bulk) != w {
			t.Fatalf("arg %d: got %q, want %q", i, req.Array[i].Bulk, w)
		}
	}
	if _, err := c.FromResponse(resp.SimpleString("OK")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := c.FromResponse(resp.SimpleString("WRONG")); err == nil {
		t.Fatal("expected error on non-OK simple string")
	}
}

func TestExpireIntegerShape(t *testing.T) {
	c := Expire{Key: "foo", Seconds: 10}
	if ok, err := c.FromResponse(resp.Integer(1)); err != nil || !ok {
		t.Fatalf("got (%v, %v), want (true, nil)", ok, err)
	}
	if ok, err := c.FromResponse(resp.Integer(0)); err != nil || ok {
		t.Fatalf("got (%v, %v), want (false, nil)", ok, err)
	}
	if _, err := c.FromResponse(resp.Integer(2)); err == nil {
		t.Fatal("expected shape error on non-0/1 integer")
	}
}

func TestDelZeroKeysIsNoop(t *testing.T) {
	c := Del{}
	h := slot.NewHasher()
	if err := c.HashKeys(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := h.Get(); ok {
		t.Fatal("expected no slot set for zero-key Del")
	}
}

func TestTtlRedesignedMapping(t *testing.T) {
	c := Ttl{Key: "foo"}
	cases := []struct {
		in   int64
		want TtlOutcome
	}{
		{-2, TtlOutcome{KeyNotExist: true}},
		{-1, TtlOutcome{NoExpire: true}},
		{-5, TtlOutcome{Unknown: true, Value: -5}},
		{42, TtlOutcome{Value: 42}},
	}
	for _, tc := range cases {
		got, err := c.FromResponse(resp.Integer(tc.in))
		if err != nil {
			t.Fatalf("unexpected error for %d: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("FromResponse(%d) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
	// -2 and -1 must NOT collapse to the same outcome.
	a, _ := c.FromResponse(resp.Integer(-2))
	b, _ := c.FromResponse(resp.Integer(-1))
	if a == b {
		t.Fatal("TTL -2 and -1 must map to distinct outcomes")
	}
}

func TestIncrServerErrorIsDomainOutput(t *testing.T) {
	c := Incr{Key: "foo"}
	out, err := c.FromResponse(resp.Error("ERR value is not an integer"))
	if err != nil {
		t.Fatalf("server error must not surface as a protocol error: %v", err)
	}
	if !out.IsErr() || out.ServerErr == "" {
		t.Fatalf("expected IntOutcome to carry the server error text, got %+v", out)
	}
	out, err = c.FromResponse(resp.Integer(5))
	if err != nil || out.IsErr() || out.Value != 5 {
		t.Fatalf("got (%+v, %v), want (Value:5, nil)", out, err)
	}
}

func TestPingEchoRequireSimpleString(t *testing.T) {
	p := Ping{}
	if s, err := p.FromResponse(resp.SimpleString("PONG")); err != nil || s != "PONG" {
		t.Fatalf("got (%q, %v), want (PONG, nil)", s, err)
	}
	if _, err := p.FromResponse(resp.BulkStringFrom("PONG")); err == nil {
		t.Fatal("expected shape error on bulk string reply to PING")
	}
	e := Echo{Message: "hi"}
	if _, err := e.FromResponse(resp.BulkStringFrom("hi")); err == nil {
		t.Fatal("expected shape error on bulk string reply to ECHO")
	}
}
