package command

import (
	"testing"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
)

func TestRawPassesArgsThroughVerbatim(t *testing.T) {
	c := Raw{Args: []string{"SET", "foo", "bar"}}
	req := c.IntoRequest()
	for i, a := range c.Args {
		if string(req.Array[i].Bulk) != a {
			t.Fatalf("arg %d: got %q, want %q", i, req.Array[i].Bulk, a)
		}
	}
	reply := resp.SimpleString("OK")
	v, err := c.FromResponse(reply)
	if err != nil || v.Str != "OK" {
		t.Fatalf("got (%v, %v), want (OK, nil)", v, err)
	}
}

func TestRawHashesFirstArgBestEffort(t *testing.T) {
	c := Raw{Args: []string{"foo", "bar"}}
	h := slot.NewHasher()
	if err := c.HashKeys(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := h.Get()
	if !ok || got != slot.KeySlot("foo") {
		t.Fatalf("got (%d, %v), want (%d, true)", got, ok, slot.KeySlot("foo"))
	}
}

func TestRawEmptyArgsIsNoop(t *testing.T) {
	c := Raw{}
	h := slot.NewHasher()
	if err := c.HashKeys(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := h.Get(); ok {
		t.Fatal("expected no slot set for empty Raw")
	}
}
