package command

import (
	"testing"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
)

func TestScriptLoadThenExistsRoundTrip(t *testing.T) {
	load := ScriptLoad{Script: "return 1", TargetSlot: 0}
	sha, err := load.FromResponse(resp.BulkStringFrom("e0e1f9fabfc9d4800c877a703b823ac0578ff831"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists := ScriptExists{Hashes: []string{sha, "0"}, TargetSlot: 0}
	out, err := exists.FromResponse(resp.Array(resp.Integer(1), resp.Integer(0)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out[0] || out[1] {
		t.Fatalf("got %v, want [true false]", out)
	}
}

func TestScriptCommandsPinSlotExplicitly(t *testing.T) {
	h := slot.NewHasher()
	load := ScriptLoad{Script: "return 1", TargetSlot: 7}
	if err := load.HashKeys(h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, ok := h.Get()
	if !ok || got != 7 {
		t.Fatalf("got (%d, %v), want (7, true)", got, ok)
	}
}

func TestEvalForwardsReplyVerbatim(t *testing.T) {
	c := Eval{Script: "return KEYS[1]", Keys: []string{"k1"}, Args: []string{"a1"}}
	req := c.IntoRequest()
	want := []string{"EVAL", "return KEYS[1]", "1", "k1", "a1"}
	for i, w := range want {
		if string(req.Array[i].Bulk) != w {
			t.Fatalf("arg %d: got %q, want %q", i, req.Array[i].Bulk, w)
		}
	}
	reply := resp.Array(resp.Integer(1), resp.BulkStringFrom("x"))
	v, err := c.FromResponse(reply)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.String() != reply.String() {
		t.Fatalf("got %v, want verbatim %v", v, reply)
	}
}
