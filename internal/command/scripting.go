package command

import (
	"strconv"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
)

// ScriptLoad uploads a Lua script, returning its SHA1 digest. Like every
// script command it carries an explicit TargetSlot rather than deriving
// one from keys, since EVAL/SCRIPT target one specific node by convention.
type ScriptLoad struct {
	Script     string
	TargetSlot slot.Slot
}

func (c ScriptLoad) IntoRequest() resp.Value {
	return resp.NewRequest("SCRIPT", "LOAD", c.Script)
}

func (c ScriptLoad) FromResponse(v resp.Value) (string, error) {
	if v.Kind != resp.KindBulkString {
		return "", shapeError("SCRIPT LOAD", v)
	}
	return string(v.Bulk), nil
}

func (c ScriptLoad) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// ScriptExists checks which of Hashes are cached on the target node.
type ScriptExists struct {
	Hashes     []string
	TargetSlot slot.Slot
}

func (c ScriptExists) IntoRequest() resp.Value {
	args := append([]string{"SCRIPT", "EXISTS"}, c.Hashes...)
	return resp.NewRequest(args...)
}

func (c ScriptExists) FromResponse(v resp.Value) ([]bool, error) {
	if v.Kind != resp.KindArray {
		return nil, shapeError("SCRIPT EXISTS", v)
	}
	out := make([]bool, len(v.Array))
	for i, e := range v.Array {
		if e.Kind != resp.KindInteger || (e.Int != 0 && e.Int != 1) {
			return nil, shapeError("SCRIPT EXISTS", v)
		}
		out[i] = e.Int == 1
	}
	return out, nil
}

func (c ScriptExists) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// ScriptFlush clears the script cache on the target node.
type ScriptFlush struct {
	TargetSlot slot.Slot
}

func (c ScriptFlush) IntoRequest() resp.Value { return resp.NewRequest("SCRIPT", "FLUSH") }

func (c ScriptFlush) FromResponse(v resp.Value) (string, error) {
	if v.Kind != resp.KindSimpleString {
		return "", shapeError("SCRIPT FLUSH", v)
	}
	return v.Str, nil
}

func (c ScriptFlush) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// Eval runs a Lua script, forwarding the reply verbatim since its shape
// depends entirely on the script's return value.
type Eval struct {
	Script     string
	Keys       []string
	Args       []string
	TargetSlot slot.Slot
}

func (c Eval) IntoRequest() resp.Value {
	args := []string{"EVAL", c.Script, strconv.Itoa(len(c.Keys))}
	args = append(args, c.Keys...)
	args = append(args, c.Args...)
	return resp.NewRequest(args...)
}

func (c Eval) FromResponse(v resp.Value) (resp.Value, error) { return v, nil }

func (c Eval) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// EvalSha runs a cached script by its SHA1 digest.
type EvalSha struct {
	Sha        string
	Keys       []string
	Args       []string
	TargetSlot slot.Slot
}

func (c EvalSha) IntoRequest() resp.Value {
	args := []string{"EVALSHA", c.Sha, strconv.Itoa(len(c.Keys))}
	args = append(args, c.Keys...)
	args = append(args, c.Args...)
	return resp.NewRequest(args...)
}

func (c EvalSha) FromResponse(v resp.Value) (resp.Value, error) { return v, nil }

func (c EvalSha) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }
