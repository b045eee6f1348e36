package command

import (
	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
)

// Raw passes an arbitrary command straight through, for ad-hoc use by
// cmd/rkvctl and callers reaching for a command this package doesn't
// model explicitly.
type Raw struct {
	Args []string
}

func (c Raw) IntoRequest() resp.Value { return resp.NewRequest(c.Args...) }

// FromResponse returns the reply unparsed; the caller interprets its
// shape.
func (c Raw) FromResponse(v resp.Value) (resp.Value, error) { return v, nil }

// HashKeys best-effort routes on the first argument, treating it as the
// key. Callers that need exact routing should use a typed command instead.
func (c Raw) HashKeys(h *slot.Hasher) error {
	if len(c.Args) == 0 {
		return nil
	}
	return h.HashStr(c.Args[0])
}
