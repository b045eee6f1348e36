// Package command implements the typed command contract: every Redis-Cluster
// operation rkv supports knows how to turn itself into a request frame,
// parse its own reply, and declare which keys it touches for slot routing.
package command

import (
	"fmt"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
	"github.com/boomballa/rkv/rkverr"
)

// Command is the contract every operation implements. T is the parsed
// result type a caller receives from FromResponse.
type Command[T any] interface {
	// IntoRequest builds the wire request for this command.
	IntoRequest() resp.Value
	// FromResponse parses a raw reply into this command's typed result.
	// A shape mismatch returns an *rkverr.Error of Kind Protocol.
	FromResponse(resp.Value) (T, error)
	// HashKeys feeds every key this command touches into h. Commands with
	// no keys are no-ops; commands that pin an explicit slot call h.Set
	// instead of hashing.
	HashKeys(h *slot.Hasher) error
}

func shapeError(cmd string, got resp.Value) error {
	return rkverr.New(rkverr.Protocol, fmt.Sprintf("invalid response for %s: %s", cmd, got.String()))
}

func requireSimpleString(cmd, want string, v resp.Value) error {
	if v.Kind != resp.KindSimpleString || v.Str != want {
		return shapeError(cmd, v)
	}
	return nil
}
