package command

import (
	"strconv"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
)

// NodeEndpoint is one node entry within a ClusterSlots reply.
type NodeEndpoint struct {
	Host string
	Port int64
	ID   string // empty when the server omitted it
}

// SlotRange is one range entry within a ClusterSlots reply: [start, end]
// owned by Nodes[0] (the master), with any remaining entries as replicas.
type SlotRange struct {
	Start int64
	End   int64
	Nodes []NodeEndpoint
}

// ClusterSlots retrieves the cluster's current slot-to-node mapping.
type ClusterSlots struct{}

func (c ClusterSlots) IntoRequest() resp.Value { return resp.NewRequest("CLUSTER", "SLOTS") }

func (c ClusterSlots) FromResponse(v resp.Value) ([]SlotRange, error) {
	if v.Kind != resp.KindArray {
		return nil, shapeError("CLUSTER SLOTS", v)
	}
	ranges := make([]SlotRange, 0, len(v.Array))
	for _, entry := range v.Array {
		if entry.Kind != resp.KindArray || len(entry.Array) < 2 {
			return nil, shapeError("CLUSTER SLOTS", v)
		}
		start, startOK := asInt(entry.Array[0])
		end, endOK := asInt(entry.Array[1])
		if !startOK || !endOK {
			return nil, shapeError("CLUSTER SLOTS", v)
		}
		nodeEntries := entry.Array[2:]
		if len(nodeEntries) == 0 {
			// A range with no node entries at all carries no routable
			// information; skip it rather than fail the whole parse.
			continue
		}
		nodes := make([]NodeEndpoint, 0, len(nodeEntries))
		for _, ne := range nodeEntries {
			if ne.Kind != resp.KindArray || len(ne.Array) < 2 {
				return nil, shapeError("CLUSTER SLOTS", v)
			}
			host, hostOK := asString(ne.Array[0])
			port, portOK := asInt(ne.Array[1])
			if !hostOK || !portOK {
				return nil, shapeError("CLUSTER SLOTS", v)
			}
			var id string
			if len(ne.Array) >= 3 {
				id, _ = asString(ne.Array[2])
			}
			nodes = append(nodes, NodeEndpoint{Host: host, Port: port, ID: id})
		}
		ranges = append(ranges, SlotRange{Start: start, End: end, Nodes: nodes})
	}
	return ranges, nil
}

// HashKeys is a no-op: CLUSTER SLOTS carries no keys and may be sent to any
// connected node.
func (c ClusterSlots) HashKeys(h *slot.Hasher) error { return nil }

func asInt(v resp.Value) (int64, bool) {
	if v.Kind != resp.KindInteger {
		return 0, false
	}
	return v.Int, true
}

func asString(v resp.Value) (string, bool) {
	switch v.Kind {
	case resp.KindBulkString:
		return string(v.Bulk), true
	case resp.KindSimpleString:
		return v.Str, true
	default:
		return "", false
	}
}

// Asking marks the next command on this connection as eligible to be
// served during slot migration, per the CLUSTER ASK protocol.
type Asking struct{}

func (c Asking) IntoRequest() resp.Value { return resp.NewRequest("ASKING") }

func (c Asking) FromResponse(v resp.Value) (bool, error) {
	if err := requireSimpleString("ASKING", "OK", v); err != nil {
		return false, err
	}
	return true, nil
}

func (c Asking) HashKeys(h *slot.Hasher) error { return nil }

// ClusterAddSlots assigns Slots to the node this command is sent to.
type ClusterAddSlots struct {
	Slots      []int
	TargetSlot slot.Slot
}

func (c ClusterAddSlots) IntoRequest() resp.Value {
	args := []string{"CLUSTER", "ADDSLOTS"}
	for _, s := range c.Slots {
		args = append(args, strconv.Itoa(s))
	}
	return resp.NewRequest(args...)
}

func (c ClusterAddSlots) FromResponse(v resp.Value) (bool, error) {
	if err := requireSimpleString("CLUSTER ADDSLOTS", "OK", v); err != nil {
		return false, err
	}
	return true, nil
}

func (c ClusterAddSlots) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// ClusterDelSlots unassigns Slots from the node this command is sent to.
type ClusterDelSlots struct {
	Slots      []int
	TargetSlot slot.Slot
}

func (c ClusterDelSlots) IntoRequest() resp.Value {
	args := []string{"CLUSTER", "DELSLOTS"}
	for _, s := range c.Slots {
		args = append(args, strconv.Itoa(s))
	}
	return resp.NewRequest(args...)
}

func (c ClusterDelSlots) FromResponse(v resp.Value) (bool, error) {
	if err := requireSimpleString("CLUSTER DELSLOTS", "OK", v); err != nil {
		return false, err
	}
	return true, nil
}

func (c ClusterDelSlots) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// SetSlotState selects a CLUSTER SETSLOT subcommand.
type SetSlotState int

const (
	SetSlotMigrating SetSlotState = iota
	SetSlotImporting
	SetSlotStable
	SetSlotNode
)

func (s SetSlotState) String() string {
	switch s {
	case SetSlotMigrating:
		return "MIGRATING"
	case SetSlotImporting:
		return "IMPORTING"
	case SetSlotStable:
		return "STABLE"
	case SetSlotNode:
		return "NODE"
	default:
		return "STABLE"
	}
}

// ClusterSetSlot changes slot ownership/migration state on the node this
// command is sent to. NodeID is required for Migrating/Importing/Node and
// ignored for Stable.
type ClusterSetSlot struct {
	Slot       int
	State      SetSlotState
	NodeID     string
	TargetSlot slot.Slot
}

func (c ClusterSetSlot) IntoRequest() resp.Value {
	args := []string{"CLUSTER", "SETSLOT", strconv.Itoa(c.Slot), c.State.String()}
	if c.State != SetSlotStable {
		args = append(args, c.NodeID)
	}
	return resp.NewRequest(args...)
}

func (c ClusterSetSlot) FromResponse(v resp.Value) (bool, error) {
	if err := requireSimpleString("CLUSTER SETSLOT", "OK", v); err != nil {
		return false, err
	}
	return true, nil
}

func (c ClusterSetSlot) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// ClusterCountKeysInSlot reports how many keys the target node currently
// holds in Slot.
type ClusterCountKeysInSlot struct {
	Slot       int
	TargetSlot slot.Slot
}

func (c ClusterCountKeysInSlot) IntoRequest() resp.Value {
	return resp.NewRequest("CLUSTER", "COUNTKEYSINSLOT", strconv.Itoa(c.Slot))
}

func (c ClusterCountKeysInSlot) FromResponse(v resp.Value) (int, error) {
	if v.Kind != resp.KindInteger || v.Int < 0 {
		return 0, shapeError("CLUSTER COUNTKEYSINSLOT", v)
	}
	return int(v.Int), nil
}

func (c ClusterCountKeysInSlot) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// ClusterGetKeysInSlot lists up to Count keys the target node holds in
// Slot.
type ClusterGetKeysInSlot struct {
	Slot       int
	Count      int
	TargetSlot slot.Slot
}

func (c ClusterGetKeysInSlot) IntoRequest() resp.Value {
	return resp.NewRequest("CLUSTER", "GETKEYSINSLOT", strconv.Itoa(c.Slot), strconv.Itoa(c.Count))
}

func (c ClusterGetKeysInSlot) FromResponse(v resp.Value) ([]string, error) {
	if v.Kind != resp.KindArray {
		return nil, shapeError("CLUSTER GETKEYSINSLOT", v)
	}
	out := make([]string, len(v.Array))
	for i, e := range v.Array {
		s, ok := asString(e)
		if !ok {
			return nil, shapeError("CLUSTER GETKEYSINSLOT", v)
		}
		out[i] = s
	}
	return out, nil
}

func (c ClusterGetKeysInSlot) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }

// Migrate atomically moves Key from the node this command is sent to, to
// Host:Port, returning false when the key no longer exists (NOKEY).
type Migrate struct {
	Host          string
	Port          int
	Key           string
	DestinationDB int
	TimeoutMillis int64
	TargetSlot    slot.Slot
}

func (c Migrate) IntoRequest() resp.Value {
	return resp.NewRequest(
		"MIGRATE",
		c.Host,
		strconv.Itoa(c.Port),
		c.Key,
		strconv.Itoa(c.DestinationDB),
		strconv.FormatInt(c.TimeoutMillis, 10),
	)
}

func (c Migrate) FromResponse(v resp.Value) (bool, error) {
	if v.Kind != resp.KindSimpleString {
		return false, shapeError("MIGRATE", v)
	}
	switch v.Str {
	case "OK":
		return true, nil
	case "NOKEY":
		return false, nil
	default:
		return false, shapeError("MIGRATE", v)
	}
}

func (c Migrate) HashKeys(h *slot.Hasher) error { return h.Set(c.TargetSlot) }
