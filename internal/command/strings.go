package command

import (
	"strconv"

	"github.com/boomballa/rkv/internal/resp"
	"github.com/boomballa/rkv/internal/slot"
)

// Get retrieves the value stored at Key.
type Get struct {
	Key string
}

func (c Get) IntoRequest() resp.Value { return resp.NewRequest("GET", c.Key) }

// FromResponse returns the value, or (nil, nil) if the key doesn't exist.
func (c Get) FromResponse(v resp.Value) ([]byte, error) {
	switch v.Kind {
	case resp.KindNil:
		return nil, nil
	case resp.KindBulkString:
		return v.Bulk, nil
	default:
		return nil, shapeError("GET", v)
	}
}

func (c Get) HashKeys(h *slot.Hasher) error { return h.HashStr(c.Key) }

// ExpirationKind selects how Set's TTL argument, if any, is encoded.
type ExpirationKind int

const (
	// Infinite means no expiration argument is sent.
	Infinite ExpirationKind = iota
	// Ex sends EX <seconds>.
	Ex
	// Px sends PX <milliseconds>.
	Px
)

// Expiration carries Set's optional TTL.
type Expiration struct {
	Kind  ExpirationKind
	Value int64
}

// Set stores Value at Key, optionally with an expiration.
type Set struct {
	Key        string
	Value      []byte
	Expiration Expiration
}

func (c Set) IntoRequest() resp.Value {
	args := []string{"SET", c.Key, string(c.Value)}
	switch c.Expiration.Kind {
	case Ex:
		args = append(args, "EX", strconv.FormatInt(c.Expiration.Value, 10))
	case Px:
		args = append(args, "PX", strconv.FormatInt(c.Expiration.Value, 10))
	}
	return resp.NewRequest(args...)
}

func (c Set) FromResponse(v resp.Value) (bool, error) {
	if err := requireSimpleString("SET", "OK", v); err != nil {
		return false, err
	}
	return true, nil
}

func (c Set) HashKeys(h *slot.Hasher) error { return h.HashStr(c.Key) }

// Del removes zero or more keys, returning the number actually removed.
type Del struct {
	Keys []string
}

func (c Del) IntoRequest() resp.Value {
	args := append([]string{"DEL"}, c.Keys...)
	return resp.NewRequest(args...)
}

func (c Del) FromResponse(v resp.Value) (int64, error) {
	if v.Kind != resp.KindInteger {
		return 0, shapeError("DEL", v)
	}
	return v.Int, nil
}

// HashKeys is a no-op for zero keys.
func (c Del) HashKeys(h *slot.Hasher) error {
	for _, k := range c.Keys {
		if err := h.HashStr(k); err != nil {
			return err
		}
	}
	return nil
}

// Expire sets a key's TTL in seconds, returning whether the key existed.
type Expire struct {
	Key     string
	Seconds int64
}

func (c Expire) IntoRequest() resp.Value {
	return resp.NewRequest("EXPIRE", c.Key, strconv.FormatInt(c.Seconds, 10))
}

func (c Expire) FromResponse(v resp.Value) (bool, error) {
	if v.Kind != resp.KindInteger {
		return false, shapeError("EXPIRE", v)
	}
	switch v.Int {
	case 1:
		return true, nil
	case 0:
		return false, nil
	default:
		return false, shapeError("EXPIRE", v)
	}
}

func (c Expire) HashKeys(h *slot.Hasher) error { return h.HashStr(c.Key) }

// TtlOutcome is the result of Ttl/Pttl. Exactly one field is meaningful:
// KeyNotExist and NoExpire are mutually exclusive sentinels; otherwise
// Value holds the remaining time (Ok) or a negative value the server sent
// that isn't -1/-2 (Unknown).
type TtlOutcome struct {
	KeyNotExist bool
	NoExpire    bool
	Unknown     bool
	Value       int64
}

func ttlFromInteger(n int64) TtlOutcome {
	switch {
	case n == -2:
		return TtlOutcome{KeyNotExist: true}
	case n == -1:
		return TtlOutcome{NoExpire: true}
	case n < 0:
		return TtlOutcome{Unknown: true, Value: n}
	default:
		return TtlOutcome{Value: n}
	}
}

// Ttl reports a key's remaining time to live in seconds.
type Ttl struct {
	Key string
}

func (c Ttl) IntoRequest() resp.Value { return resp.NewRequest("TTL", c.Key) }

func (c Ttl) FromResponse(v resp.Value) (TtlOutcome, error) {
	if v.Kind != resp.KindInteger {
		return TtlOutcome{}, shapeError("TTL", v)
	}
	return ttlFromInteger(v.Int), nil
}

func (c Ttl) HashKeys(h *slot.Hasher) error { return h.HashStr(c.Key) }

// Pttl reports a key's remaining time to live in milliseconds.
type Pttl struct {
	Key string
}

func (c Pttl) IntoRequest() resp.Value { return resp.NewRequest("PTTL", c.Key) }

func (c Pttl) FromResponse(v resp.Value) (TtlOutcome, error) {
	if v.Kind != resp.KindInteger {
		return TtlOutcome{}, shapeError("PTTL", v)
	}
	return ttlFromInteger(v.Int), nil
}

func (c Pttl) HashKeys(h *slot.Hasher) error { return h.HashStr(c.Key) }

// IntOutcome is the result of Incr/IncrBy/Decr/DecrBy: either the server's
// new integer value, or the server-side error text verbatim (e.g. when the
// key holds a non-integer string). The RESP-level error does not propagate
// as a protocol error — it's valid domain output.
type IntOutcome struct {
	Value    int64
	ServerErr string
}

func (o IntOutcome) IsErr() bool { return o.ServerErr != "" }

func intOutcomeFromResponse(cmd string, v resp.Value) (IntOutcome, error) {
	switch v.Kind {
	case resp.KindInteger:
		return IntOutcome{Value: v.Int}, nil
	case resp.KindError:
		return IntOutcome{ServerErr: v.Str}, nil
	default:
		return IntOutcome{}, shapeError(cmd, v)
	}
}

// Incr increments Key by 1.
type Incr struct{ Key string }

func (c Incr) IntoRequest() resp.Value           { return resp.NewRequest("INCR", c.Key) }
func (c Incr) FromResponse(v resp.Value) (IntOutcome, error) { return intOutcomeFromResponse("INCR", v) }
func (c Incr) HashKeys(h *slot.Hasher) error     { return h.HashStr(c.Key) }

// IncrBy increments Key by Delta.
type IncrBy struct {
	Key   string
	Delta int64
}

func (c IncrBy) IntoRequest() resp.Value {
	return resp.NewRequest("INCRBY", c.Key, strconv.FormatInt(c.Delta, 10))
}
func (c IncrBy) FromResponse(v resp.Value) (IntOutcome, error) { return intOutcomeFromResponse("INCRBY", v) }
func (c IncrBy) HashKeys(h *slot.Hasher) error                 { return h.HashStr(c.Key) }

// Decr decrements Key by 1.
type Decr struct{ Key string }

func (c Decr) IntoRequest() resp.Value           { return resp.NewRequest("DECR", c.Key) }
func (c Decr) FromResponse(v resp.Value) (IntOutcome, error) { return intOutcomeFromResponse("DECR", v) }
func (c Decr) HashKeys(h *slot.Hasher) error     { return h.HashStr(c.Key) }

// DecrBy decrements Key by Delta.
type DecrBy struct {
	Key   string
	Delta int64
}

func (c DecrBy) IntoRequest() resp.Value {
	return resp.NewRequest("DECRBY", c.Key, strconv.FormatInt(c.Delta, 10))
}
func (c DecrBy) FromResponse(v resp.Value) (IntOutcome, error) { return intOutcomeFromResponse("DECRBY", v) }
func (c DecrBy) HashKeys(h *slot.Hasher) error                 { return h.HashStr(c.Key) }

// Ping checks liveness, optionally echoing Message.
type Ping struct {
	Message string
}

func (c Ping) IntoRequest() resp.Value {
	if c.Message == "" {
		return resp.NewRequest("PING")
	}
	return resp.NewRequest("PING", c.Message)
}

func (c Ping) FromResponse(v resp.Value) (string, error) {
	if v.Kind != resp.KindSimpleString {
		return "", shapeError("PING", v)
	}
	return v.Str, nil
}

// HashKeys is a no-op: PING carries no keys, so it routes to an arbitrary
// connected node rather than by slot.
func (c Ping) HashKeys(h *slot.Hasher) error { return nil }

// Echo returns Message back from the server.
type Echo struct {
	Message string
}

func (c Echo) IntoRequest() resp.Value { return resp.NewRequest("ECHO", c.Message) }

func (c Echo) FromResponse(v resp.Value) (string, error) {
	if v.Kind != resp.KindSimpleString {
		return "", shapeError("ECHO", v)
	}
	return v.Str, nil
}

func (c Echo) HashKeys(h *slot.Hasher) error { return nil }
