// Package resp defines the RESP value model shared by the node connection
// actor, the cluster router, and every command implementation.
package resp

import "fmt"

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNil Kind = iota
	KindSimpleString
	KindError
	KindInteger
	KindBulkString
	KindArray
)

// Value is a tagged RESP frame: Nil | SimpleString | Error | Integer |
// BulkString | Array. Exactly one payload field is meaningful for a given
// Kind; the others are zero.
type Value struct {
	Kind  Kind
	Str   string  // SimpleString / Error text
	Int   int64   // Integer
	Bulk  []byte  // BulkString (nil Bulk with Kind==KindBulkString is still a present, empty string)
	Array []Value // Array elements
}

// Nil is the shared representation of a RESP nil reply.
var Nil = Value{Kind: KindNil}

func SimpleString(s string) Value { return Value{Kind: KindSimpleString, Str: s} }
func Error(s string) Value        { return Value{Kind: KindError, Str: s} }
func Integer(i int64) Value       { return Value{Kind: KindInteger, Int: i} }
func BulkString(b []byte) Value   { return Value{Kind: KindBulkString, Bulk: b} }
func BulkStringFrom(s string) Value {
	return Value{Kind: KindBulkString, Bulk: []byte(s)}
}
func Array(vs ...Value) Value { return Value{Kind: KindArray, Array: vs} }

// IsNil reports whether v is the RESP nil reply.
func (v Value) IsNil() bool { return v.Kind == KindNil }

// IsError reports whether v is a RESP error reply.
func (v Value) IsError() bool { return v.Kind == KindError }

// String renders a debug form, used in logging and error messages. It is
// not the wire encoding.
func (v Value) String() string {
	switch v.Kind {
	case KindNil:
		return "nil"
	case KindSimpleString:
		return v.Str
	case KindError:
		return v.Str
	case KindInteger:
		return fmt.Sprintf("%d", v.Int)
	case KindBulkString:
		return fmt.Sprintf("%q", string(v.Bulk))
	case KindArray:
		out := "["
		for i, e := range v.Array {
			if i > 0 {
				out += " "
			}
			out += e.String()
		}
		return out + "]"
	default:
		return "<invalid resp.Value>"
	}
}

// NewRequest builds an Array of BulkStrings — the only valid shape for a
// client request frame.
func NewRequest(parts ...string) Value {
	arr := make([]Value, len(parts))
	for i, p := range parts {
		arr[i] = BulkStringFrom(p)
	}
	return Array(arr...)
}
