package common

import (
	"fmt"
	"math"
	"math/big"
	"time"
)

// --------------------------------------------------------------------------
// Type Tags
// --------------------------------------------------------------------------

// Tag identifies the wire encoding of a Value. The tag byte is written to
// the wire in front of every entry payload, so tags must never be renumbered
// or reused once assigned.
type Tag uint8

const (
	TagNull Tag = iota
	TagBool
	TagInt64
	TagFloat64
	TagDecimal
	TagString
	TagBytes
	TagTimestamp
	TagMap
	TagArray
)

// String returns the string representation of a Tag.
func (t Tag) String() string {
	switch t {
	case TagNull:
		return "null"
	case TagBool:
		return "bool"
	case TagInt64:
		return "int64"
	case TagFloat64:
		return "float64"
	case TagDecimal:
		return "decimal"
	case TagString:
		return "string"
	case TagBytes:
		return "bytes"
	case TagTimestamp:
		return "timestamp"
	case TagMap:
		return "map"
	case TagArray:
		return "array"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(t))
	}
}

// IsValid reports whether the tag is part of the wire format.
func (t Tag) IsValid() bool {
	return t <= TagArray
}

// --------------------------------------------------------------------------
// Timestamp
// --------------------------------------------------------------------------

// Timestamp is an instant in time carried as epoch milliseconds plus the
// sub-millisecond nanosecond remainder (0..999999).
type Timestamp struct {
	Millis int64
	Nanos  int32
}

// TimestampOf converts a time.Time into a Timestamp.
func TimestampOf(t time.Time) Timestamp {
	return Timestamp{
		Millis: t.UnixMilli(),
		Nanos:  int32(t.Nanosecond() % int(time.Millisecond)),
	}
}

// Time converts the Timestamp back into a time.Time (UTC).
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(ts.Millis).Add(time.Duration(ts.Nanos)).UTC()
}

// --------------------------------------------------------------------------
// Value
// --------------------------------------------------------------------------

// Value is the tagged union over everything an envelope entry can carry.
// The tag fully determines which field holds the payload and how the
// serializer encodes it. The zero Value is the null value.
type Value struct {
	tag Tag
	b   bool
	i   int64
	f   float64
	s   string // used for TagDecimal and TagString
	raw []byte
	ts  Timestamp
	m   *Map
	arr []Value
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

// Null returns the null Value.
func Null() Value { return Value{tag: TagNull} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{tag: TagBool, b: v} }

// Int returns a signed 64-bit integer Value.
func Int(v int64) Value { return Value{tag: TagInt64, i: v} }

// Float returns a double precision Value.
func Float(v float64) Value { return Value{tag: TagFloat64, f: v} }

// Decimal returns an arbitrary-precision decimal Value carried as its
// canonical string form. The string is not validated here; a malformed
// decimal is the caller's contract violation, not a wire concern.
func Decimal(v string) Value { return Value{tag: TagDecimal, s: v} }

// String returns a string Value.
func String(v string) Value { return Value{tag: TagString, s: v} }

// Bytes returns a raw byte sequence Value. The slice is not copied.
func Bytes(v []byte) Value { return Value{tag: TagBytes, raw: v} }

// Time returns a timestamp Value.
func Time(ts Timestamp) Value { return Value{tag: TagTimestamp, ts: ts} }

// MapVal returns a nested map Value.
func MapVal(m *Map) Value { return Value{tag: TagMap, m: m} }

// Array returns a homogeneous array Value. Homogeneity is enforced at
// serialize time, not here.
func Array(elems ...Value) Value { return Value{tag: TagArray, arr: elems} }

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Tag returns the type tag of the Value.
func (v Value) Tag() Tag { return v.tag }

// IsNull reports whether the Value is the null value.
func (v Value) IsNull() bool { return v.tag == TagNull }

// Bool returns the boolean payload, or false if the Value is not a bool.
func (v Value) Bool() bool { return v.b }

// Int returns the integer payload, or 0 if the Value is not an int64.
func (v Value) Int() int64 { return v.i }

// Float returns the double payload, or 0 if the Value is not a float64.
func (v Value) Float() float64 { return v.f }

// Str returns the string payload for string and decimal Values.
func (v Value) Str() string { return v.s }

// Raw returns the byte payload, or nil if the Value is not a byte sequence.
func (v Value) Raw() []byte { return v.raw }

// Time returns the timestamp payload.
func (v Value) Time() Timestamp { return v.ts }

// Map returns the nested map payload, or nil if the Value is not a map.
func (v Value) Map() *Map { return v.m }

// Elems returns the array payload, or nil if the Value is not an array.
func (v Value) Elems() []Value { return v.arr }

// String renders the Value for diagnostics.
func (v Value) String() string {
	switch v.tag {
	case TagNull:
		return "null"
	case TagBool:
		return fmt.Sprintf("%t", v.b)
	case TagInt64:
		return fmt.Sprintf("%d", v.i)
	case TagFloat64:
		return fmt.Sprintf("%g", v.f)
	case TagDecimal, TagString:
		return v.s
	case TagBytes:
		return fmt.Sprintf("bytes[%d]", len(v.raw))
	case TagTimestamp:
		return v.ts.Time().Format(time.RFC3339Nano)
	case TagMap:
		return v.m.String()
	case TagArray:
		return fmt.Sprintf("array[%d]", len(v.arr))
	default:
		return v.tag.String()
	}
}

// --------------------------------------------------------------------------
// Runtime Type Conversion
// --------------------------------------------------------------------------

// FromAny converts a Go runtime value into a Value. Unsupported types are
// rejected with a serialization error, never coerced to a string.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case int:
		return Int(int64(t)), nil
	case int8:
		return Int(int64(t)), nil
	case int16:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint:
		if uint64(t) > math.MaxInt64 {
			return Null(), Errorf(ErrSerialization, "uint value %d overflows int64", t)
		}
		return Int(int64(t)), nil
	case uint8:
		return Int(int64(t)), nil
	case uint16:
		return Int(int64(t)), nil
	case uint32:
		return Int(int64(t)), nil
	case uint64:
		if t > math.MaxInt64 {
			return Null(), Errorf(ErrSerialization, "uint64 value %d overflows int64", t)
		}
		return Int(int64(t)), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case string:
		return String(t), nil
	case []byte:
		return Bytes(t), nil
	case time.Time:
		return Time(TimestampOf(t)), nil
	case Timestamp:
		return Time(t), nil
	case *big.Int:
		return Decimal(t.String()), nil
	case *big.Rat:
		return Decimal(t.RatString()), nil
	case *Map:
		return MapVal(t), nil
	case []Value:
		return Array(t...), nil
	case []any:
		elems := make([]Value, 0, len(t))
		for _, e := range t {
			ev, err := FromAny(e)
			if err != nil {
				return Null(), err
			}
			elems = append(elems, ev)
		}
		return Array(elems...), nil
	default:
		return Null(), Errorf(ErrSerialization, "unsupported value type %T", v)
	}
}
