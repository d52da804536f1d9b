// Package dynamic implements the dynamic message value model: a
// schema-typed heterogeneous value, a field store that accommodates
// scalars, messages, repeated and map fields, extensions, and preserved
// unknown fields, plus the binary wire codec and canonical JSON mapping
// over that value model.
//
// Grounded on github.com/jhump/protoreflect's dynamic package, but with
// the field store's value slots expressed as the closed Value sum the
// spec calls for instead of bare interface{} plus reflection.
package dynamic

import (
	"fmt"
	"math"

	"github.com/protoval/protoreflect/wireformat"
)

// ValueKind tags which variant of the Value sum is populated.
type ValueKind int8

const (
	KindInvalid ValueKind = iota
	KindBool
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindEnumNumber
	KindMessage
	KindList
	KindMap
)

// Value is the closed sum type used for every populated field slot: Bool,
// I32, I64, U32, U64, F32, F64, String, Bytes, EnumNumber, Message, List
// and Map, exactly as specified. Only one of the backing fields is valid
// at a time, selected by kind; this keeps a Value a fixed-size, trivially
// copyable struct rather than a boxed interface{}.
type Value struct {
	kind  ValueKind
	num   uint64 // bool/int32/int64/uint32/uint64/float32/float64/enum, bit-packed
	str   string
	bytes []byte
	msg   *Message
	list  []Value
	mp    map[MapKey]Value
}

// Kind reports which variant of the sum this Value holds.
func (v Value) Kind() ValueKind { return v.kind }

// IsValid reports whether this Value was ever assigned a variant (the
// zero Value is invalid and carries no meaning).
func (v Value) IsValid() bool { return v.kind != KindInvalid }

func BoolValue(b bool) Value {
	var n uint64
	if b {
		n = 1
	}
	return Value{kind: KindBool, num: n}
}
func Int32Value(i int32) Value     { return Value{kind: KindInt32, num: uint64(uint32(i))} }
func Int64Value(i int64) Value     { return Value{kind: KindInt64, num: uint64(i)} }
func Uint32Value(u uint32) Value   { return Value{kind: KindUint32, num: uint64(u)} }
func Uint64Value(u uint64) Value   { return Value{kind: KindUint64, num: u} }
func Float32Value(f float32) Value { return Value{kind: KindFloat32, num: uint64(math.Float32bits(f))} }
func Float64Value(f float64) Value { return Value{kind: KindFloat64, num: math.Float64bits(f)} }
func StringValue(s string) Value   { return Value{kind: KindString, str: s} }
func BytesValue(b []byte) Value    { return Value{kind: KindBytes, bytes: b} }
func EnumValue(n int32) Value      { return Value{kind: KindEnumNumber, num: uint64(uint32(n))} }
func MessageValue(m *Message) Value { return Value{kind: KindMessage, msg: m} }
func ListValue(vs []Value) Value    { return Value{kind: KindList, list: vs} }
func MapValueOf(m map[MapKey]Value) Value { return Value{kind: KindMap, mp: m} }

func (v Value) Bool() bool       { return v.num != 0 }
func (v Value) Int32() int32     { return int32(uint32(v.num)) }
func (v Value) Int64() int64     { return int64(v.num) }
func (v Value) Uint32() uint32   { return uint32(v.num) }
func (v Value) Uint64() uint64   { return v.num }
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.num)) }
func (v Value) Float64() float64 { return math.Float64frombits(v.num) }
func (v Value) String() string   { return v.str }
func (v Value) Bytes() []byte    { return v.bytes }
func (v Value) EnumNumber() int32 { return int32(uint32(v.num)) }
func (v Value) Message() *Message { return v.msg }
func (v Value) List() []Value     { return v.list }
func (v Value) Map() map[MapKey]Value { return v.mp }

// MapKeyKind tags which variant of MapKey is populated.
type MapKeyKind int8

const (
	MapKeyInvalid MapKeyKind = iota
	MapKeyKindBool
	MapKeyKindInt32
	MapKeyKindInt64
	MapKeyKindUint32
	MapKeyKindUint64
	MapKeyKindString
)

// MapKey is the closed sum of kinds a map field's key may hold: the
// integer and bool kinds share representation regardless of their wire
// encoding (int32 vs sint32 vs fixed32 all occupy the same Go int32), plus
// string. It is a plain comparable struct, usable directly as a Go map
// key.
type MapKey struct {
	kind MapKeyKind
	b    bool
	i32  int32
	i64  int64
	u32  uint32
	u64  uint64
	s    string
}

func (k MapKey) Kind() MapKeyKind { return k.kind }

func BoolMapKey(b bool) MapKey     { return MapKey{kind: MapKeyKindBool, b: b} }
func Int32MapKey(i int32) MapKey   { return MapKey{kind: MapKeyKindInt32, i32: i} }
func Int64MapKey(i int64) MapKey   { return MapKey{kind: MapKeyKindInt64, i64: i} }
func Uint32MapKey(u uint32) MapKey { return MapKey{kind: MapKeyKindUint32, u32: u} }
func Uint64MapKey(u uint64) MapKey { return MapKey{kind: MapKeyKindUint64, u64: u} }
func StringMapKey(s string) MapKey { return MapKey{kind: MapKeyKindString, s: s} }

func (k MapKey) Bool() bool     { return k.b }
func (k MapKey) Int32() int32   { return k.i32 }
func (k MapKey) Int64() int64   { return k.i64 }
func (k MapKey) Uint32() uint32 { return k.u32 }
func (k MapKey) Uint64() uint64 { return k.u64 }
func (k MapKey) String() string { return k.s }

// mapKeyFromKind builds a MapKey of the kind appropriate for a field whose
// kind is k, from the signed/unsigned 64-bit bit pattern produced by
// decoding that kind's scalar wire representation.
func mapKeyFromKind(k wireformat.Kind, bits uint64) (MapKey, error) {
	switch k {
	case wireformat.KindBool:
		return BoolMapKey(bits != 0), nil
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		return Int32MapKey(int32(uint32(bits))), nil
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		return Int64MapKey(int64(bits)), nil
	case wireformat.KindUint32, wireformat.KindFixed32:
		return Uint32MapKey(uint32(bits)), nil
	case wireformat.KindUint64, wireformat.KindFixed64:
		return Uint64MapKey(bits), nil
	default:
		return MapKey{}, fmt.Errorf("dynamic: kind %s is not a valid map key kind", k)
	}
}

func mapKeyFromString(s string) MapKey { return StringMapKey(s) }
