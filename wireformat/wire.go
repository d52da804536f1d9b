// Package wireformat implements the low-level protobuf binary wire
// primitives: varint/zigzag/fixed-width codecs, tag parsing, and
// length-delimited framing. Everything above this package (descriptors,
// dynamic messages, the binary codec) is built out of these pieces.
package wireformat

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

// WireType identifies how a field's value is encoded on the wire.
type WireType int8

const (
	WireVarint     WireType = 0
	WireFixed64    WireType = 1
	WireBytes      WireType = 2
	WireStartGroup WireType = 3
	WireEndGroup   WireType = 4
	WireFixed32    WireType = 5
)

// ErrOverflow is returned when a varint does not fit in 64 bits.
var ErrOverflow = errors.New("wireformat: varint overflows 64 bits")

// ErrTruncated is returned when the buffer ends before a value is fully read.
var ErrTruncated = errors.New("wireformat: truncated input")

// ErrBadTag is returned for a malformed tag (zero field number, bad wire type).
var ErrBadTag = errors.New("wireformat: invalid tag")

// ErrUnexpectedEndGroup is returned when an end-group marker doesn't match
// the group that's currently open.
var ErrUnexpectedEndGroup = errors.New("wireformat: unexpected end group")

// MaxRecursionDepth bounds nested message/group decoding, satisfying the
// RecursionLimitExceeded error kind from the spec's error taxonomy.
const MaxRecursionDepth = 64

// EncodeTag packs a field number and wire type into a single varint tag.
func EncodeTag(fieldNumber int32, wt WireType) uint64 {
	return protowire.EncodeTag(protowire.Number(fieldNumber), protowire.Type(wt))
}

// DecodeTag unpacks a tag into its field number and wire type.
func DecodeTag(tag uint64) (fieldNumber int32, wt WireType) {
	num, t := protowire.DecodeTag(tag)
	return int32(num), WireType(t)
}

// Zigzag32 encodes a signed 32-bit integer using zigzag encoding, used by
// the sint32 wire representation.
func Zigzag32(v int32) uint32 {
	return uint32((v << 1) ^ (v >> 31))
}

// ZigzagDecode32 reverses Zigzag32.
func ZigzagDecode32(v uint32) int32 {
	return int32(v>>1) ^ -int32(v&1)
}

// Zigzag64 encodes a signed 64-bit integer using zigzag encoding, used by
// the sint64 wire representation.
func Zigzag64(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

// ZigzagDecode64 reverses Zigzag64.
func ZigzagDecode64(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// PackableWireType reports the wire type packed repeated scalar fields of
// the given kind use (Varint, Fixed32 or Fixed64), and whether the kind can
// be packed at all (messages, strings and bytes never can).
func PackableWireType(k Kind) (WireType, bool) {
	switch k {
	case KindBool, KindInt32, KindInt64, KindUint32, KindUint64, KindSint32, KindSint64, KindEnum:
		return WireVarint, true
	case KindFixed32, KindSfixed32, KindFloat:
		return WireFixed32, true
	case KindFixed64, KindSfixed64, KindDouble:
		return WireFixed64, true
	default:
		return 0, false
	}
}
