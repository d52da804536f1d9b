package wireformat

import (
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Buffer is a reader and writer over a byte slice that understands the
// protobuf binary wire format. It is a fork of the approach taken by
// protobuf's own Buffer types: a flat slice plus a read cursor, with the
// write side appending and the read side consuming from the front.
//
// This is the component A primitive that everything above it (the pool
// builder's option parsing, the dynamic message binary codec) is built on.
type Buffer struct {
	buf   []byte
	index int
}

// NewBuffer wraps buf for reading. The returned Buffer does not copy buf.
func NewBuffer(buf []byte) *Buffer {
	return &Buffer{buf: buf}
}

// NewWriter returns an empty Buffer for writing.
func NewWriter() *Buffer {
	return &Buffer{}
}

// Bytes returns the unread (for a reader) or written (for a writer) bytes.
// The caller must not retain the slice beyond further writes to this Buffer.
func (b *Buffer) Bytes() []byte {
	return b.buf[b.index:]
}

// Len reports the number of unread bytes remaining.
func (b *Buffer) Len() int {
	return len(b.buf) - b.index
}

// EOF reports whether the buffer has been fully consumed.
func (b *Buffer) EOF() bool {
	return b.index >= len(b.buf)
}

// Skip advances the read cursor by n bytes without interpreting them.
func (b *Buffer) Skip(n int) error {
	if b.index+n > len(b.buf) {
		return ErrTruncated
	}
	b.index += n
	return nil
}

func (b *Buffer) rest() []byte {
	return b.buf[b.index:]
}

// DecodeTag reads a single varint tag and splits it into field number and
// wire type.
func (b *Buffer) DecodeTag() (fieldNumber int32, wt WireType, err error) {
	num, t, n := protowire.ConsumeTag(b.rest())
	if n < 0 {
		return 0, 0, tagError(n)
	}
	if num <= 0 {
		return 0, 0, ErrBadTag
	}
	b.index += n
	return int32(num), WireType(t), nil
}

func tagError(n int) error {
	if protowire.ParseError(n) == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return ErrBadTag
}

// EncodeTag writes a tag for the given field number and wire type.
func (b *Buffer) EncodeTag(fieldNumber int32, wt WireType) {
	b.buf = protowire.AppendTag(b.buf, protowire.Number(fieldNumber), protowire.Type(wt))
}

// DecodeVarint reads an unsigned base-128 varint.
func (b *Buffer) DecodeVarint() (uint64, error) {
	v, n := protowire.ConsumeVarint(b.rest())
	if n < 0 {
		if protowire.ParseError(n) == io.ErrUnexpectedEOF {
			return 0, ErrTruncated
		}
		// ConsumeVarint fails only on truncation or a varint longer than
		// 64 bits.
		return 0, ErrOverflow
	}
	b.index += n
	return v, nil
}

// EncodeVarint appends v as a base-128 varint.
func (b *Buffer) EncodeVarint(v uint64) {
	b.buf = protowire.AppendVarint(b.buf, v)
}

// DecodeFixed32 reads a little-endian 32-bit word.
func (b *Buffer) DecodeFixed32() (uint32, error) {
	v, n := protowire.ConsumeFixed32(b.rest())
	if n < 0 {
		return 0, consumeError(n)
	}
	b.index += n
	return v, nil
}

// EncodeFixed32 appends v as a little-endian 32-bit word.
func (b *Buffer) EncodeFixed32(v uint32) {
	b.buf = protowire.AppendFixed32(b.buf, v)
}

// DecodeFixed64 reads a little-endian 64-bit word.
func (b *Buffer) DecodeFixed64() (uint64, error) {
	v, n := protowire.ConsumeFixed64(b.rest())
	if n < 0 {
		return 0, consumeError(n)
	}
	b.index += n
	return v, nil
}

// EncodeFixed64 appends v as a little-endian 64-bit word.
func (b *Buffer) EncodeFixed64(v uint64) {
	b.buf = protowire.AppendFixed64(b.buf, v)
}

// DecodeRawBytes reads a length-delimited segment and returns its payload
// (a view into the underlying buffer, not a copy).
func (b *Buffer) DecodeRawBytes() ([]byte, error) {
	v, n := protowire.ConsumeBytes(b.rest())
	if n < 0 {
		return nil, consumeError(n)
	}
	b.index += n
	return v, nil
}

// EncodeRawBytes appends v as a length-prefixed segment.
func (b *Buffer) EncodeRawBytes(v []byte) {
	b.buf = protowire.AppendBytes(b.buf, v)
}

// WriteRaw appends v verbatim, with no framing, for callers (unknown field
// preservation, group content) that already hold fully-encoded bytes.
func (b *Buffer) WriteRaw(v []byte) {
	b.buf = append(b.buf, v...)
}

// SkipValue consumes and discards one wire value of the given type
// (following a tag already read), used when preserving unknown fields or
// skipping unrecognized group members. For StartGroup it recursively skips
// to the matching EndGroup.
func (b *Buffer) SkipValue(fieldNumber int32, wt WireType) ([]byte, error) {
	start := b.index
	n := protowire.ConsumeFieldValue(protowire.Number(fieldNumber), protowire.Type(wt), b.rest())
	if n < 0 {
		return nil, consumeError(n)
	}
	b.index += n
	return b.buf[start:b.index], nil
}

func consumeError(n int) error {
	if protowire.ParseError(n) == io.ErrUnexpectedEOF {
		return ErrTruncated
	}
	return ErrBadTag
}
