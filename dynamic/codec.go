package dynamic

import (
	"math"
	"sort"
	"unicode/utf8"

	"github.com/protoval/protoreflect/protodesc"
	"github.com/protoval/protoreflect/wireformat"
)

// Marshal encodes m to its canonical binary wire representation: fields in
// ascending field-number order (normal and extension fields interleaved by
// number), packed where the field is packable and marked packed, then any
// preserved unknown fields appended last in their original encounter
// order.
func Marshal(m *Message) ([]byte, error) {
	buf := wireformat.NewWriter()
	if err := marshalInto(buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func marshalInto(buf *wireformat.Buffer, m *Message) error {
	var nums []int32
	for n := range m.fields {
		nums = append(nums, n)
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })

	for _, n := range nums {
		slot := m.fields[n]
		if err := encodeSlot(buf, slot); err != nil {
			return err
		}
	}
	for _, u := range m.unknown {
		buf.WriteRaw(u.Raw)
	}
	return nil
}

func encodeSlot(buf *wireformat.Buffer, slot *fieldSlot) error {
	fd := slot.fd
	switch slot.kind {
	case slotMap:
		return encodeMapEntries(buf, fd, slot.mp)
	case slotList:
		return encodeList(buf, fd, slot.list)
	default:
		return encodeSingular(buf, fd, slot.value)
	}
}

func encodeMapEntries(buf *wireformat.Buffer, fd *protodesc.FieldDescriptor, mp map[MapKey]Value) error {
	md := fd.MessageType()
	kfd, vfd := md.MapKeyField(), md.MapValueField()
	keys := make([]MapKey, 0, len(mp))
	for k := range mp {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return mapKeyLess(keys[i], keys[j]) })
	for _, k := range keys {
		entry := wireformat.NewWriter()
		if err := encodeSingular(entry, kfd, mapKeyToValue(kfd, k)); err != nil {
			return err
		}
		if err := encodeSingular(entry, vfd, mp[k]); err != nil {
			return err
		}
		buf.EncodeTag(fd.Number(), wireformat.WireBytes)
		buf.EncodeRawBytes(entry.Bytes())
	}
	return nil
}

func mapKeyLess(a, b MapKey) bool {
	if a.Kind() != b.Kind() {
		return a.Kind() < b.Kind()
	}
	switch a.Kind() {
	case MapKeyKindString:
		return a.String() < b.String()
	case MapKeyKindBool:
		return !a.Bool() && b.Bool()
	case MapKeyKindInt32:
		return a.Int32() < b.Int32()
	case MapKeyKindInt64:
		return a.Int64() < b.Int64()
	case MapKeyKindUint32:
		return a.Uint32() < b.Uint32()
	default:
		return a.Uint64() < b.Uint64()
	}
}

func mapKeyToValue(fd *protodesc.FieldDescriptor, k MapKey) Value {
	switch k.Kind() {
	case MapKeyKindBool:
		return BoolValue(k.Bool())
	case MapKeyKindString:
		return StringValue(k.String())
	case MapKeyKindInt32:
		return Int32Value(k.Int32())
	case MapKeyKindInt64:
		return Int64Value(k.Int64())
	case MapKeyKindUint32:
		return Uint32Value(k.Uint32())
	default:
		return Uint64Value(k.Uint64())
	}
}

func encodeList(buf *wireformat.Buffer, fd *protodesc.FieldDescriptor, list []Value) error {
	if _, packable := wireformat.PackableWireType(fd.Kind()); packable && fd.IsPacked() {
		payload := wireformat.NewWriter()
		for _, v := range list {
			if err := encodeScalarNoTag(payload, fd.Kind(), v); err != nil {
				return err
			}
		}
		buf.EncodeTag(fd.Number(), wireformat.WireBytes)
		buf.EncodeRawBytes(payload.Bytes())
		return nil
	}
	for _, v := range list {
		if err := encodeSingular(buf, fd, v); err != nil {
			return err
		}
	}
	return nil
}

func encodeSingular(buf *wireformat.Buffer, fd *protodesc.FieldDescriptor, v Value) error {
	if fd.Kind() == wireformat.KindGroup {
		buf.EncodeTag(fd.Number(), wireformat.WireStartGroup)
		if v.Message() != nil {
			if err := marshalInto(buf, v.Message()); err != nil {
				return err
			}
		}
		buf.EncodeTag(fd.Number(), wireformat.WireEndGroup)
		return nil
	}
	buf.EncodeTag(fd.Number(), fd.Kind().WireType())
	return encodeScalarNoTag(buf, fd.Kind(), v)
}

// encodeScalarNoTag writes only the value portion for kind (no tag); the
// packed-repeated path needs the value alone, everything else pairs this
// with an EncodeTag call first.
func encodeScalarNoTag(buf *wireformat.Buffer, kind wireformat.Kind, v Value) error {
	switch kind {
	case wireformat.KindBool:
		var u uint64
		if v.Bool() {
			u = 1
		}
		buf.EncodeVarint(u)
	case wireformat.KindInt32:
		buf.EncodeVarint(uint64(int64(v.Int32())))
	case wireformat.KindInt64:
		buf.EncodeVarint(uint64(v.Int64()))
	case wireformat.KindUint32:
		buf.EncodeVarint(uint64(v.Uint32()))
	case wireformat.KindUint64:
		buf.EncodeVarint(v.Uint64())
	case wireformat.KindSint32:
		buf.EncodeVarint(uint64(wireformat.Zigzag32(v.Int32())))
	case wireformat.KindSint64:
		buf.EncodeVarint(wireformat.Zigzag64(v.Int64()))
	case wireformat.KindEnum:
		buf.EncodeVarint(uint64(uint32(v.EnumNumber())))
	case wireformat.KindFixed32:
		buf.EncodeFixed32(v.Uint32())
	case wireformat.KindSfixed32:
		buf.EncodeFixed32(uint32(v.Int32()))
	case wireformat.KindFloat:
		buf.EncodeFixed32(math.Float32bits(v.Float32()))
	case wireformat.KindFixed64:
		buf.EncodeFixed64(v.Uint64())
	case wireformat.KindSfixed64:
		buf.EncodeFixed64(uint64(v.Int64()))
	case wireformat.KindDouble:
		buf.EncodeFixed64(math.Float64bits(v.Float64()))
	case wireformat.KindString:
		buf.EncodeRawBytes([]byte(v.String()))
	case wireformat.KindBytes:
		buf.EncodeRawBytes(v.Bytes())
	case wireformat.KindMessage:
		sub, err := Marshal(v.Message())
		if err != nil {
			return err
		}
		buf.EncodeRawBytes(sub)
	default:
		return decodeErr("InvalidValue", "cannot encode kind %s", kind)
	}
	return nil
}

// Unmarshal decodes data into m, merging into whatever m already holds:
// singular scalar and message fields are overwritten (message fields are
// themselves merged, recursively), repeated fields are appended to, map
// entries overwrite by key, and a later oneof member clears and replaces
// an earlier one. Field numbers are recognized by m's descriptor and by m's
// extension registry; extensions known only to a pool are not consulted.
// Fields whose number isn't recognized are preserved verbatim as unknown
// fields in encounter order.
func Unmarshal(data []byte, m *Message) error {
	return unmarshalInto(data, m, 0)
}

func unmarshalInto(data []byte, m *Message, depth int) error {
	if depth > wireformat.MaxRecursionDepth {
		return decodeErr("RecursionLimitExceeded", "exceeded max nesting depth %d", wireformat.MaxRecursionDepth)
	}
	buf := wireformat.NewBuffer(data)
	for !buf.EOF() {
		before := buf.Bytes()
		num, wt, err := buf.DecodeTag()
		if err != nil {
			return err
		}
		fd := m.fieldByNumber(num)
		if fd != nil && !wireTypeMatchesField(fd, wt) {
			// A known field number received with a wire type that doesn't
			// match its declared type is recoverable, not a hard error:
			// preserve it as unknown rather than force-decoding bytes that
			// don't mean what the field's Kind expects.
			fd = nil
		}
		if fd == nil {
			if _, err := buf.SkipValue(num, wt); err != nil {
				return err
			}
			full := before[:len(before)-buf.Len()]
			m.addUnknownField(UnknownField{Number: num, WireType: wt, Raw: append([]byte(nil), full...)})
			continue
		}
		if err := decodeField(buf, m, fd, wt, depth); err != nil {
			return err
		}
	}
	return nil
}

func decodeField(buf *wireformat.Buffer, m *Message, fd *protodesc.FieldDescriptor, wt wireformat.WireType, depth int) error {
	if fd.IsMap() {
		return decodeMapEntry(buf, m, fd, depth)
	}
	if fd.IsRepeated() {
		if wt == wireformat.WireBytes {
			if _, packable := wireformat.PackableWireType(fd.Kind()); packable {
				raw, err := buf.DecodeRawBytes()
				if err != nil {
					return err
				}
				return decodePacked(raw, m, fd)
			}
		}
		v, err := decodeSingular(buf, fd, wt, depth)
		if err != nil {
			return err
		}
		slot := m.fields[fd.Number()]
		if slot == nil || slot.kind != slotList {
			slot = &fieldSlot{kind: slotList, fd: fd}
			m.fields[fd.Number()] = slot
		}
		slot.list = append(slot.list, v)
		return nil
	}
	v, err := decodeSingular(buf, fd, wt, depth)
	if err != nil {
		return err
	}
	m.clearOneofSiblings(fd)
	if existing := m.fields[fd.Number()]; existing != nil && existing.kind == slotSingular &&
		fd.Kind() == wireformat.KindMessage && existing.value.Message() != nil && v.Message() != nil {
		// message fields merge rather than replace on repeated occurrence.
		mergeMessage(existing.value.Message(), v.Message())
		return nil
	}
	m.fields[fd.Number()] = &fieldSlot{kind: slotSingular, fd: fd, value: v}
	return nil
}

func mergeMessage(dst, src *Message) {
	for n, slot := range src.fields {
		if existing := dst.fields[n]; existing != nil && existing.kind == slotSingular &&
			slot.kind == slotSingular && existing.value.Kind() == KindMessage && slot.value.Kind() == KindMessage {
			mergeMessage(existing.value.Message(), slot.value.Message())
			continue
		}
		dst.fields[n] = slot
	}
	dst.unknown = append(dst.unknown, src.unknown...)
}

func decodePacked(raw []byte, m *Message, fd *protodesc.FieldDescriptor) error {
	pb := wireformat.NewBuffer(raw)
	slot := m.fields[fd.Number()]
	if slot == nil || slot.kind != slotList {
		slot = &fieldSlot{kind: slotList, fd: fd}
		m.fields[fd.Number()] = slot
	}
	for !pb.EOF() {
		v, err := decodeScalarNoTag(pb, fd.Kind())
		if err != nil {
			return err
		}
		slot.list = append(slot.list, v)
	}
	return nil
}

func decodeMapEntry(buf *wireformat.Buffer, m *Message, fd *protodesc.FieldDescriptor, depth int) error {
	raw, err := buf.DecodeRawBytes()
	if err != nil {
		return err
	}
	md := fd.MessageType()
	kfd, vfd := md.MapKeyField(), md.MapValueField()
	eb := wireformat.NewBuffer(raw)
	var key MapKey
	haveKey := false
	val := defaultValue(vfd)
	for !eb.EOF() {
		n, wt, err := eb.DecodeTag()
		if err != nil {
			return err
		}
		switch {
		case n == 1 && wireTypeMatchesField(kfd, wt):
			kv, err := decodeSingular(eb, kfd, wt, depth)
			if err != nil {
				return err
			}
			key, err = mapKeyFromValue(kfd, kv)
			if err != nil {
				return err
			}
			haveKey = true
		case n == 2 && wireTypeMatchesField(vfd, wt):
			val, err = decodeSingular(eb, vfd, wt, depth+1)
			if err != nil {
				return err
			}
		default:
			if _, err := eb.SkipValue(n, wt); err != nil {
				return err
			}
		}
	}
	if !haveKey {
		key = zeroMapKey(kfd)
	}
	slot := m.fields[fd.Number()]
	if slot == nil || slot.kind != slotMap {
		slot = &fieldSlot{kind: slotMap, fd: fd, mp: map[MapKey]Value{}}
		m.fields[fd.Number()] = slot
	}
	slot.mp[key] = val
	return nil
}

func mapKeyFromValue(fd *protodesc.FieldDescriptor, v Value) (MapKey, error) {
	switch v.Kind() {
	case KindBool:
		return BoolMapKey(v.Bool()), nil
	case KindString:
		return StringMapKey(v.String()), nil
	case KindInt32:
		return Int32MapKey(v.Int32()), nil
	case KindInt64:
		return Int64MapKey(v.Int64()), nil
	case KindUint32:
		return Uint32MapKey(v.Uint32()), nil
	case KindUint64:
		return Uint64MapKey(v.Uint64()), nil
	default:
		return MapKey{}, valueErr(fd.FullName(), "kind %v is not a valid map key", v.Kind())
	}
}

func zeroMapKey(fd *protodesc.FieldDescriptor) MapKey {
	k, _ := mapKeyFromValue(fd, zeroValueForKind(fd))
	return k
}

// wireTypeMatchesField reports whether wt is a valid wire type for fd to
// have been encoded with: either its Kind's own wire type, or (for
// repeated scalar fields eligible for packing) the length-delimited wire
// type used by packed encoding. Any other wire type on a known field is
// recoverable only by treating the field as unknown for this occurrence.
func wireTypeMatchesField(fd *protodesc.FieldDescriptor, wt wireformat.WireType) bool {
	if fd.IsMap() {
		return wt == wireformat.WireBytes
	}
	if fd.Kind() == wireformat.KindGroup {
		return wt == wireformat.WireStartGroup
	}
	if wt == fd.Kind().WireType() {
		return true
	}
	if fd.IsRepeated() {
		if _, packable := wireformat.PackableWireType(fd.Kind()); packable && wt == wireformat.WireBytes {
			return true
		}
	}
	return false
}

func decodeSingular(buf *wireformat.Buffer, fd *protodesc.FieldDescriptor, wt wireformat.WireType, depth int) (Value, error) {
	if fd.Kind() == wireformat.KindGroup {
		if wt != wireformat.WireStartGroup {
			_, err := buf.SkipValue(fd.Number(), wt)
			return Value{}, err
		}
		return decodeGroup(buf, fd, depth)
	}
	if fd.Kind() == wireformat.KindMessage {
		raw, err := buf.DecodeRawBytes()
		if err != nil {
			return Value{}, err
		}
		// Nested messages start without a registry of their own: a
		// FieldDescriptor carries no reference to one, so resolving
		// extensions of a submessage beyond its own pool requires the
		// caller to decode it explicitly with NewMessageWithExtensionRegistry.
		sub := NewMessage(fd.MessageType())
		if err := unmarshalInto(raw, sub, depth+1); err != nil {
			return Value{}, err
		}
		return MessageValue(sub), nil
	}
	return decodeScalarNoTag(buf, fd.Kind())
}

func decodeGroup(buf *wireformat.Buffer, fd *protodesc.FieldDescriptor, depth int) (Value, error) {
	if depth+1 > wireformat.MaxRecursionDepth {
		return Value{}, decodeErr("RecursionLimitExceeded", "exceeded max nesting depth %d", wireformat.MaxRecursionDepth)
	}
	sub := NewMessage(fd.MessageType())
	for {
		if buf.EOF() {
			return Value{}, decodeErr("Truncated", "unterminated group for field %s", fd.FullName())
		}
		before := buf.Bytes()
		n, wt, err := buf.DecodeTag()
		if err != nil {
			return Value{}, err
		}
		if wt == wireformat.WireEndGroup {
			if n != fd.Number() {
				return Value{}, wireformat.ErrUnexpectedEndGroup
			}
			return MessageValue(sub), nil
		}
		cfd := sub.fieldByNumber(n)
		if cfd != nil && !wireTypeMatchesField(cfd, wt) {
			cfd = nil
		}
		if cfd == nil {
			if _, err := buf.SkipValue(n, wt); err != nil {
				return Value{}, err
			}
			full := before[:len(before)-buf.Len()]
			sub.addUnknownField(UnknownField{Number: n, WireType: wt, Raw: append([]byte(nil), full...)})
			continue
		}
		if err := decodeField(buf, sub, cfd, wt, depth+1); err != nil {
			return Value{}, err
		}
	}
}

func decodeScalarNoTag(buf *wireformat.Buffer, kind wireformat.Kind) (Value, error) {
	switch kind {
	case wireformat.KindBool:
		v, err := buf.DecodeVarint()
		return BoolValue(v != 0), err
	case wireformat.KindInt32:
		v, err := buf.DecodeVarint()
		return Int32Value(int32(v)), err
	case wireformat.KindInt64:
		v, err := buf.DecodeVarint()
		return Int64Value(int64(v)), err
	case wireformat.KindUint32:
		v, err := buf.DecodeVarint()
		return Uint32Value(uint32(v)), err
	case wireformat.KindUint64:
		v, err := buf.DecodeVarint()
		return Uint64Value(v), err
	case wireformat.KindSint32:
		v, err := buf.DecodeVarint()
		return Int32Value(wireformat.ZigzagDecode32(uint32(v))), err
	case wireformat.KindSint64:
		v, err := buf.DecodeVarint()
		return Int64Value(wireformat.ZigzagDecode64(v)), err
	case wireformat.KindEnum:
		v, err := buf.DecodeVarint()
		return EnumValue(int32(v)), err
	case wireformat.KindFixed32:
		v, err := buf.DecodeFixed32()
		return Uint32Value(v), err
	case wireformat.KindSfixed32:
		v, err := buf.DecodeFixed32()
		return Int32Value(int32(v)), err
	case wireformat.KindFloat:
		v, err := buf.DecodeFixed32()
		return Float32Value(math.Float32frombits(v)), err
	case wireformat.KindFixed64:
		v, err := buf.DecodeFixed64()
		return Uint64Value(v), err
	case wireformat.KindSfixed64:
		v, err := buf.DecodeFixed64()
		return Int64Value(int64(v)), err
	case wireformat.KindDouble:
		v, err := buf.DecodeFixed64()
		return Float64Value(math.Float64frombits(v)), err
	case wireformat.KindString:
		raw, err := buf.DecodeRawBytes()
		if err != nil {
			return Value{}, err
		}
		if !utf8.Valid(raw) {
			return Value{}, decodeErr("InvalidUtf8", "string field contains invalid UTF-8")
		}
		return StringValue(string(raw)), nil
	case wireformat.KindBytes:
		raw, err := buf.DecodeRawBytes()
		if err != nil {
			return Value{}, err
		}
		return BytesValue(append([]byte(nil), raw...)), nil
	default:
		return Value{}, decodeErr("InvalidValue", "cannot decode kind %s", kind)
	}
}
