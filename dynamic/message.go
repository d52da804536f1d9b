package dynamic

import (
	"sort"

	"github.com/protoval/protoreflect/protodesc"
	"github.com/protoval/protoreflect/wireformat"
)

// UnknownField is one preserved wire item whose field number was not
// recognized (neither a declared field nor a registered extension) when a
// message was decoded, or whose wire type did not match the declared
// field with that number.
type UnknownField struct {
	Number   int32
	WireType wireformat.WireType
	// Raw holds the exact encoded bytes for this item, tag included, so
	// re-encoding reproduces the original wire representation verbatim.
	Raw []byte
}

type slotKind int8

const (
	slotSingular slotKind = iota
	slotList
	slotMap
)

// fieldSlot is the single unioned representation backing every populated
// field-number entry in a Message's store: singular value, repeated list,
// or map, covering both normal and extension fields alike (an extension
// slot is just one whose fd is an extension FieldDescriptor).
type fieldSlot struct {
	kind  slotKind
	fd    *protodesc.FieldDescriptor
	value Value
	list  []Value
	mp    map[MapKey]Value
}

// Message is a schema-driven dynamic protobuf message: a MessageDescriptor
// handle plus a field store keyed by field number, able to hold scalars,
// nested messages, repeated and map fields, extensions, and preserved
// unknown fields.
type Message struct {
	md      *protodesc.MessageDescriptor
	er      *ExtensionRegistry
	fields  map[int32]*fieldSlot
	unknown []UnknownField
}

// NewMessage returns a new message of the given type with no populated
// fields.
func NewMessage(md *protodesc.MessageDescriptor) *Message {
	return &Message{md: md, fields: map[int32]*fieldSlot{}}
}

// NewMessageWithExtensionRegistry returns a new message that consults er
// (in addition to its pool) to resolve extension fields not declared as
// extensions of md's own file set.
func NewMessageWithExtensionRegistry(md *protodesc.MessageDescriptor, er *ExtensionRegistry) *Message {
	return &Message{md: md, er: er, fields: map[int32]*fieldSlot{}}
}

// Descriptor returns the message's type descriptor.
func (m *Message) Descriptor() *protodesc.MessageDescriptor { return m.md }

func (m *Message) fieldByNumber(n int32) *protodesc.FieldDescriptor {
	if fd := m.md.FieldByNumber(n); fd != nil {
		return fd
	}
	if m.er != nil {
		if fd := m.er.Find(m.md.FullName(), n); fd != nil {
			return fd
		}
	}
	return nil
}

func (m *Message) fieldByName(name string) *protodesc.FieldDescriptor {
	if fd := m.md.FieldByName(name); fd != nil {
		return fd
	}
	return m.md.FieldByJSONName(name)
}

// clearOneofSiblings removes any other populated member of fd's oneof.
func (m *Message) clearOneofSiblings(fd *protodesc.FieldDescriptor) {
	oo := fd.ContainingOneof()
	if oo == nil {
		return
	}
	for _, sib := range oo.Fields() {
		if sib.Number() != fd.Number() {
			delete(m.fields, sib.Number())
		}
	}
}

// HasField reports whether fd is populated in this message (by wire
// presence, not default value).
func (m *Message) HasField(fd *protodesc.FieldDescriptor) bool {
	_, ok := m.fields[fd.Number()]
	return ok
}

// HasFieldNumber reports field presence by number.
func (m *Message) HasFieldNumber(n int32) bool {
	_, ok := m.fields[n]
	return ok
}

// HasFieldName reports field presence by declared or JSON name.
func (m *Message) HasFieldName(name string) bool {
	fd := m.fieldByName(name)
	if fd == nil {
		return false
	}
	return m.HasField(fd)
}

// GetField returns the value populated for fd, or its default value if
// unpopulated (the zero value for proto3, the declared default for
// proto2); repeated and map fields return an empty list/map when unset.
func (m *Message) GetField(fd *protodesc.FieldDescriptor) Value {
	if slot, ok := m.fields[fd.Number()]; ok {
		return slotValue(slot)
	}
	return defaultValue(fd)
}

// GetFieldByNumber is GetField addressed by field number.
func (m *Message) GetFieldByNumber(n int32) (Value, bool) {
	fd := m.fieldByNumber(n)
	if fd == nil {
		return Value{}, false
	}
	return m.GetField(fd), true
}

// GetFieldByName is GetField addressed by declared or JSON name.
func (m *Message) GetFieldByName(name string) (Value, bool) {
	fd := m.fieldByName(name)
	if fd == nil {
		return Value{}, false
	}
	return m.GetField(fd), true
}

func slotValue(slot *fieldSlot) Value {
	switch slot.kind {
	case slotList:
		return ListValue(slot.list)
	case slotMap:
		return MapValueOf(slot.mp)
	default:
		return slot.value
	}
}

func defaultValue(fd *protodesc.FieldDescriptor) Value {
	if fd.IsMap() {
		return MapValueOf(map[MapKey]Value{})
	}
	if fd.IsRepeated() {
		return ListValue(nil)
	}
	return zeroValueForKind(fd)
}

func zeroValueForKind(fd *protodesc.FieldDescriptor) Value {
	switch fd.Kind() {
	case wireformat.KindBool:
		if dv, ok := parseBoolDefault(fd.DefaultValueString()); ok {
			return BoolValue(dv)
		}
		return BoolValue(false)
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		return Int32Value(int32(parseIntDefault(fd.DefaultValueString())))
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		return Int64Value(parseIntDefault(fd.DefaultValueString()))
	case wireformat.KindUint32, wireformat.KindFixed32:
		return Uint32Value(uint32(parseUintDefault(fd.DefaultValueString())))
	case wireformat.KindUint64, wireformat.KindFixed64:
		return Uint64Value(parseUintDefault(fd.DefaultValueString()))
	case wireformat.KindFloat:
		return Float32Value(float32(parseFloatDefault(fd.DefaultValueString())))
	case wireformat.KindDouble:
		return Float64Value(parseFloatDefault(fd.DefaultValueString()))
	case wireformat.KindString:
		return StringValue(fd.DefaultValueString())
	case wireformat.KindBytes:
		return BytesValue([]byte(fd.DefaultValueString()))
	case wireformat.KindEnum:
		if dv := fd.DefaultValueString(); dv != "" {
			if v := fd.EnumType().ValueByName(dv); v != nil {
				return EnumValue(v.Number())
			}
		}
		if len(fd.EnumType().Values()) > 0 {
			return EnumValue(fd.EnumType().Values()[0].Number())
		}
		return EnumValue(0)
	case wireformat.KindMessage, wireformat.KindGroup:
		return Value{}
	default:
		return Value{}
	}
}

// SetField assigns value to fd, panicking if value's kind or cardinality
// doesn't match the field; use TrySetField to get an error instead.
func (m *Message) SetField(fd *protodesc.FieldDescriptor, value Value) {
	if err := m.TrySetField(fd, value); err != nil {
		panic(err)
	}
}

// TrySetField assigns value to fd after validating that its kind and
// cardinality match, clearing any other populated member of fd's oneof.
func (m *Message) TrySetField(fd *protodesc.FieldDescriptor, value Value) error {
	if err := validateValueForField(fd, value); err != nil {
		return err
	}
	m.clearOneofSiblings(fd)
	switch value.Kind() {
	case KindList:
		m.fields[fd.Number()] = &fieldSlot{kind: slotList, fd: fd, list: append([]Value(nil), value.List()...)}
	case KindMap:
		mp := make(map[MapKey]Value, len(value.Map()))
		for k, v := range value.Map() {
			mp[k] = v
		}
		m.fields[fd.Number()] = &fieldSlot{kind: slotMap, fd: fd, mp: mp}
	default:
		m.fields[fd.Number()] = &fieldSlot{kind: slotSingular, fd: fd, value: value}
	}
	return nil
}

// ClearField removes fd's populated slot, if any.
func (m *Message) ClearField(fd *protodesc.FieldDescriptor) {
	delete(m.fields, fd.Number())
}

// TakeField removes and returns fd's value, or its default if unpopulated.
func (m *Message) TakeField(fd *protodesc.FieldDescriptor) Value {
	v := m.GetField(fd)
	m.ClearField(fd)
	return v
}

// Fields returns every populated normal (non-extension) field descriptor,
// in ascending field-number order.
func (m *Message) Fields() []*protodesc.FieldDescriptor {
	return m.populatedFields(false)
}

// Extensions returns every populated extension field descriptor, in
// ascending field-number order.
func (m *Message) Extensions() []*protodesc.FieldDescriptor {
	return m.populatedFields(true)
}

func (m *Message) populatedFields(extensions bool) []*protodesc.FieldDescriptor {
	var nums []int32
	for n, slot := range m.fields {
		if slot.fd.IsExtension() == extensions {
			nums = append(nums, n)
		}
	}
	sort.Slice(nums, func(i, j int) bool { return nums[i] < nums[j] })
	out := make([]*protodesc.FieldDescriptor, len(nums))
	for i, n := range nums {
		out[i] = m.fields[n].fd
	}
	return out
}

// UnknownFields returns preserved unknown wire items in original
// encounter order.
func (m *Message) UnknownFields() []UnknownField { return m.unknown }

// addUnknownField appends a preserved wire item to the unknown-field
// store, keeping encounter order.
func (m *Message) addUnknownField(u UnknownField) { m.unknown = append(m.unknown, u) }

// ClearUnknownFields discards every preserved unknown wire item.
func (m *Message) ClearUnknownFields() { m.unknown = nil }

func validateValueForField(fd *protodesc.FieldDescriptor, v Value) error {
	if fd.IsMap() {
		if v.Kind() != KindMap {
			return valueErr(fd.FullName(), "expected a map value")
		}
		md := fd.MessageType()
		kfd, vfd := md.MapKeyField(), md.MapValueField()
		for k, mv := range v.Map() {
			if err := validateMapKey(kfd, k); err != nil {
				return err
			}
			if err := validateValueForField(vfd, mv); err != nil {
				return err
			}
		}
		return nil
	}
	if fd.IsRepeated() {
		if v.Kind() != KindList {
			return valueErr(fd.FullName(), "expected a repeated (list) value")
		}
		for _, e := range v.List() {
			if err := validateScalarOrMessage(fd, e); err != nil {
				return err
			}
		}
		return nil
	}
	return validateScalarOrMessage(fd, v)
}

func validateMapKey(kfd *protodesc.FieldDescriptor, k MapKey) error {
	switch kfd.Kind() {
	case wireformat.KindBool:
		if k.Kind() != MapKeyKindBool {
			return valueErr(kfd.FullName(), "map key kind mismatch")
		}
	case wireformat.KindString:
		if k.Kind() != MapKeyKindString {
			return valueErr(kfd.FullName(), "map key kind mismatch")
		}
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		if k.Kind() != MapKeyKindInt32 {
			return valueErr(kfd.FullName(), "map key kind mismatch")
		}
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		if k.Kind() != MapKeyKindInt64 {
			return valueErr(kfd.FullName(), "map key kind mismatch")
		}
	case wireformat.KindUint32, wireformat.KindFixed32:
		if k.Kind() != MapKeyKindUint32 {
			return valueErr(kfd.FullName(), "map key kind mismatch")
		}
	case wireformat.KindUint64, wireformat.KindFixed64:
		if k.Kind() != MapKeyKindUint64 {
			return valueErr(kfd.FullName(), "map key kind mismatch")
		}
	default:
		return valueErr(kfd.FullName(), "kind %s is not a valid map key", kfd.Kind())
	}
	return nil
}

func validateScalarOrMessage(fd *protodesc.FieldDescriptor, v Value) error {
	switch fd.Kind() {
	case wireformat.KindMessage, wireformat.KindGroup:
		if v.Kind() != KindMessage {
			return valueErr(fd.FullName(), "expected a message value")
		}
		if v.Message() != nil && v.Message().Descriptor().FullName() != fd.MessageType().FullName() {
			return valueErr(fd.FullName(), "message value has wrong type %s", v.Message().Descriptor().FullName())
		}
	case wireformat.KindEnum:
		if v.Kind() != KindEnumNumber {
			return valueErr(fd.FullName(), "expected an enum number value")
		}
	case wireformat.KindBool:
		if v.Kind() != KindBool {
			return valueErr(fd.FullName(), "expected a bool value")
		}
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		if v.Kind() != KindInt32 {
			return valueErr(fd.FullName(), "expected an int32 value")
		}
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		if v.Kind() != KindInt64 {
			return valueErr(fd.FullName(), "expected an int64 value")
		}
	case wireformat.KindUint32, wireformat.KindFixed32:
		if v.Kind() != KindUint32 {
			return valueErr(fd.FullName(), "expected a uint32 value")
		}
	case wireformat.KindUint64, wireformat.KindFixed64:
		if v.Kind() != KindUint64 {
			return valueErr(fd.FullName(), "expected a uint64 value")
		}
	case wireformat.KindFloat:
		if v.Kind() != KindFloat32 {
			return valueErr(fd.FullName(), "expected a float value")
		}
	case wireformat.KindDouble:
		if v.Kind() != KindFloat64 {
			return valueErr(fd.FullName(), "expected a double value")
		}
	case wireformat.KindString:
		if v.Kind() != KindString {
			return valueErr(fd.FullName(), "expected a string value")
		}
	case wireformat.KindBytes:
		if v.Kind() != KindBytes {
			return valueErr(fd.FullName(), "expected a bytes value")
		}
	}
	return nil
}
