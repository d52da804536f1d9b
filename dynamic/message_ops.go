package dynamic

import "github.com/protoval/protoreflect/protodesc"

// TrySetFieldByNumber is TrySetField addressed by field number.
func (m *Message) TrySetFieldByNumber(n int32, value Value) error {
	fd := m.fieldByNumber(n)
	if fd == nil {
		return &UnknownFieldError{Message: m.md.FullName(), Field: itoaField(n)}
	}
	return m.TrySetField(fd, value)
}

// TrySetFieldByName is TrySetField addressed by declared or JSON name.
func (m *Message) TrySetFieldByName(name string, value Value) error {
	fd := m.fieldByName(name)
	if fd == nil {
		return &UnknownFieldError{Message: m.md.FullName(), Field: name}
	}
	return m.TrySetField(fd, value)
}

// ClearFieldByNumber is ClearField addressed by field number; it is a
// no-op if n does not name a field.
func (m *Message) ClearFieldByNumber(n int32) { delete(m.fields, n) }

// ClearFieldByName is ClearField addressed by declared or JSON name.
func (m *Message) ClearFieldByName(name string) {
	if fd := m.fieldByName(name); fd != nil {
		m.ClearField(fd)
	}
}

// TakeFieldByNumber is TakeField addressed by field number.
func (m *Message) TakeFieldByNumber(n int32) (Value, bool) {
	fd := m.fieldByNumber(n)
	if fd == nil {
		return Value{}, false
	}
	return m.TakeField(fd), true
}

// TakeFieldByName is TakeField addressed by declared or JSON name.
func (m *Message) TakeFieldByName(name string) (Value, bool) {
	fd := m.fieldByName(name)
	if fd == nil {
		return Value{}, false
	}
	return m.TakeField(fd), true
}

func itoaField(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Clone returns a deep copy of m: nested messages are recursively cloned,
// repeated and map fields get fresh backing storage, and unknown fields
// and their raw bytes are copied.
func (m *Message) Clone() *Message {
	out := &Message{md: m.md, er: m.er, fields: make(map[int32]*fieldSlot, len(m.fields))}
	for n, slot := range m.fields {
		out.fields[n] = cloneSlot(slot)
	}
	if m.unknown != nil {
		out.unknown = append([]UnknownField(nil), m.unknown...)
		for i := range out.unknown {
			out.unknown[i].Raw = append([]byte(nil), out.unknown[i].Raw...)
		}
	}
	return out
}

func cloneSlot(slot *fieldSlot) *fieldSlot {
	switch slot.kind {
	case slotList:
		list := make([]Value, len(slot.list))
		for i, v := range slot.list {
			list[i] = cloneValue(v)
		}
		return &fieldSlot{kind: slotList, fd: slot.fd, list: list}
	case slotMap:
		mp := make(map[MapKey]Value, len(slot.mp))
		for k, v := range slot.mp {
			mp[k] = cloneValue(v)
		}
		return &fieldSlot{kind: slotMap, fd: slot.fd, mp: mp}
	default:
		return &fieldSlot{kind: slotSingular, fd: slot.fd, value: cloneValue(slot.value)}
	}
}

func cloneValue(v Value) Value {
	if v.Kind() == KindMessage && v.Message() != nil {
		return MessageValue(v.Message().Clone())
	}
	return v
}

// TranscodeTo copies every field populated in m into a freshly constructed
// message of dst's type, matching by field number; fields with no
// counterpart in dst are dropped, and mismatched kinds are skipped rather
// than erroring, mirroring the spec's "best-effort, field-number-keyed"
// transcoding semantics.
func (m *Message) TranscodeTo(dst *protodesc.MessageDescriptor) *Message {
	out := NewMessageWithExtensionRegistry(dst, m.er)
	for n, slot := range m.fields {
		tfd := dst.FieldByNumber(n)
		if tfd == nil {
			continue
		}
		v := slotValue(slot)
		if validateValueForField(tfd, v) != nil {
			continue
		}
		out.fields[n] = &fieldSlot{kind: slot.kind, fd: tfd, value: slot.value, list: slot.list, mp: slot.mp}
	}
	return out
}

// TranscodeFrom replaces m's fields with src's, reinterpreted against m's
// own descriptor by field number (the inverse view of TranscodeTo).
func (m *Message) TranscodeFrom(src *Message) {
	t := src.TranscodeTo(m.md)
	m.fields = t.fields
	m.unknown = append([]UnknownField(nil), src.unknown...)
}
