package dynamic

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/protoval/protoreflect/protodesc"
	"github.com/protoval/protoreflect/wireformat"
)

// errSkipValue signals that a JSON value should be treated as absent
// rather than set, e.g. an unrecognized enum name with DiscardUnknown
// set. It never escapes this file.
var errSkipValue = errors.New("dynamic: value discarded")

// UnmarshalOptions configures canonical JSON decoding of a dynamic
// Message.
type UnmarshalOptions struct {
	// DiscardUnknown silently drops JSON object keys that don't name a
	// field instead of failing (the spec's deny_unknown_fields toggle,
	// inverted to match protojson's flag polarity).
	DiscardUnknown bool
	// Resolver is consulted to construct google.protobuf.Any's embedded
	// message by type URL.
	Resolver *protodesc.Pool
}

// UnmarshalJSON decodes JSON data into m using default options (unknown
// fields rejected).
func UnmarshalJSON(data []byte, m *Message) error { return UnmarshalOptions{}.Unmarshal(data, m) }

// Unmarshal decodes JSON data into m per o.
func (o UnmarshalOptions) Unmarshal(data []byte, m *Message) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return decodeErr("InvalidValue", "malformed JSON: %v", err)
	}
	return o.unmarshalMessage(raw, m)
}

func (o UnmarshalOptions) unmarshalMessage(raw interface{}, m *Message) error {
	full := m.Descriptor().FullName()
	switch full {
	case wktTimestamp:
		s, ok := raw.(string)
		if !ok {
			return decodeErr("InvalidValue", "Timestamp must be a JSON string")
		}
		sec, nsec, err := parseTimestamp(s)
		if err != nil {
			return err
		}
		m.SetField(m.Descriptor().FieldByNumber(1), Int64Value(sec))
		m.SetField(m.Descriptor().FieldByNumber(2), Int32Value(nsec))
		return nil
	case wktDuration:
		s, ok := raw.(string)
		if !ok {
			return decodeErr("InvalidValue", "Duration must be a JSON string")
		}
		sec, nsec, err := parseDuration(s)
		if err != nil {
			return err
		}
		m.SetField(m.Descriptor().FieldByNumber(1), Int64Value(sec))
		m.SetField(m.Descriptor().FieldByNumber(2), Int32Value(nsec))
		return nil
	case wktEmpty:
		if _, ok := raw.(map[string]interface{}); !ok {
			return decodeErr("InvalidValue", "Empty must be a JSON object")
		}
		return nil
	case wktFieldMask:
		s, ok := raw.(string)
		if !ok {
			return decodeErr("InvalidValue", "FieldMask must be a JSON string")
		}
		fd := m.Descriptor().FieldByNumber(1)
		var list []Value
		if s != "" {
			for _, p := range strings.Split(s, ",") {
				list = append(list, StringValue(camelToSnakePath(p)))
			}
		}
		return m.TrySetField(fd, ListValue(list))
	case wktValue:
		return o.unmarshalValueWKT(raw, m)
	case wktStruct:
		return o.unmarshalStructWKT(raw, m)
	case wktListValue:
		return o.unmarshalListValueWKT(raw, m)
	case wktAny:
		return o.unmarshalAny(raw, m)
	}
	if wrapperTypes[full] {
		fd := m.Descriptor().FieldByNumber(1)
		v, err := o.unmarshalScalarValue(raw, fd)
		if err != nil {
			return err
		}
		return m.TrySetField(fd, v)
	}

	obj, ok := raw.(map[string]interface{})
	if !ok {
		return decodeErr("InvalidValue", "expected a JSON object for message %s", full)
	}
	md := m.Descriptor()
	oneofSeen := map[string]bool{}
	for key, val := range obj {
		var fd *protodesc.FieldDescriptor
		if strings.HasPrefix(key, "[") && strings.HasSuffix(key, "]") {
			fd = findExtensionField(m, strings.TrimSuffix(strings.TrimPrefix(key, "["), "]"))
		} else {
			fd = md.FieldByJSONName(key)
			if fd == nil {
				fd = md.FieldByName(key)
			}
		}
		if fd == nil {
			if o.DiscardUnknown {
				continue
			}
			return &UnknownFieldError{Message: full, Field: key}
		}
		if val == nil && !(fd.Kind() == wireformat.KindMessage && !fd.IsRepeated() && fd.MessageType().FullName() == wktValue) {
			// JSON null clears any field (lenient carve-out), except for a
			// singular google.protobuf.Value field, where null is itself a
			// meaningful value: that case falls through and decodes as the
			// Value's null_value via the wktValue branch.
			m.ClearField(fd)
			continue
		}
		if oo := fd.ContainingOneof(); oo != nil && !oo.IsSynthetic() {
			if oneofSeen[oo.FullName()] {
				return decodeErr("InvalidValue", "multiple members of oneof %s are set", oo.FullName())
			}
			oneofSeen[oo.FullName()] = true
		}
		v, err := o.unmarshalFieldValue(val, fd)
		if err != nil {
			if errors.Is(err, errSkipValue) {
				continue
			}
			return err
		}
		if err := m.TrySetField(fd, v); err != nil {
			return err
		}
	}
	return nil
}

// findExtensionField resolves a bracketed JSON key against the extensions
// already populated on m and those held by m's extension registry.
// Extensions known only to a pool are not searched.
func findExtensionField(m *Message, name string) *protodesc.FieldDescriptor {
	for _, fd := range m.Extensions() {
		if fd.FullName() == name {
			return fd
		}
	}
	if m.er != nil {
		for _, fd := range m.er.AllExtensions(m.md.FullName()) {
			if fd.FullName() == name {
				return fd
			}
		}
	}
	return nil
}

func (o UnmarshalOptions) unmarshalFieldValue(raw interface{}, fd *protodesc.FieldDescriptor) (Value, error) {
	if fd.IsMap() {
		obj, ok := raw.(map[string]interface{})
		if !ok {
			return Value{}, decodeErr("InvalidValue", "field %s: expected a JSON object", fd.FullName())
		}
		md := fd.MessageType()
		kfd, vfd := md.MapKeyField(), md.MapValueField()
		mp := make(map[MapKey]Value, len(obj))
		for ks, rv := range obj {
			kv, err := parseMapKeyString(ks, kfd.Kind())
			if err != nil {
				return Value{}, err
			}
			vv, err := o.unmarshalScalarValue(rv, vfd)
			if err != nil {
				if errors.Is(err, errSkipValue) {
					continue
				}
				return Value{}, err
			}
			mp[kv] = vv
		}
		return MapValueOf(mp), nil
	}
	if fd.IsRepeated() {
		arr, ok := raw.([]interface{})
		if !ok {
			return Value{}, decodeErr("InvalidValue", "field %s: expected a JSON array", fd.FullName())
		}
		list := make([]Value, 0, len(arr))
		for _, e := range arr {
			v, err := o.unmarshalScalarValue(e, fd)
			if err != nil {
				if errors.Is(err, errSkipValue) {
					continue
				}
				return Value{}, err
			}
			list = append(list, v)
		}
		return ListValue(list), nil
	}
	return o.unmarshalScalarValue(raw, fd)
}

func parseMapKeyString(s string, kind wireformat.Kind) (MapKey, error) {
	switch kind {
	case wireformat.KindBool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return MapKey{}, decodeErr("InvalidValue", "invalid bool map key %q", s)
		}
		return BoolMapKey(b), nil
	case wireformat.KindString:
		return StringMapKey(s), nil
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		v, err := strconv.ParseInt(s, 10, 32)
		if err != nil {
			return MapKey{}, decodeErr("InvalidValue", "invalid int32 map key %q", s)
		}
		return Int32MapKey(int32(v)), nil
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return MapKey{}, decodeErr("InvalidValue", "invalid int64 map key %q", s)
		}
		return Int64MapKey(v), nil
	case wireformat.KindUint32, wireformat.KindFixed32:
		v, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return MapKey{}, decodeErr("InvalidValue", "invalid uint32 map key %q", s)
		}
		return Uint32MapKey(uint32(v)), nil
	default:
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return MapKey{}, decodeErr("InvalidValue", "invalid uint64 map key %q", s)
		}
		return Uint64MapKey(v), nil
	}
}

func (o UnmarshalOptions) unmarshalScalarValue(raw interface{}, fd *protodesc.FieldDescriptor) (Value, error) {
	switch fd.Kind() {
	case wireformat.KindMessage, wireformat.KindGroup:
		sub := NewMessage(fd.MessageType())
		if err := o.unmarshalMessage(raw, sub); err != nil {
			return Value{}, err
		}
		return MessageValue(sub), nil
	case wireformat.KindEnum:
		switch t := raw.(type) {
		case string:
			if evd := fd.EnumType().ValueByName(t); evd != nil {
				return EnumValue(evd.Number()), nil
			}
			if o.DiscardUnknown {
				return Value{}, errSkipValue
			}
			return Value{}, decodeErr("UnknownEnumValue", "field %s: unknown enum name %q", fd.FullName(), t)
		case json.Number:
			n, err := t.Int64()
			if err != nil {
				return Value{}, decodeErr("InvalidValue", "field %s: invalid enum number %q", fd.FullName(), t)
			}
			return EnumValue(int32(n)), nil
		default:
			return Value{}, decodeErr("InvalidValue", "field %s: expected enum name or number", fd.FullName())
		}
	case wireformat.KindBool:
		b, ok := raw.(bool)
		if !ok {
			return Value{}, decodeErr("InvalidValue", "field %s: expected a JSON bool", fd.FullName())
		}
		return BoolValue(b), nil
	case wireformat.KindString:
		s, ok := raw.(string)
		if !ok {
			return Value{}, decodeErr("InvalidValue", "field %s: expected a JSON string", fd.FullName())
		}
		return StringValue(s), nil
	case wireformat.KindBytes:
		s, ok := raw.(string)
		if !ok {
			return Value{}, decodeErr("InvalidValue", "field %s: expected a base64 JSON string", fd.FullName())
		}
		b, err := decodeBase64(s)
		if err != nil {
			return Value{}, decodeErr("InvalidValue", "field %s: %v", fd.FullName(), err)
		}
		return BytesValue(b), nil
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		n, err := numberFromJSON(raw)
		if err != nil {
			return Value{}, wrapFieldErr(fd, err)
		}
		v, err := strconv.ParseInt(n, 10, 32)
		if err != nil {
			return Value{}, decodeErr("InvalidValue", "field %s: invalid int32 %q", fd.FullName(), n)
		}
		return Int32Value(int32(v)), nil
	case wireformat.KindUint32, wireformat.KindFixed32:
		n, err := numberFromJSON(raw)
		if err != nil {
			return Value{}, wrapFieldErr(fd, err)
		}
		v, err := strconv.ParseUint(n, 10, 32)
		if err != nil {
			return Value{}, decodeErr("InvalidValue", "field %s: invalid uint32 %q", fd.FullName(), n)
		}
		return Uint32Value(uint32(v)), nil
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		n, err := numberFromJSON(raw)
		if err != nil {
			return Value{}, wrapFieldErr(fd, err)
		}
		v, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return Value{}, decodeErr("InvalidValue", "field %s: invalid int64 %q", fd.FullName(), n)
		}
		return Int64Value(v), nil
	case wireformat.KindUint64, wireformat.KindFixed64:
		n, err := numberFromJSON(raw)
		if err != nil {
			return Value{}, wrapFieldErr(fd, err)
		}
		v, err := strconv.ParseUint(n, 10, 64)
		if err != nil {
			return Value{}, decodeErr("InvalidValue", "field %s: invalid uint64 %q", fd.FullName(), n)
		}
		return Uint64Value(v), nil
	case wireformat.KindFloat:
		f, err := floatFromJSON(raw)
		if err != nil {
			return Value{}, wrapFieldErr(fd, err)
		}
		return Float32Value(float32(f)), nil
	case wireformat.KindDouble:
		f, err := floatFromJSON(raw)
		if err != nil {
			return Value{}, wrapFieldErr(fd, err)
		}
		return Float64Value(f), nil
	default:
		return Value{}, decodeErr("InvalidValue", "field %s: cannot unmarshal kind %s", fd.FullName(), fd.Kind())
	}
}

func wrapFieldErr(fd *protodesc.FieldDescriptor, err error) error {
	return decodeErr("InvalidValue", "field %s: %v", fd.FullName(), err)
}

// numberFromJSON accepts either a bare JSON number or a quoted numeric
// string, matching protojson's leniency for integer field input.
func numberFromJSON(raw interface{}) (string, error) {
	switch t := raw.(type) {
	case json.Number:
		return string(t), nil
	case string:
		return t, nil
	default:
		return "", decodeErr("InvalidValue", "expected a number or numeric string")
	}
}

func floatFromJSON(raw interface{}) (float64, error) {
	switch t := raw.(type) {
	case json.Number:
		return t.Float64()
	case string:
		switch t {
		case "NaN":
			return nan, nil
		case "Infinity":
			return posInf, nil
		case "-Infinity":
			return negInf, nil
		}
		return strconv.ParseFloat(t, 64)
	default:
		return 0, decodeErr("InvalidValue", "expected a number or numeric string")
	}
}

func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}

func (o UnmarshalOptions) unmarshalValueWKT(raw interface{}, m *Message) error {
	md := m.Descriptor()
	switch t := raw.(type) {
	case nil:
		return m.TrySetField(md.FieldByNumber(1), EnumValue(0))
	case bool:
		return m.TrySetField(md.FieldByNumber(4), BoolValue(t))
	case string:
		return m.TrySetField(md.FieldByNumber(3), StringValue(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return decodeErr("InvalidValue", "invalid Value number %q", t)
		}
		return m.TrySetField(md.FieldByNumber(2), Float64Value(f))
	case map[string]interface{}:
		sub := NewMessage(md.FieldByNumber(5).MessageType())
		if err := o.unmarshalMessage(t, sub); err != nil {
			return err
		}
		return m.TrySetField(md.FieldByNumber(5), MessageValue(sub))
	case []interface{}:
		sub := NewMessage(md.FieldByNumber(6).MessageType())
		if err := o.unmarshalMessage(t, sub); err != nil {
			return err
		}
		return m.TrySetField(md.FieldByNumber(6), MessageValue(sub))
	default:
		return decodeErr("InvalidValue", "unsupported JSON value for google.protobuf.Value")
	}
}

func (o UnmarshalOptions) unmarshalStructWKT(raw interface{}, m *Message) error {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return decodeErr("InvalidValue", "Struct must be a JSON object")
	}
	fd := m.Descriptor().FieldByNumber(1)
	vfd := fd.MessageType().MapValueField()
	mp := make(map[MapKey]Value, len(obj))
	for k, rv := range obj {
		sub := NewMessage(vfd.MessageType())
		if err := o.unmarshalMessage(rv, sub); err != nil {
			return err
		}
		mp[StringMapKey(k)] = MessageValue(sub)
	}
	return m.TrySetField(fd, MapValueOf(mp))
}

func (o UnmarshalOptions) unmarshalListValueWKT(raw interface{}, m *Message) error {
	arr, ok := raw.([]interface{})
	if !ok {
		return decodeErr("InvalidValue", "ListValue must be a JSON array")
	}
	fd := m.Descriptor().FieldByNumber(1)
	list := make([]Value, len(arr))
	for i, e := range arr {
		sub := NewMessage(fd.MessageType())
		if err := o.unmarshalMessage(e, sub); err != nil {
			return err
		}
		list[i] = MessageValue(sub)
	}
	return m.TrySetField(fd, ListValue(list))
}

func (o UnmarshalOptions) unmarshalAny(raw interface{}, m *Message) error {
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return decodeErr("InvalidValue", "Any must be a JSON object")
	}
	typeURLRaw, ok := obj["@type"]
	if !ok {
		return decodeErr("InvalidValue", "Any is missing \"@type\"")
	}
	typeURL, ok := typeURLRaw.(string)
	if !ok {
		return decodeErr("InvalidValue", "Any \"@type\" must be a string")
	}
	if o.Resolver == nil {
		return decodeErr("InvalidValue", "cannot unmarshal Any %q without a Resolver", typeURL)
	}
	full := typeURL
	if i := strings.LastIndexByte(full, '/'); i >= 0 {
		full = full[i+1:]
	}
	md := o.Resolver.FindMessage(full)
	if md == nil {
		return decodeErr("InvalidValue", "Any: unknown message type %q", full)
	}
	inner := NewMessage(md)
	if isWellKnownType(full) {
		if err := o.unmarshalMessage(obj["value"], inner); err != nil {
			return err
		}
	} else {
		flat := make(map[string]interface{}, len(obj)-1)
		for k, v := range obj {
			if k == "@type" {
				continue
			}
			flat[k] = v
		}
		if err := o.unmarshalMessage(flat, inner); err != nil {
			return err
		}
	}
	raw2, err := Marshal(inner)
	if err != nil {
		return err
	}
	m.SetField(m.Descriptor().FieldByNumber(1), StringValue(typeURL))
	m.SetField(m.Descriptor().FieldByNumber(2), BytesValue(raw2))
	return nil
}
