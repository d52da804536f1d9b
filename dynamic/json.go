package dynamic

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/protoval/protoreflect/protodesc"
	"github.com/protoval/protoreflect/wireformat"
)

// MarshalOptions configures canonical JSON encoding of a dynamic Message,
// mirroring google.golang.org/protobuf/encoding/protojson's option set
// (EmitUnpopulated/UseProtoNames) rather than inventing new names, since
// that is the idiom the wider protobuf-for-Go ecosystem already expects.
type MarshalOptions struct {
	// EmitUnpopulated includes fields at their default value instead of
	// omitting them (oneof members are still omitted unless populated).
	EmitUnpopulated bool
	// UseProtoNames emits each field's declared name instead of its
	// camelCase JSON name.
	UseProtoNames bool
	// Resolver is consulted to look up google.protobuf.Any's embedded
	// message type by type URL. Required only when marshaling a message
	// containing an Any field.
	Resolver *protodesc.Pool
}

// MarshalJSON encodes m to its canonical JSON representation using
// default options (camelCase names, unpopulated fields omitted).
func MarshalJSON(m *Message) ([]byte, error) { return MarshalOptions{}.Marshal(m) }

// Marshal encodes m to JSON per o.
func (o MarshalOptions) Marshal(m *Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.marshalMessage(&buf, m); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o MarshalOptions) marshalMessage(buf *bytes.Buffer, m *Message) error {
	if m == nil {
		buf.WriteString("null")
		return nil
	}
	full := m.Descriptor().FullName()
	switch full {
	case wktTimestamp:
		s, err := formatTimestamp(m)
		if err != nil {
			return err
		}
		return writeJSONString(buf, s)
	case wktDuration:
		s, err := formatDuration(m)
		if err != nil {
			return err
		}
		return writeJSONString(buf, s)
	case wktEmpty:
		buf.WriteString("{}")
		return nil
	case wktFieldMask:
		return o.marshalFieldMask(buf, m)
	case wktValue:
		return o.marshalValueWKT(buf, m)
	case wktStruct:
		return o.marshalStructWKT(buf, m)
	case wktListValue:
		return o.marshalListValueWKT(buf, m)
	case wktAny:
		return o.marshalAny(buf, m)
	}
	if wrapperTypes[full] {
		fd := m.Descriptor().FieldByNumber(1)
		return o.marshalScalarValue(buf, fd, m.GetField(fd))
	}

	buf.WriteByte('{')
	first := true
	for _, fd := range o.fieldsToEmit(m) {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		name := fd.JSONName()
		if o.UseProtoNames {
			name = fd.Name()
		}
		if err := writeJSONString(buf, name); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := o.marshalFieldValue(buf, fd, m.GetField(fd)); err != nil {
			return err
		}
	}
	for _, fd := range m.Extensions() {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		if err := writeJSONString(buf, "["+fd.FullName()+"]"); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := o.marshalFieldValue(buf, fd, m.GetField(fd)); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func (o MarshalOptions) fieldsToEmit(m *Message) []*protodesc.FieldDescriptor {
	var out []*protodesc.FieldDescriptor
	for _, fd := range m.Descriptor().Fields() {
		if oo := fd.ContainingOneof(); oo != nil && !oo.IsSynthetic() {
			if m.HasField(fd) {
				out = append(out, fd)
			}
			continue
		}
		if o.EmitUnpopulated || m.HasField(fd) {
			out = append(out, fd)
		}
	}
	return out
}

func (o MarshalOptions) marshalFieldValue(buf *bytes.Buffer, fd *protodesc.FieldDescriptor, v Value) error {
	if fd.IsMap() {
		return o.marshalMapValue(buf, fd, v)
	}
	if fd.IsRepeated() {
		buf.WriteByte('[')
		for i, e := range v.List() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := o.marshalScalarValue(buf, fd, e); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	return o.marshalScalarValue(buf, fd, v)
}

func (o MarshalOptions) marshalMapValue(buf *bytes.Buffer, fd *protodesc.FieldDescriptor, v Value) error {
	md := fd.MessageType()
	vfd := md.MapValueField()
	mp := v.Map()
	keys := make([]MapKey, 0, len(mp))
	for k := range mp {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return mapKeyLess(keys[i], keys[j]) })
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeJSONString(buf, mapKeyToJSONString(k)); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := o.marshalScalarValue(buf, vfd, mp[k]); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func mapKeyToJSONString(k MapKey) string {
	switch k.Kind() {
	case MapKeyKindBool:
		if k.Bool() {
			return "true"
		}
		return "false"
	case MapKeyKindString:
		return k.String()
	case MapKeyKindInt32:
		return strconv.FormatInt(int64(k.Int32()), 10)
	case MapKeyKindInt64:
		return strconv.FormatInt(k.Int64(), 10)
	case MapKeyKindUint32:
		return strconv.FormatUint(uint64(k.Uint32()), 10)
	default:
		return strconv.FormatUint(k.Uint64(), 10)
	}
}

func (o MarshalOptions) marshalScalarValue(buf *bytes.Buffer, fd *protodesc.FieldDescriptor, v Value) error {
	switch fd.Kind() {
	case wireformat.KindMessage, wireformat.KindGroup:
		return o.marshalMessage(buf, v.Message())
	case wireformat.KindEnum:
		if evd := fd.EnumType().ValueByNumber(v.EnumNumber()); evd != nil {
			return writeJSONString(buf, evd.Name())
		}
		buf.WriteString(strconv.FormatInt(int64(v.EnumNumber()), 10))
		return nil
	case wireformat.KindBool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case wireformat.KindString:
		return writeJSONString(buf, v.String())
	case wireformat.KindBytes:
		return writeJSONString(buf, base64.StdEncoding.EncodeToString(v.Bytes()))
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		buf.WriteString(strconv.FormatInt(int64(v.Int32()), 10))
		return nil
	case wireformat.KindUint32, wireformat.KindFixed32:
		buf.WriteString(strconv.FormatUint(uint64(v.Uint32()), 10))
		return nil
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		return writeJSONString(buf, strconv.FormatInt(v.Int64(), 10))
	case wireformat.KindUint64, wireformat.KindFixed64:
		return writeJSONString(buf, strconv.FormatUint(v.Uint64(), 10))
	case wireformat.KindFloat:
		return writeJSONFloat(buf, float64(v.Float32()))
	case wireformat.KindDouble:
		return writeJSONFloat(buf, v.Float64())
	default:
		return decodeErr("InvalidValue", "cannot marshal kind %s to JSON", fd.Kind())
	}
}

func writeJSONFloat(buf *bytes.Buffer, f float64) error {
	switch {
	case math.IsNaN(f):
		return writeJSONString(buf, "NaN")
	case math.IsInf(f, 1):
		return writeJSONString(buf, "Infinity")
	case math.IsInf(f, -1):
		return writeJSONString(buf, "-Infinity")
	default:
		buf.WriteString(strconv.FormatFloat(f, 'g', -1, 64))
		return nil
	}
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func (o MarshalOptions) marshalFieldMask(buf *bytes.Buffer, m *Message) error {
	fd := m.Descriptor().FieldByNumber(1)
	paths := m.GetField(fd).List()
	parts := make([]string, len(paths))
	for i, p := range paths {
		parts[i] = snakeToCamelPath(p.String())
	}
	return writeJSONString(buf, strings.Join(parts, ","))
}

func snakeToCamelPath(path string) string {
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		segs[i] = snakeToCamel(seg)
	}
	return strings.Join(segs, ".")
}

func snakeToCamel(s string) string {
	var b strings.Builder
	upperNext := false
	for _, r := range s {
		if r == '_' {
			upperNext = true
			continue
		}
		if upperNext && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		upperNext = false
		b.WriteRune(r)
	}
	return b.String()
}

func camelToSnakePath(path string) string {
	segs := strings.Split(path, ".")
	for i, seg := range segs {
		segs[i] = camelToSnake(seg)
	}
	return strings.Join(segs, ".")
}

func camelToSnake(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			b.WriteByte('_')
			b.WriteRune(r - ('A' - 'a'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (o MarshalOptions) marshalValueWKT(buf *bytes.Buffer, m *Message) error {
	switch {
	case m.HasFieldNumber(2):
		v, _ := m.GetFieldByNumber(2)
		return writeJSONFloat(buf, v.Float64())
	case m.HasFieldNumber(3):
		v, _ := m.GetFieldByNumber(3)
		return writeJSONString(buf, v.String())
	case m.HasFieldNumber(4):
		v, _ := m.GetFieldByNumber(4)
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
		return nil
	case m.HasFieldNumber(5):
		v, _ := m.GetFieldByNumber(5)
		return o.marshalMessage(buf, v.Message())
	case m.HasFieldNumber(6):
		v, _ := m.GetFieldByNumber(6)
		return o.marshalMessage(buf, v.Message())
	default:
		buf.WriteString("null")
		return nil
	}
}

func (o MarshalOptions) marshalStructWKT(buf *bytes.Buffer, m *Message) error {
	fd := m.Descriptor().FieldByNumber(1)
	return o.marshalMapValue(buf, fd, m.GetField(fd))
}

func (o MarshalOptions) marshalListValueWKT(buf *bytes.Buffer, m *Message) error {
	fd := m.Descriptor().FieldByNumber(1)
	buf.WriteByte('[')
	for i, e := range m.GetField(fd).List() {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := o.marshalMessage(buf, e.Message()); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func (o MarshalOptions) marshalAny(buf *bytes.Buffer, m *Message) error {
	typeURLFd := m.Descriptor().FieldByNumber(1)
	valueFd := m.Descriptor().FieldByNumber(2)
	typeURL := m.GetField(typeURLFd).String()
	raw := m.GetField(valueFd).Bytes()

	if o.Resolver == nil {
		return decodeErr("InvalidValue", "cannot marshal Any %q without a Resolver", typeURL)
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
	if err := Unmarshal(raw, inner); err != nil {
		return err
	}
	if isWellKnownType(full) {
		buf.WriteByte('{')
		if err := writeJSONString(buf, "@type"); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSONString(buf, typeURL); err != nil {
			return err
		}
		buf.WriteByte(',')
		if err := writeJSONString(buf, "value"); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := o.marshalMessage(buf, inner); err != nil {
			return err
		}
		buf.WriteByte('}')
		return nil
	}
	// flatten: emit "@type" alongside the inner message's own fields.
	var innerBuf bytes.Buffer
	if err := o.marshalMessage(&innerBuf, inner); err != nil {
		return err
	}
	innerJSON := innerBuf.Bytes()
	buf.WriteByte('{')
	if err := writeJSONString(buf, "@type"); err != nil {
		return err
	}
	buf.WriteByte(':')
	if err := writeJSONString(buf, typeURL); err != nil {
		return err
	}
	if len(innerJSON) > 2 { // more than "{}"
		buf.WriteByte(',')
		buf.Write(innerJSON[1 : len(innerJSON)-1])
	}
	buf.WriteByte('}')
	return nil
}
