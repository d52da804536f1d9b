// Package textformat implements a minimal protobuf text format
// marshaler/unmarshaler over dynamic messages: field_name: value pairs,
// nested messages in braces, repeated fields as repeated entries. It
// exists to give aggregate uninterpreted_option values and Any debug
// strings somewhere to round-trip through, the way
// google.golang.org/protobuf/encoding/prototext does for generated
// messages; jhump/protoreflect's dynamic package never grew a standalone
// text.go (its Message instead piggybacked golang/protobuf's text
// marshaler through a generated-message adapter), so this is modeled
// directly on the protobuf text format grammar rather than one specific
// teacher file.
package textformat

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/protoval/protoreflect/dynamic"
	"github.com/protoval/protoreflect/protodesc"
	"github.com/protoval/protoreflect/wireformat"
)

// MarshalOptions configures text-format encoding.
type MarshalOptions struct {
	// Indent, when non-empty, is used per nesting level instead of
	// writing everything on one line.
	Indent string
}

// Marshal encodes m in protobuf text format using default (single-line)
// options.
func Marshal(m *dynamic.Message) ([]byte, error) { return MarshalOptions{}.Marshal(m) }

// MarshalIndent encodes m in protobuf text format with each field on its
// own, indented line.
func MarshalIndent(m *dynamic.Message) ([]byte, error) {
	return MarshalOptions{Indent: "  "}.Marshal(m)
}

// Marshal encodes m per o.
func (o MarshalOptions) Marshal(m *dynamic.Message) ([]byte, error) {
	var buf bytes.Buffer
	if err := o.writeMessage(&buf, m, 0); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (o MarshalOptions) nl(buf *bytes.Buffer, depth int) {
	if o.Indent == "" {
		buf.WriteByte(' ')
		return
	}
	buf.WriteByte('\n')
	for i := 0; i < depth; i++ {
		buf.WriteString(o.Indent)
	}
}

func (o MarshalOptions) writeMessage(buf *bytes.Buffer, m *dynamic.Message, depth int) error {
	fields := append(append([]*protodesc.FieldDescriptor{}, m.Fields()...), m.Extensions()...)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Number() < fields[j].Number() })
	for i, fd := range fields {
		if i > 0 {
			o.nl(buf, depth)
		}
		name := fd.Name()
		if fd.IsExtension() {
			name = "[" + fd.FullName() + "]"
		}
		v := m.GetField(fd)
		if fd.IsMap() {
			if err := o.writeMapField(buf, fd, name, v, depth); err != nil {
				return err
			}
			continue
		}
		if fd.IsRepeated() {
			for j, e := range v.List() {
				if j > 0 {
					o.nl(buf, depth)
				}
				if err := o.writeField(buf, name, fd, e, depth); err != nil {
					return err
				}
			}
			continue
		}
		if err := o.writeField(buf, name, fd, v, depth); err != nil {
			return err
		}
	}
	return nil
}

func (o MarshalOptions) writeMapField(buf *bytes.Buffer, fd *protodesc.FieldDescriptor, name string, v dynamic.Value, depth int) error {
	entryMd := fd.MessageType()
	vfd := entryMd.MapValueField()
	mp := v.Map()
	first := true
	for k, val := range mp {
		if !first {
			o.nl(buf, depth)
		}
		first = false
		buf.WriteString(name)
		buf.WriteString(" { ")
		fmt.Fprintf(buf, "key: %s value: ", mapKeyText(k))
		if err := o.writeScalar(buf, vfd, val); err != nil {
			return err
		}
		buf.WriteString(" }")
	}
	return nil
}

func mapKeyText(k dynamic.MapKey) string {
	switch k.Kind() {
	case dynamic.MapKeyKindString:
		return strconv.Quote(k.String())
	case dynamic.MapKeyKindBool:
		return strconv.FormatBool(k.Bool())
	case dynamic.MapKeyKindInt32:
		return strconv.FormatInt(int64(k.Int32()), 10)
	case dynamic.MapKeyKindInt64:
		return strconv.FormatInt(k.Int64(), 10)
	case dynamic.MapKeyKindUint32:
		return strconv.FormatUint(uint64(k.Uint32()), 10)
	default:
		return strconv.FormatUint(k.Uint64(), 10)
	}
}

func (o MarshalOptions) writeField(buf *bytes.Buffer, name string, fd *protodesc.FieldDescriptor, v dynamic.Value, depth int) error {
	buf.WriteString(name)
	if fd.Kind() == wireformat.KindMessage || fd.Kind() == wireformat.KindGroup {
		buf.WriteString(" {")
		o.nl(buf, depth+1)
		if v.Message() != nil {
			if err := o.writeMessage(buf, v.Message(), depth+1); err != nil {
				return err
			}
		}
		o.nl(buf, depth)
		buf.WriteString("}")
		return nil
	}
	buf.WriteString(": ")
	return o.writeScalar(buf, fd, v)
}

func (o MarshalOptions) writeScalar(buf *bytes.Buffer, fd *protodesc.FieldDescriptor, v dynamic.Value) error {
	switch fd.Kind() {
	case wireformat.KindMessage, wireformat.KindGroup:
		buf.WriteString("{ ")
		if v.Message() != nil {
			if err := o.writeMessage(buf, v.Message(), 0); err != nil {
				return err
			}
		}
		buf.WriteString(" }")
	case wireformat.KindEnum:
		if evd := fd.EnumType().ValueByNumber(v.EnumNumber()); evd != nil {
			buf.WriteString(evd.Name())
		} else {
			buf.WriteString(strconv.FormatInt(int64(v.EnumNumber()), 10))
		}
	case wireformat.KindBool:
		buf.WriteString(strconv.FormatBool(v.Bool()))
	case wireformat.KindString:
		buf.WriteString(strconv.Quote(v.String()))
	case wireformat.KindBytes:
		buf.WriteByte('"')
		buf.WriteString(base64.StdEncoding.EncodeToString(v.Bytes()))
		buf.WriteByte('"')
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		buf.WriteString(strconv.FormatInt(int64(v.Int32()), 10))
	case wireformat.KindUint32, wireformat.KindFixed32:
		buf.WriteString(strconv.FormatUint(uint64(v.Uint32()), 10))
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		buf.WriteString(strconv.FormatInt(v.Int64(), 10))
	case wireformat.KindUint64, wireformat.KindFixed64:
		buf.WriteString(strconv.FormatUint(v.Uint64(), 10))
	case wireformat.KindFloat:
		buf.WriteString(strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32))
	case wireformat.KindDouble:
		buf.WriteString(strconv.FormatFloat(v.Float64(), 'g', -1, 64))
	default:
		return fmt.Errorf("textformat: cannot marshal kind %s", fd.Kind())
	}
	return nil
}

// Unmarshal parses a limited subset of protobuf text format into m:
// `name: value` and `name { ... }` entries, repeated fields as repeated
// entries, bracketed extension names. It is meant for round-tripping
// output this package produces, not for accepting arbitrary
// hand-written .textproto input. A bracketed extension name resolves only
// to an extension already populated on m; any other bracketed name is
// reported as an unknown field.
func Unmarshal(data []byte, m *dynamic.Message) error {
	p := &textParser{s: string(data)}
	return p.parseMessage(m, false)
}

type textParser struct {
	s   string
	pos int
}

func (p *textParser) skipSpace() {
	for p.pos < len(p.s) {
		c := p.s[p.pos]
		if c == ' ' || c == '\n' || c == '\t' || c == '\r' {
			p.pos++
			continue
		}
		break
	}
}

func (p *textParser) eof() bool {
	p.skipSpace()
	return p.pos >= len(p.s)
}

func (p *textParser) parseMessage(m *dynamic.Message, nested bool) error {
	for {
		p.skipSpace()
		if p.pos >= len(p.s) {
			if nested {
				return fmt.Errorf("textformat: unterminated message")
			}
			return nil
		}
		if p.s[p.pos] == '}' {
			if !nested {
				return fmt.Errorf("textformat: unexpected '}'")
			}
			p.pos++
			return nil
		}
		name, isExt, err := p.parseFieldName()
		if err != nil {
			return err
		}
		var fd *protodesc.FieldDescriptor
		if isExt {
			for _, f := range m.Extensions() {
				if f.FullName() == name {
					fd = f
				}
			}
		} else {
			fd = m.Descriptor().FieldByName(name)
		}
		if fd == nil {
			return fmt.Errorf("textformat: message %s has no field %q", m.Descriptor().FullName(), name)
		}
		p.skipSpace()
		if fd.IsMap() {
			if err := p.parseMapEntry(m, fd); err != nil {
				return err
			}
			continue
		}
		v, err := p.parseValue(fd)
		if err != nil {
			return err
		}
		if fd.IsRepeated() {
			existing := m.GetField(fd)
			list := append(append([]dynamic.Value{}, existing.List()...), v)
			if err := m.TrySetField(fd, dynamic.ListValue(list)); err != nil {
				return err
			}
		} else if err := m.TrySetField(fd, v); err != nil {
			return err
		}
	}
}

func (p *textParser) parseFieldName() (name string, isExt bool, err error) {
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == '[' {
		end := strings.IndexByte(p.s[p.pos:], ']')
		if end < 0 {
			return "", false, fmt.Errorf("textformat: unterminated extension name")
		}
		name = p.s[p.pos+1 : p.pos+end]
		p.pos += end + 1
		isExt = true
	} else {
		start := p.pos
		for p.pos < len(p.s) && isIdentByte(p.s[p.pos]) {
			p.pos++
		}
		if p.pos == start {
			return "", false, fmt.Errorf("textformat: expected a field name at offset %d", p.pos)
		}
		name = p.s[start:p.pos]
	}
	p.skipSpace()
	if p.pos < len(p.s) && p.s[p.pos] == ':' {
		p.pos++
	}
	return name, isExt, nil
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (p *textParser) parseMapEntry(m *dynamic.Message, fd *protodesc.FieldDescriptor) error {
	if p.pos >= len(p.s) || p.s[p.pos] != '{' {
		return fmt.Errorf("textformat: expected '{' for map field %s", fd.FullName())
	}
	p.pos++
	entryMd := fd.MessageType()
	kfd, vfd := entryMd.MapKeyField(), entryMd.MapValueField()
	var key dynamic.MapKey
	var val dynamic.Value
	for {
		p.skipSpace()
		if p.pos < len(p.s) && p.s[p.pos] == '}' {
			p.pos++
			break
		}
		name, _, err := p.parseFieldName()
		if err != nil {
			return err
		}
		switch name {
		case "key":
			kv, err := p.parseValue(kfd)
			if err != nil {
				return err
			}
			key, err = mapKeyFromScalar(kfd, kv)
			if err != nil {
				return err
			}
		case "value":
			val, err = p.parseValue(vfd)
			if err != nil {
				return err
			}
		default:
			return fmt.Errorf("textformat: unexpected map entry field %q", name)
		}
	}
	mp := m.GetField(fd).Map()
	newMp := make(map[dynamic.MapKey]dynamic.Value, len(mp)+1)
	for k, v := range mp {
		newMp[k] = v
	}
	newMp[key] = val
	return m.TrySetField(fd, dynamic.MapValueOf(newMp))
}

func mapKeyFromScalar(fd *protodesc.FieldDescriptor, v dynamic.Value) (dynamic.MapKey, error) {
	switch v.Kind() {
	case dynamic.KindBool:
		return dynamic.BoolMapKey(v.Bool()), nil
	case dynamic.KindString:
		return dynamic.StringMapKey(v.String()), nil
	case dynamic.KindInt32:
		return dynamic.Int32MapKey(v.Int32()), nil
	case dynamic.KindInt64:
		return dynamic.Int64MapKey(v.Int64()), nil
	case dynamic.KindUint32:
		return dynamic.Uint32MapKey(v.Uint32()), nil
	case dynamic.KindUint64:
		return dynamic.Uint64MapKey(v.Uint64()), nil
	default:
		return dynamic.MapKey{}, fmt.Errorf("textformat: kind %v is not a valid map key", v.Kind())
	}
}

func (p *textParser) parseValue(fd *protodesc.FieldDescriptor) (dynamic.Value, error) {
	p.skipSpace()
	if fd.Kind() == wireformat.KindMessage || fd.Kind() == wireformat.KindGroup {
		if p.pos >= len(p.s) || p.s[p.pos] != '{' {
			return dynamic.Value{}, fmt.Errorf("textformat: expected '{' for message field %s", fd.FullName())
		}
		p.pos++
		sub := dynamic.NewMessage(fd.MessageType())
		if err := p.parseMessage(sub, true); err != nil {
			return dynamic.Value{}, err
		}
		return dynamic.MessageValue(sub), nil
	}
	start := p.pos
	if p.pos < len(p.s) && p.s[p.pos] == '"' {
		p.pos++
		for p.pos < len(p.s) && p.s[p.pos] != '"' {
			if p.s[p.pos] == '\\' {
				p.pos++
			}
			p.pos++
		}
		if p.pos >= len(p.s) {
			return dynamic.Value{}, fmt.Errorf("textformat: unterminated string literal")
		}
		raw := p.s[start : p.pos+1]
		p.pos++
		unquoted, err := strconv.Unquote(raw)
		if err != nil {
			return dynamic.Value{}, err
		}
		return scalarFromText(fd, unquoted, true)
	}
	for p.pos < len(p.s) && p.s[p.pos] != ' ' && p.s[p.pos] != '\n' && p.s[p.pos] != '\t' && p.s[p.pos] != '}' {
		p.pos++
	}
	return scalarFromText(fd, p.s[start:p.pos], false)
}

func scalarFromText(fd *protodesc.FieldDescriptor, s string, wasQuoted bool) (dynamic.Value, error) {
	switch fd.Kind() {
	case wireformat.KindBool:
		b, err := strconv.ParseBool(s)
		return dynamic.BoolValue(b), err
	case wireformat.KindString:
		return dynamic.StringValue(s), nil
	case wireformat.KindBytes:
		b, err := base64.StdEncoding.DecodeString(s)
		return dynamic.BytesValue(b), err
	case wireformat.KindEnum:
		if evd := fd.EnumType().ValueByName(s); evd != nil {
			return dynamic.EnumValue(evd.Number()), nil
		}
		n, err := strconv.ParseInt(s, 10, 32)
		return dynamic.EnumValue(int32(n)), err
	case wireformat.KindInt32, wireformat.KindSint32, wireformat.KindSfixed32:
		n, err := strconv.ParseInt(s, 10, 32)
		return dynamic.Int32Value(int32(n)), err
	case wireformat.KindUint32, wireformat.KindFixed32:
		n, err := strconv.ParseUint(s, 10, 32)
		return dynamic.Uint32Value(uint32(n)), err
	case wireformat.KindInt64, wireformat.KindSint64, wireformat.KindSfixed64:
		n, err := strconv.ParseInt(s, 10, 64)
		return dynamic.Int64Value(n), err
	case wireformat.KindUint64, wireformat.KindFixed64:
		n, err := strconv.ParseUint(s, 10, 64)
		return dynamic.Uint64Value(n), err
	case wireformat.KindFloat:
		f, err := strconv.ParseFloat(s, 32)
		return dynamic.Float32Value(float32(f)), err
	case wireformat.KindDouble:
		f, err := strconv.ParseFloat(s, 64)
		return dynamic.Float64Value(f), err
	default:
		return dynamic.Value{}, fmt.Errorf("textformat: cannot parse kind %s", fd.Kind())
	}
}
