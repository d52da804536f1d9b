package protodesc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoval/protoreflect/wireformat"
)

// FieldDescriptor describes a single field, either a normal member of a
// message or an extension (when Extendee() is non-nil).
type FieldDescriptor struct {
	proto  *descriptorpb.FieldDescriptorProto
	file   *FileDescriptor
	parent Descriptor
	full   string
	p      []int32

	kind        wireformat.Kind
	enumType    *EnumDescriptor
	msgType     *MessageDescriptor
	oneof       *OneofDescriptor
	extendee    *MessageDescriptor
	extendeeName string
	opts        optionSet
}

// CustomOption returns the interpreted value of a custom field option.
func (fd *FieldDescriptor) CustomOption(name string) (interface{}, bool) { return fd.opts.CustomOption(name) }

var typeToKind = map[descriptorpb.FieldDescriptorProto_Type]wireformat.Kind{
	descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:   wireformat.KindDouble,
	descriptorpb.FieldDescriptorProto_TYPE_FLOAT:    wireformat.KindFloat,
	descriptorpb.FieldDescriptorProto_TYPE_INT64:    wireformat.KindInt64,
	descriptorpb.FieldDescriptorProto_TYPE_UINT64:   wireformat.KindUint64,
	descriptorpb.FieldDescriptorProto_TYPE_INT32:    wireformat.KindInt32,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED64:  wireformat.KindFixed64,
	descriptorpb.FieldDescriptorProto_TYPE_FIXED32:  wireformat.KindFixed32,
	descriptorpb.FieldDescriptorProto_TYPE_BOOL:     wireformat.KindBool,
	descriptorpb.FieldDescriptorProto_TYPE_STRING:   wireformat.KindString,
	descriptorpb.FieldDescriptorProto_TYPE_GROUP:    wireformat.KindGroup,
	descriptorpb.FieldDescriptorProto_TYPE_MESSAGE:  wireformat.KindMessage,
	descriptorpb.FieldDescriptorProto_TYPE_BYTES:    wireformat.KindBytes,
	descriptorpb.FieldDescriptorProto_TYPE_UINT32:   wireformat.KindUint32,
	descriptorpb.FieldDescriptorProto_TYPE_ENUM:     wireformat.KindEnum,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED32: wireformat.KindSfixed32,
	descriptorpb.FieldDescriptorProto_TYPE_SFIXED64: wireformat.KindSfixed64,
	descriptorpb.FieldDescriptorProto_TYPE_SINT32:   wireformat.KindSint32,
	descriptorpb.FieldDescriptorProto_TYPE_SINT64:   wireformat.KindSint64,
}

func newShallowField(file *FileDescriptor, parent Descriptor, scopePrefix string, fp *descriptorpb.FieldDescriptorProto) *FieldDescriptor {
	fd := &FieldDescriptor{
		proto:  fp,
		file:   file,
		parent: parent,
		full:   fullName(scopePrefix, fp.GetName()),
		kind:   typeToKind[fp.GetType()],
	}
	if fp.Extendee != nil {
		fd.extendeeName = strip1stDot(fp.GetExtendee())
	}
	return fd
}

func strip1stDot(s string) string {
	if len(s) > 0 && s[0] == '.' {
		return s[1:]
	}
	return s
}

func resolveField(fd *FieldDescriptor, path []int32, resolve resolverFunc) error {
	fd.p = path
	scopes := enclosingScopes(scopeContext(fd.parent))

	switch fd.kind {
	case wireformat.KindMessage, wireformat.KindGroup:
		d, err := resolveTypeName(resolve, scopes, fd.proto.GetTypeName())
		if err != nil {
			return withFile(err, fd.file.Name())
		}
		md, ok := d.(*MessageDescriptor)
		if !ok {
			return newError(fd.file.Name(), UnresolvedName, "field %s: %s is not a message type", fd.full, fd.proto.GetTypeName())
		}
		fd.msgType = md
	case wireformat.KindEnum:
		d, err := resolveTypeName(resolve, scopes, fd.proto.GetTypeName())
		if err != nil {
			return withFile(err, fd.file.Name())
		}
		ed, ok := d.(*EnumDescriptor)
		if !ok {
			return newError(fd.file.Name(), UnresolvedName, "field %s: %s is not an enum type", fd.full, fd.proto.GetTypeName())
		}
		fd.enumType = ed
	}

	if fd.proto.Extendee != nil {
		d, err := resolveTypeName(resolve, scopes, fd.proto.GetExtendee())
		if err != nil {
			return withFile(err, fd.file.Name())
		}
		md, ok := d.(*MessageDescriptor)
		if !ok {
			return newError(fd.file.Name(), UnresolvedName, "extension %s: %s is not a message type", fd.full, fd.proto.GetExtendee())
		}
		fd.extendee = md
		fd.extendeeName = md.FullName()
	}

	if oo := fd.proto.OneofIndex; oo != nil && fd.parent != nil {
		if md, ok := fd.parent.(*MessageDescriptor); ok && int(*oo) < len(md.oneofs) {
			fd.oneof = md.oneofs[*oo]
			fd.oneof.fields = append(fd.oneof.fields, fd)
		}
	}
	return nil
}

func withFile(err error, file string) error {
	if e, ok := err.(*Error); ok {
		e.File = file
		return e
	}
	return err
}

func scopeContext(parent Descriptor) string {
	switch p := parent.(type) {
	case *MessageDescriptor:
		return p.full
	case *FileDescriptor:
		return p.Package()
	default:
		return ""
	}
}

func (fd *FieldDescriptor) Name() string      { return fd.proto.GetName() }
func (fd *FieldDescriptor) FullName() string  { return fd.full }
func (fd *FieldDescriptor) Parent() Descriptor { return fd.parent }
func (fd *FieldDescriptor) ParentFile() *FileDescriptor { return fd.file }
func (fd *FieldDescriptor) Options() proto.Message { return fd.proto.GetOptions() }
func (fd *FieldDescriptor) AsProto() proto.Message { return fd.proto }
func (fd *FieldDescriptor) path() []int32          { return fd.p }
func (fd *FieldDescriptor) SourceLocation() (SourceLocation, bool) {
	if loc := fd.file.srcInfo.lookup(fd.p); loc != nil {
		return *loc, true
	}
	return SourceLocation{}, false
}

// Number returns the field's wire number.
func (fd *FieldDescriptor) Number() int32 { return fd.proto.GetNumber() }

// JSONName returns the field's JSON name, defaulting to the lower-camel
// case of its declared name when json_name is absent.
func (fd *FieldDescriptor) JSONName() string {
	if fd.proto.JsonName != nil {
		return fd.proto.GetJsonName()
	}
	return jsonNameFromFieldName(fd.proto.GetName())
}

// Kind returns the field's scalar/message/enum/group kind.
func (fd *FieldDescriptor) Kind() wireformat.Kind { return fd.kind }

// Cardinality returns Optional, Required or Repeated.
func (fd *FieldDescriptor) Cardinality() wireformat.Cardinality {
	switch fd.proto.GetLabel() {
	case descriptorpb.FieldDescriptorProto_LABEL_REQUIRED:
		return wireformat.Required
	case descriptorpb.FieldDescriptorProto_LABEL_REPEATED:
		return wireformat.Repeated
	default:
		return wireformat.Optional
	}
}

// IsRepeated reports whether this is a repeated (including map) field.
func (fd *FieldDescriptor) IsRepeated() bool { return fd.Cardinality() == wireformat.Repeated }

// IsMap reports whether this is a map field: repeated, message-typed, and
// whose message type is a synthetic map-entry.
func (fd *FieldDescriptor) IsMap() bool {
	return fd.IsRepeated() && fd.msgType != nil && fd.msgType.IsMapEntry()
}

// EnumType returns the target enum descriptor for Kind() == KindEnum.
func (fd *FieldDescriptor) EnumType() *EnumDescriptor { return fd.enumType }

// MessageType returns the target message descriptor for Kind() ==
// KindMessage or KindGroup.
func (fd *FieldDescriptor) MessageType() *MessageDescriptor { return fd.msgType }

// ContainingOneof returns the oneof this field belongs to, or nil.
func (fd *FieldDescriptor) ContainingOneof() *OneofDescriptor { return fd.oneof }

// Extendee returns the message this field extends, or nil if this isn't
// an extension.
func (fd *FieldDescriptor) Extendee() *MessageDescriptor { return fd.extendee }

// IsExtension reports whether this field declares an extendee.
func (fd *FieldDescriptor) IsExtension() bool { return fd.proto.Extendee != nil }

// HasExplicitPresence reports whether an unset singular scalar field is
// distinguishable from one explicitly set to its default: true for
// everything in proto2, and for proto3 fields marked `optional` (synthetic
// oneof) or of message kind.
func (fd *FieldDescriptor) HasExplicitPresence() bool {
	if fd.kind == wireformat.KindMessage || fd.kind == wireformat.KindGroup {
		return true
	}
	if fd.IsRepeated() {
		return false
	}
	if fd.file.Syntax() != SyntaxProto3 {
		return true
	}
	return fd.proto.GetProto3Optional()
}

// IsPacked reports whether a packable repeated scalar field is packed by
// default given the file's syntax and any explicit packed option.
func (fd *FieldDescriptor) IsPacked() bool {
	if !fd.IsRepeated() {
		return false
	}
	if _, ok := wireformat.PackableWireType(fd.kind); !ok {
		return false
	}
	if opts := fd.proto.GetOptions(); opts != nil && opts.Packed != nil {
		return opts.GetPacked()
	}
	return fd.file.Syntax() == SyntaxProto3
}

// DefaultValueString returns the raw default_value string from the
// descriptor proto (proto2 explicit defaults), or "" if unset.
func (fd *FieldDescriptor) DefaultValueString() string { return fd.proto.GetDefaultValue() }
