package protodesc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// OneofDescriptor describes a oneof group: a set of mutually exclusive
// fields of its enclosing message.
type OneofDescriptor struct {
	proto  *descriptorpb.OneofDescriptorProto
	file   *FileDescriptor
	parent *MessageDescriptor
	full   string
	p      []int32

	fields []*FieldDescriptor
	opts   optionSet
}

// CustomOption returns the interpreted value of a custom oneof option.
func (o *OneofDescriptor) CustomOption(name string) (interface{}, bool) { return o.opts.CustomOption(name) }

func (o *OneofDescriptor) Name() string       { return o.proto.GetName() }
func (o *OneofDescriptor) FullName() string   { return o.full }
func (o *OneofDescriptor) Parent() Descriptor { return o.parent }
func (o *OneofDescriptor) ParentFile() *FileDescriptor { return o.file }
func (o *OneofDescriptor) Options() proto.Message      { return o.proto.GetOptions() }
func (o *OneofDescriptor) AsProto() proto.Message      { return o.proto }
func (o *OneofDescriptor) path() []int32               { return o.p }
func (o *OneofDescriptor) SourceLocation() (SourceLocation, bool) {
	if loc := o.file.srcInfo.lookup(o.p); loc != nil {
		return *loc, true
	}
	return SourceLocation{}, false
}

// Fields returns the member fields of this oneof, in declaration order.
func (o *OneofDescriptor) Fields() []*FieldDescriptor { return o.fields }

// IsSynthetic reports whether this oneof was generated by the compiler to
// track presence of a proto3 `optional` field, rather than declared by the
// user directly.
func (o *OneofDescriptor) IsSynthetic() bool {
	return len(o.fields) == 1 && o.fields[0].proto.GetProto3Optional()
}
