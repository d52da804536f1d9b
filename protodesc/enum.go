package protodesc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// EnumDescriptor describes an enum type.
type EnumDescriptor struct {
	proto  *descriptorpb.EnumDescriptorProto
	file   *FileDescriptor
	parent Descriptor
	full   string
	p      []int32

	values        []*EnumValueDescriptor
	byNumber      map[int32]*EnumValueDescriptor // first-declared wins, for allow_alias
	byName        map[string]*EnumValueDescriptor
	reservedRange []ReservedRange
	reservedNames map[string]bool
	opts          optionSet
}

// CustomOption returns the interpreted value of a custom enum option.
func (ed *EnumDescriptor) CustomOption(name string) (interface{}, bool) { return ed.opts.CustomOption(name) }

// EnumValueDescriptor describes one named value of an enum.
type EnumValueDescriptor struct {
	proto  *descriptorpb.EnumValueDescriptorProto
	file   *FileDescriptor
	parent *EnumDescriptor
	full   string
	p      []int32
	opts   optionSet
}

// CustomOption returns the interpreted value of a custom enum-value option.
func (v *EnumValueDescriptor) CustomOption(name string) (interface{}, bool) { return v.opts.CustomOption(name) }

func newEnumDescriptor(file *FileDescriptor, parent Descriptor, scopePrefix string, ep *descriptorpb.EnumDescriptorProto) (*EnumDescriptor, error) {
	ed := &EnumDescriptor{
		proto:         ep,
		file:          file,
		parent:        parent,
		full:          fullName(scopePrefix, ep.GetName()),
		byNumber:      map[int32]*EnumValueDescriptor{},
		byName:        map[string]*EnumValueDescriptor{},
		reservedNames: map[string]bool{},
	}
	for _, rr := range ep.GetReservedRange() {
		ed.reservedRange = append(ed.reservedRange, ReservedRange{rr.GetStart(), rr.GetEnd()})
	}
	for _, rn := range ep.GetReservedName() {
		ed.reservedNames[rn] = true
	}
	for _, v := range ep.GetValue() {
		evd := &EnumValueDescriptor{proto: v, file: file, parent: ed, full: fullName(ed.full, v.GetName())}
		ed.values = append(ed.values, evd)
		if _, dup := ed.byName[v.GetName()]; dup {
			return nil, newError(file.Name(), DuplicateName, "enum %s: duplicate value name %q", ed.full, v.GetName())
		}
		ed.byName[v.GetName()] = evd
		if _, exists := ed.byNumber[v.GetNumber()]; !exists {
			ed.byNumber[v.GetNumber()] = evd
		} else if !ep.GetOptions().GetAllowAlias() {
			return nil, newError(file.Name(), DuplicateEnumValue, "enum %s: duplicate value number %d without allow_alias", ed.full, v.GetNumber())
		}
	}
	return ed, nil
}

func (ed *EnumDescriptor) resolve(path []int32) {
	ed.p = path
	vp := appendPath(path, enumValuesTag)
	for i, v := range ed.values {
		v.p = appendPath(vp, int32(i))
	}
}

func (ed *EnumDescriptor) Name() string       { return ed.proto.GetName() }
func (ed *EnumDescriptor) FullName() string   { return ed.full }
func (ed *EnumDescriptor) Parent() Descriptor { return ed.parent }
func (ed *EnumDescriptor) ParentFile() *FileDescriptor { return ed.file }
func (ed *EnumDescriptor) Options() proto.Message      { return ed.proto.GetOptions() }
func (ed *EnumDescriptor) AsProto() proto.Message      { return ed.proto }
func (ed *EnumDescriptor) path() []int32               { return ed.p }
func (ed *EnumDescriptor) SourceLocation() (SourceLocation, bool) {
	if loc := ed.file.srcInfo.lookup(ed.p); loc != nil {
		return *loc, true
	}
	return SourceLocation{}, false
}

// Values returns the enum's values in declaration order.
func (ed *EnumDescriptor) Values() []*EnumValueDescriptor { return ed.values }

// AllowAlias reports whether duplicate numeric values are permitted.
func (ed *EnumDescriptor) AllowAlias() bool { return ed.proto.GetOptions().GetAllowAlias() }

// ValueByNumber returns the first-declared value with the given number
// (relevant when AllowAlias permits duplicates), or nil.
func (ed *EnumDescriptor) ValueByNumber(n int32) *EnumValueDescriptor { return ed.byNumber[n] }

// ValueByName returns the value with the given name, or nil.
func (ed *EnumDescriptor) ValueByName(name string) *EnumValueDescriptor { return ed.byName[name] }

// ReservedRanges returns number ranges reserved against reuse.
func (ed *EnumDescriptor) ReservedRanges() []ReservedRange { return ed.reservedRange }

func (v *EnumValueDescriptor) Name() string       { return v.proto.GetName() }
func (v *EnumValueDescriptor) FullName() string   { return v.full }
func (v *EnumValueDescriptor) Parent() Descriptor { return v.parent }
func (v *EnumValueDescriptor) ParentFile() *FileDescriptor { return v.file }
func (v *EnumValueDescriptor) Options() proto.Message      { return v.proto.GetOptions() }
func (v *EnumValueDescriptor) AsProto() proto.Message      { return v.proto }
func (v *EnumValueDescriptor) path() []int32               { return v.p }
func (v *EnumValueDescriptor) SourceLocation() (SourceLocation, bool) {
	if loc := v.file.srcInfo.lookup(v.p); loc != nil {
		return *loc, true
	}
	return SourceLocation{}, false
}

// Number returns the enum value's numeric representation.
func (v *EnumValueDescriptor) Number() int32 { return v.proto.GetNumber() }
