package protodesc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ExtensionRange is a [start, end) range of field numbers reserved for
// extensions of a message.
type ExtensionRange struct {
	Start, End int32 // End is exclusive, matching descriptor.proto's convention.
}

// ReservedRange is a [start, end) range of field numbers that may not be
// used by any field or extension.
type ReservedRange struct {
	Start, End int32
}

// MessageDescriptor describes a message type.
type MessageDescriptor struct {
	proto  *descriptorpb.DescriptorProto
	file   *FileDescriptor
	parent Descriptor
	full   string
	p      []int32

	fields        []*FieldDescriptor
	fieldsByNum   map[int32]*FieldDescriptor
	fieldsByName  map[string]*FieldDescriptor
	fieldsByJSON  map[string]*FieldDescriptor
	oneofs        []*OneofDescriptor
	nested        []*MessageDescriptor
	enums         []*EnumDescriptor
	extensions    []*FieldDescriptor
	extRanges     []ExtensionRange
	reservedRange []ReservedRange
	reservedNames map[string]bool
	opts          optionSet
}

// CustomOption returns the interpreted value of a custom message option.
func (md *MessageDescriptor) CustomOption(name string) (interface{}, bool) { return md.opts.CustomOption(name) }

func newShallowMessage(file *FileDescriptor, parent Descriptor, scopePrefix string, mp *descriptorpb.DescriptorProto) *MessageDescriptor {
	md := &MessageDescriptor{
		proto:         mp,
		file:          file,
		parent:        parent,
		full:          fullName(scopePrefix, mp.GetName()),
		fieldsByNum:   map[int32]*FieldDescriptor{},
		fieldsByName:  map[string]*FieldDescriptor{},
		fieldsByJSON:  map[string]*FieldDescriptor{},
		reservedNames: map[string]bool{},
	}
	for _, rr := range mp.GetReservedRange() {
		md.reservedRange = append(md.reservedRange, ReservedRange{rr.GetStart(), rr.GetEnd()})
	}
	for _, rn := range mp.GetReservedName() {
		md.reservedNames[rn] = true
	}
	for _, er := range mp.GetExtensionRange() {
		md.extRanges = append(md.extRanges, ExtensionRange{er.GetStart(), er.GetEnd()})
	}
	for _, f := range mp.GetField() {
		fdesc := newShallowField(file, md, md.full, f)
		md.fields = append(md.fields, fdesc)
	}
	for _, o := range mp.GetOneofDecl() {
		md.oneofs = append(md.oneofs, &OneofDescriptor{proto: o, file: file, parent: md, full: fullName(md.full, o.GetName())})
	}
	for _, nm := range mp.GetNestedType() {
		md.nested = append(md.nested, newShallowMessage(file, md, md.full, nm))
	}
	for _, e := range mp.GetEnumType() {
		// An enum that fails to build leaves a nil entry; indexMessage
		// below reports its error.
		ed, _ := newEnumDescriptor(file, md, md.full, e)
		md.enums = append(md.enums, ed)
	}
	for _, ex := range mp.GetExtension() {
		md.extensions = append(md.extensions, newShallowField(file, md, md.full, ex))
	}
	return md
}

func indexMessage(fd *FileDescriptor, md *MessageDescriptor) error {
	if err := putSymbol(fd, md.full, md); err != nil {
		return err
	}
	for _, f := range md.fields {
		if err := putSymbol(fd, f.FullName(), f); err != nil {
			return err
		}
		if _, dup := md.fieldsByNum[f.Number()]; dup {
			return newError(fd.Name(), DuplicateName, "message %s: duplicate field number %d", md.full, f.Number())
		}
		md.fieldsByNum[f.Number()] = f
		if _, dup := md.fieldsByName[f.Name()]; dup {
			return newError(fd.Name(), DuplicateName, "message %s: duplicate field name %q", md.full, f.Name())
		}
		md.fieldsByName[f.Name()] = f
		if _, dup := md.fieldsByJSON[f.JSONName()]; dup {
			return newError(fd.Name(), DuplicateName, "message %s: duplicate JSON name %q", md.full, f.JSONName())
		}
		md.fieldsByJSON[f.JSONName()] = f
	}
	for _, o := range md.oneofs {
		if err := putSymbol(fd, o.full, o); err != nil {
			return err
		}
	}
	for _, nm := range md.nested {
		if err := indexMessage(fd, nm); err != nil {
			return err
		}
	}
	for i, e := range md.enums {
		if e == nil {
			_, err := newEnumDescriptor(fd, md, md.full, md.proto.GetEnumType()[i])
			return err
		}
		if err := putSymbol(fd, e.FullName(), e); err != nil {
			return err
		}
	}
	for _, ex := range md.extensions {
		if err := putSymbol(fd, ex.FullName(), ex); err != nil {
			return err
		}
	}
	return nil
}

func resolveMessage(md *MessageDescriptor, path []int32, resolve resolverFunc) error {
	md.p = path
	fpath := appendPath(path, messageFieldsTag)
	for i, f := range md.fields {
		if err := resolveField(f, appendPath(fpath, int32(i)), resolve); err != nil {
			return err
		}
	}
	npath := appendPath(path, messageNestedTag)
	for i, nm := range md.nested {
		if err := resolveMessage(nm, appendPath(npath, int32(i)), resolve); err != nil {
			return err
		}
	}
	enpath := appendPath(path, messageEnumsTag)
	for i, ed := range md.enums {
		ed.resolve(appendPath(enpath, int32(i)))
	}
	epath := appendPath(path, messageExtTag)
	for i, ex := range md.extensions {
		if err := resolveField(ex, appendPath(epath, int32(i)), resolve); err != nil {
			return err
		}
	}
	return nil
}

func (md *MessageDescriptor) Name() string            { return md.proto.GetName() }
func (md *MessageDescriptor) FullName() string         { return md.full }
func (md *MessageDescriptor) Parent() Descriptor       { return md.parent }
func (md *MessageDescriptor) ParentFile() *FileDescriptor { return md.file }
func (md *MessageDescriptor) Options() proto.Message   { return md.proto.GetOptions() }
func (md *MessageDescriptor) AsProto() proto.Message   { return md.proto }
func (md *MessageDescriptor) path() []int32            { return md.p }
func (md *MessageDescriptor) SourceLocation() (SourceLocation, bool) {
	if loc := md.file.srcInfo.lookup(md.p); loc != nil {
		return *loc, true
	}
	return SourceLocation{}, false
}

// Fields returns the message's fields in declaration order.
func (md *MessageDescriptor) Fields() []*FieldDescriptor { return md.fields }

// FieldByNumber finds a field by its wire number.
func (md *MessageDescriptor) FieldByNumber(n int32) *FieldDescriptor { return md.fieldsByNum[n] }

// FieldByName finds a field by its declared name.
func (md *MessageDescriptor) FieldByName(name string) *FieldDescriptor { return md.fieldsByName[name] }

// FieldByJSONName finds a field by its JSON name (case-sensitive).
func (md *MessageDescriptor) FieldByJSONName(name string) *FieldDescriptor { return md.fieldsByJSON[name] }

// Oneofs returns the message's oneof groups.
func (md *MessageDescriptor) Oneofs() []*OneofDescriptor { return md.oneofs }

// NestedMessages returns message types declared inside this one.
func (md *MessageDescriptor) NestedMessages() []*MessageDescriptor { return md.nested }

// NestedEnums returns enum types declared inside this message.
func (md *MessageDescriptor) NestedEnums() []*EnumDescriptor { return md.enums }

// Extensions returns extension fields declared inside this message
// (targeting some other extendee).
func (md *MessageDescriptor) Extensions() []*FieldDescriptor { return md.extensions }

// ExtensionRanges returns the field-number ranges reserved for extensions.
func (md *MessageDescriptor) ExtensionRanges() []ExtensionRange { return md.extRanges }

// ReservedRanges returns field-number ranges that must not be used.
func (md *MessageDescriptor) ReservedRanges() []ReservedRange { return md.reservedRange }

// IsReservedName reports whether name is reserved.
func (md *MessageDescriptor) IsReservedName(name string) bool { return md.reservedNames[name] }

// IsExtendable reports whether this message declares any extension range.
func (md *MessageDescriptor) IsExtendable() bool { return len(md.extRanges) > 0 }

// IsInExtensionRange reports whether number falls within a declared
// extension range.
func (md *MessageDescriptor) IsInExtensionRange(number int32) bool {
	for _, r := range md.extRanges {
		if number >= r.Start && number < r.End {
			return true
		}
	}
	return false
}

// IsMapEntry reports whether this message is the synthetic map-entry type
// for a map field (options.map_entry == true).
func (md *MessageDescriptor) IsMapEntry() bool {
	return md.proto.GetOptions().GetMapEntry()
}

// MapKeyField returns the key field (number 1) of a map-entry message, or
// nil if this isn't one.
func (md *MessageDescriptor) MapKeyField() *FieldDescriptor {
	if !md.IsMapEntry() {
		return nil
	}
	return md.fieldsByNum[1]
}

// MapValueField returns the value field (number 2) of a map-entry message.
func (md *MessageDescriptor) MapValueField() *FieldDescriptor {
	if !md.IsMapEntry() {
		return nil
	}
	return md.fieldsByNum[2]
}
