package protodesc

import "github.com/protoval/protoreflect/wireformat"

const (
	minFieldNumber         = 1
	maxFieldNumber         = 1<<29 - 1
	reservedFieldRangeLow  = 19000
	reservedFieldRangeHigh = 19999
)

// validateFile runs phase 4 of the pool builder: field-number legality,
// map-entry structure, extension-range containment, proto3 `required`
// rejection, and oneof-membership constraints. Name/number uniqueness
// within a message and enum-alias rules are enforced eagerly during
// indexing (message.go/enum.go) since that's where the relevant maps are
// already being built; this pass covers everything that needs the fully
// resolved graph.
func validateFile(fd *FileDescriptor) error {
	for _, md := range fd.allMessages() {
		if err := validateMessage(fd, md); err != nil {
			return err
		}
	}
	for _, ex := range fd.extensions {
		if err := validateExtensionNumber(fd, ex); err != nil {
			return err
		}
	}
	return nil
}

func validateMessage(fd *FileDescriptor, md *MessageDescriptor) error {
	for _, f := range md.fields {
		if err := validateFieldNumber(fd, md, f); err != nil {
			return err
		}
		if fd.Syntax() == SyntaxProto3 && f.Cardinality() == wireformat.Required {
			return newError(fd.Name(), InvalidDefault, "field %s: proto3 does not allow required fields", f.full)
		}
		if fd.Syntax() == SyntaxProto3 && f.kind == wireformat.KindEnum && f.DefaultValueString() != "" {
			if f.enumType != nil && len(f.enumType.values) > 0 && f.enumType.values[0].Number() != 0 {
				return newError(fd.Name(), InvalidDefault, "field %s: proto3 enum's first value must be 0", f.full)
			}
		}
	}
	for _, ex := range md.extensions {
		if err := validateExtensionNumber(fd, ex); err != nil {
			return err
		}
	}
	for _, o := range md.oneofs {
		for _, f := range o.fields {
			if f.IsRepeated() {
				return newError(fd.Name(), InvalidOption, "oneof %s: member %s must not be repeated", o.full, f.full)
			}
			if f.Cardinality() == wireformat.Required {
				return newError(fd.Name(), InvalidOption, "oneof %s: member %s must not be required", o.full, f.full)
			}
			if f.IsMap() {
				return newError(fd.Name(), InvalidOption, "oneof %s: member %s must not be a map", o.full, f.full)
			}
		}
	}
	if md.IsMapEntry() {
		if err := validateMapEntry(fd, md); err != nil {
			return err
		}
	}
	for _, r := range md.extRanges {
		if r.Start < minFieldNumber || r.End-1 > maxFieldNumber || r.Start >= r.End {
			return newError(fd.Name(), InvalidExtensionRange, "message %s: invalid extension range [%d, %d)", md.full, r.Start, r.End)
		}
	}
	return nil
}

func validateFieldNumber(fd *FileDescriptor, md *MessageDescriptor, f *FieldDescriptor) error {
	n := f.Number()
	if n < minFieldNumber || n > maxFieldNumber {
		return newError(fd.Name(), InvalidFieldNumber, "field %s: number %d out of range [%d, %d]", f.full, n, minFieldNumber, maxFieldNumber)
	}
	if n >= reservedFieldRangeLow && n <= reservedFieldRangeHigh {
		return newError(fd.Name(), InvalidFieldNumber, "field %s: number %d falls in reserved range [%d, %d]", f.full, n, reservedFieldRangeLow, reservedFieldRangeHigh)
	}
	for _, r := range md.reservedRange {
		if n >= r.Start && n < r.End {
			return newError(fd.Name(), InvalidFieldNumber, "field %s: number %d is reserved", f.full, n)
		}
	}
	if md.IsReservedName(f.Name()) {
		return newError(fd.Name(), DuplicateName, "field %s: name is reserved", f.full)
	}
	return nil
}

func validateExtensionNumber(fd *FileDescriptor, ex *FieldDescriptor) error {
	if ex.extendee == nil {
		return nil
	}
	if !ex.extendee.IsInExtensionRange(ex.Number()) {
		return newError(fd.Name(), InvalidExtensionRange, "extension %s: number %d is not in an extension range of %s",
			ex.full, ex.Number(), ex.extendee.FullName())
	}
	return nil
}

var mapKeyKinds = map[wireformat.Kind]bool{
	wireformat.KindBool:     true,
	wireformat.KindString:   true,
	wireformat.KindInt32:    true,
	wireformat.KindInt64:    true,
	wireformat.KindUint32:   true,
	wireformat.KindUint64:   true,
	wireformat.KindSint32:   true,
	wireformat.KindSint64:   true,
	wireformat.KindFixed32:  true,
	wireformat.KindFixed64:  true,
	wireformat.KindSfixed32: true,
	wireformat.KindSfixed64: true,
}

func validateMapEntry(fd *FileDescriptor, md *MessageDescriptor) error {
	if len(md.fields) != 2 {
		return newError(fd.Name(), InvalidMapEntry, "map entry %s must have exactly two fields", md.full)
	}
	key, value := md.fieldsByNum[1], md.fieldsByNum[2]
	if key == nil || value == nil {
		return newError(fd.Name(), InvalidMapEntry, "map entry %s must have fields numbered 1 (key) and 2 (value)", md.full)
	}
	if !mapKeyKinds[key.Kind()] {
		return newError(fd.Name(), InvalidMapEntry, "map entry %s: key kind %s is not a permitted map key type", md.full, key.Kind())
	}
	return nil
}
