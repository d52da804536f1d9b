package wireformat

// Kind enumerates the field kinds a FieldDescriptor can describe, per the
// spec's closed list: scalars, Enum and Message carry a reference to their
// target descriptor (held alongside the Kind, not inside it — Kind itself
// stays a plain value so it can be compared and used as a map key).
type Kind int8

const (
	KindInvalid Kind = iota
	KindDouble
	KindFloat
	KindInt32
	KindInt64
	KindUint32
	KindUint64
	KindSint32
	KindSint64
	KindFixed32
	KindFixed64
	KindSfixed32
	KindSfixed64
	KindBool
	KindString
	KindBytes
	KindEnum
	KindMessage
	KindGroup
)

func (k Kind) String() string {
	switch k {
	case KindDouble:
		return "double"
	case KindFloat:
		return "float"
	case KindInt32:
		return "int32"
	case KindInt64:
		return "int64"
	case KindUint32:
		return "uint32"
	case KindUint64:
		return "uint64"
	case KindSint32:
		return "sint32"
	case KindSint64:
		return "sint64"
	case KindFixed32:
		return "fixed32"
	case KindFixed64:
		return "fixed64"
	case KindSfixed32:
		return "sfixed32"
	case KindSfixed64:
		return "sfixed64"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	case KindGroup:
		return "group"
	default:
		return "invalid"
	}
}

// IsScalar reports whether the kind is neither Message nor Group (i.e. it
// stores directly in a Value variant rather than nesting a sub-message).
func (k Kind) IsScalar() bool {
	return k != KindMessage && k != KindGroup && k != KindInvalid
}

// WireType returns the wire type used for a singular (unpacked) encoding
// of this kind.
func (k Kind) WireType() WireType {
	switch k {
	case KindBool, KindInt32, KindInt64, KindUint32, KindUint64, KindSint32, KindSint64, KindEnum:
		return WireVarint
	case KindFixed32, KindSfixed32, KindFloat:
		return WireFixed32
	case KindFixed64, KindSfixed64, KindDouble:
		return WireFixed64
	case KindString, KindBytes, KindMessage:
		return WireBytes
	case KindGroup:
		return WireStartGroup
	default:
		return WireVarint
	}
}

// Cardinality describes how many values a field may hold.
type Cardinality int8

const (
	Optional Cardinality = iota
	Required
	Repeated
)

func (c Cardinality) String() string {
	switch c {
	case Required:
		return "required"
	case Repeated:
		return "repeated"
	default:
		return "optional"
	}
}
