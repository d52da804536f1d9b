package protodesc

import "fmt"

// ErrorKind tags the category of a descriptor build error, matching the
// "Descriptor build" row of the error taxonomy.
type ErrorKind int

const (
	UnresolvedName ErrorKind = iota
	DuplicateName
	InvalidFieldNumber
	InvalidExtensionRange
	InvalidMapEntry
	DuplicateEnumValue
	InvalidDefault
	DependencyCycle
	MissingDependency
	InvalidOption
)

func (k ErrorKind) String() string {
	switch k {
	case UnresolvedName:
		return "UnresolvedName"
	case DuplicateName:
		return "DuplicateName"
	case InvalidFieldNumber:
		return "InvalidFieldNumber"
	case InvalidExtensionRange:
		return "InvalidExtensionRange"
	case InvalidMapEntry:
		return "InvalidMapEntry"
	case DuplicateEnumValue:
		return "DuplicateEnumValue"
	case InvalidDefault:
		return "InvalidDefault"
	case DependencyCycle:
		return "DependencyCycle"
	case MissingDependency:
		return "MissingDependency"
	case InvalidOption:
		return "InvalidOption"
	default:
		return "Unknown"
	}
}

// Error is a descriptor build failure. File is always populated. The pool
// builder does not look up source_code_info for its errors, so they carry
// no Line or Column and HasPosition is false.
type Error struct {
	File        string
	Line        int
	Column      int
	HasPosition bool
	Kind        ErrorKind
	Message     string
}

func (e *Error) Error() string {
	if e.HasPosition {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.File, e.Line, e.Column, e.Kind, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.File, e.Kind, e.Message)
}

func newError(file string, kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{File: file, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) withLocation(loc *sourceLocation) *Error {
	if loc == nil {
		return e
	}
	e.HasPosition = true
	e.Line = loc.Line
	e.Column = loc.Column
	return e
}
