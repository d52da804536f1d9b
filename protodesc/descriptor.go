// Package protodesc implements the descriptor graph and pool builder: it
// ingests FileDescriptorProto messages, resolves cross-file references,
// validates protobuf's naming/typing rules, interprets custom options, and
// exposes a navigable graph of immutable descriptor objects.
//
// Grounded on github.com/jhump/protoreflect's desc package, restructured
// around an explicit multi-phase pool builder (admit, index, resolve,
// validate, interpret options, commit) as specified.
package protodesc

import (
	"strings"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Descriptor is the common interface implemented by all descriptor types:
// files, messages, fields, enums, enum values, oneofs, services, methods
// and extensions.
type Descriptor interface {
	// Name is the base name, not including any enclosing scope.
	Name() string
	// FullName is the fully-qualified, dot-separated name (package plus
	// any enclosing message names). For a FileDescriptor this is its path.
	FullName() string
	// Parent is the enclosing element, or nil for a FileDescriptor.
	Parent() Descriptor
	// ParentFile is the file in which this element was declared.
	ParentFile() *FileDescriptor
	// Options returns the interpreted options message for this element.
	Options() proto.Message
	// SourceLocation returns the source position of this element, if
	// source_code_info was present in its file; ok is false otherwise.
	SourceLocation() (loc SourceLocation, ok bool)
	// AsProto returns the underlying descriptor proto.
	AsProto() proto.Message
	// path is this descriptor's location within its FileDescriptorProto,
	// per the source_code_info path convention.
	path() []int32
}

// SourceLocation is a 1-based line/column position within a proto source
// file, derived from a FileDescriptorProto's source_code_info.
type SourceLocation struct {
	Line   int
	Column int
}

type sourceLocation = SourceLocation

// sourceInfoIndex maps a descriptor path (encoded as a string key) to its
// SourceCodeInfo_Location, built once per file.
type sourceInfoIndex map[string]*descriptorpb.SourceCodeInfo_Location

func buildSourceInfoIndex(fd *descriptorpb.FileDescriptorProto) sourceInfoIndex {
	idx := sourceInfoIndex{}
	for _, loc := range fd.GetSourceCodeInfo().GetLocation() {
		idx[pathKey(loc.GetPath())] = loc
	}
	return idx
}

func pathKey(path []int32) string {
	var b strings.Builder
	for i, p := range path {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(itoa(p))
	}
	return b.String()
}

func itoa(v int32) string {
	if v == 0 {
		return "0"
	}
	neg := v < 0
	if neg {
		v = -v
	}
	var buf [12]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

func (idx sourceInfoIndex) lookup(path []int32) *SourceLocation {
	loc, ok := idx[pathKey(path)]
	if !ok || len(loc.GetSpan()) < 2 {
		return nil
	}
	span := loc.GetSpan()
	// SourceCodeInfo spans are 0-based; descriptors report 1-based positions.
	return &SourceLocation{Line: int(span[0]) + 1, Column: int(span[1]) + 1}
}

func appendPath(path []int32, elems ...int32) []int32 {
	out := make([]int32, len(path), len(path)+len(elems))
	copy(out, path)
	return append(out, elems...)
}
