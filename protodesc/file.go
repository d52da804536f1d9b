package protodesc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// Syntax identifies a file's declared syntax level.
type Syntax int

const (
	SyntaxProto2 Syntax = iota
	SyntaxProto3
	SyntaxEditions
)

// FileDescriptor describes one proto source file: its package, imports,
// and top-level messages/enums/services/extensions.
type FileDescriptor struct {
	proto *descriptorpb.FileDescriptorProto

	deps       []*FileDescriptor
	publicDeps []*FileDescriptor
	weakDeps   []*FileDescriptor

	messages   []*MessageDescriptor
	enums      []*EnumDescriptor
	extensions []*FieldDescriptor
	services   []*ServiceDescriptor

	symbols map[string]Descriptor
	srcInfo sourceInfoIndex
	opts    optionSet
}

// CustomOption returns the interpreted value of a custom (extension)
// file option by its fully-qualified name.
func (fd *FileDescriptor) CustomOption(name string) (interface{}, bool) { return fd.opts.CustomOption(name) }

type resolverFunc func(fqName string) Descriptor

func newFileDescriptor(fdp *descriptorpb.FileDescriptorProto, deps []*FileDescriptor, resolve resolverFunc) (*FileDescriptor, error) {
	fd := &FileDescriptor{
		proto:   fdp,
		deps:    deps,
		symbols: map[string]Descriptor{},
		srcInfo: buildSourceInfoIndex(fdp),
	}

	byName := map[string]*FileDescriptor{}
	for _, d := range deps {
		byName[d.Name()] = d
	}
	for _, i := range fdp.GetPublicDependency() {
		if int(i) < len(deps) {
			fd.publicDeps = append(fd.publicDeps, deps[i])
		}
	}
	for _, i := range fdp.GetWeakDependency() {
		if int(i) < len(deps) {
			fd.weakDeps = append(fd.weakDeps, deps[i])
		}
	}

	pkg := fdp.GetPackage()

	// Phase 2: shallow index - assign fully-qualified names.
	for _, m := range fdp.GetMessageType() {
		md := newShallowMessage(fd, fd, pkg, m)
		if err := indexMessage(fd, md); err != nil {
			return nil, err
		}
		fd.messages = append(fd.messages, md)
	}
	for _, e := range fdp.GetEnumType() {
		ed, err := newEnumDescriptor(fd, fd, pkg, e)
		if err != nil {
			return nil, err
		}
		if err := putSymbol(fd, ed.FullName(), ed); err != nil {
			return nil, err
		}
		fd.enums = append(fd.enums, ed)
	}
	for _, s := range fdp.GetService() {
		sd := newShallowService(fd, pkg, s)
		if err := putSymbol(fd, sd.FullName(), sd); err != nil {
			return nil, err
		}
		fd.services = append(fd.services, sd)
	}
	for _, ex := range fdp.GetExtension() {
		exd := newShallowField(fd, fd, pkg, ex)
		if err := putSymbol(fd, exd.FullName(), exd); err != nil {
			return nil, err
		}
		fd.extensions = append(fd.extensions, exd)
	}

	// Phase 3: reference resolution.
	path := []int32{fileMessagesTag}
	for i, md := range fd.messages {
		if err := resolveMessage(md, appendPath(path, int32(i)), resolve); err != nil {
			return nil, err
		}
	}
	path = []int32{fileEnumsTag}
	for i, ed := range fd.enums {
		ed.resolve(appendPath(path, int32(i)))
	}
	path = []int32{fileServicesTag}
	for i, sd := range fd.services {
		if err := resolveService(sd, appendPath(path, int32(i)), resolve); err != nil {
			return nil, err
		}
	}
	path = []int32{fileExtTag}
	for i, exd := range fd.extensions {
		if err := resolveField(exd, appendPath(path, int32(i)), resolve); err != nil {
			return nil, err
		}
	}

	return fd, nil
}

func putSymbol(fd *FileDescriptor, name string, d Descriptor) error {
	if _, exists := fd.symbols[name]; exists {
		return newError(fd.Name(), DuplicateName, "duplicate symbol %q", name)
	}
	fd.symbols[name] = d
	return nil
}

func (fd *FileDescriptor) Name() string          { return fd.proto.GetName() }
func (fd *FileDescriptor) FullName() string      { return fd.proto.GetName() }
func (fd *FileDescriptor) Parent() Descriptor    { return nil }
func (fd *FileDescriptor) ParentFile() *FileDescriptor { return fd }
func (fd *FileDescriptor) Options() proto.Message      { return fd.proto.GetOptions() }
func (fd *FileDescriptor) AsProto() proto.Message      { return fd.proto }
func (fd *FileDescriptor) path() []int32               { return nil }

func (fd *FileDescriptor) SourceLocation() (SourceLocation, bool) {
	return SourceLocation{}, false
}

// Package returns the file's declared proto package, or "" if none.
func (fd *FileDescriptor) Package() string { return fd.proto.GetPackage() }

// Syntax reports the file's declared syntax level.
func (fd *FileDescriptor) Syntax() Syntax {
	switch fd.proto.GetSyntax() {
	case "proto3":
		return SyntaxProto3
	case "editions":
		return SyntaxEditions
	default:
		return SyntaxProto2
	}
}

// Dependencies returns every file imported by this one.
func (fd *FileDescriptor) Dependencies() []*FileDescriptor { return fd.deps }

// PublicDependencies returns the subset of Dependencies imported with
// `import public`.
func (fd *FileDescriptor) PublicDependencies() []*FileDescriptor { return fd.publicDeps }

// Messages returns the file's top-level message types.
func (fd *FileDescriptor) Messages() []*MessageDescriptor { return fd.messages }

// Enums returns the file's top-level enum types.
func (fd *FileDescriptor) Enums() []*EnumDescriptor { return fd.enums }

// Services returns the file's RPC services.
func (fd *FileDescriptor) Services() []*ServiceDescriptor { return fd.services }

// Extensions returns the file's top-level extension fields.
func (fd *FileDescriptor) Extensions() []*FieldDescriptor { return fd.extensions }

// FindSymbol looks up a symbol declared (directly or nested) in this file
// by fully-qualified name.
func (fd *FileDescriptor) FindSymbol(name string) Descriptor { return fd.symbols[name] }

func (fd *FileDescriptor) allMessages() []*MessageDescriptor {
	var all []*MessageDescriptor
	var walk func(ms []*MessageDescriptor)
	walk = func(ms []*MessageDescriptor) {
		for _, m := range ms {
			all = append(all, m)
			walk(m.nested)
		}
	}
	walk(fd.messages)
	return all
}

// transitivePublicImports computes every file reachable via `import
// public`, transitively, starting from fd's direct public dependencies.
// import public is transitive per the graph invariant in the spec.
func (fd *FileDescriptor) transitivePublicImports() []*FileDescriptor {
	seen := map[string]bool{}
	var out []*FileDescriptor
	var walk func(f *FileDescriptor)
	walk = func(f *FileDescriptor) {
		for _, pd := range f.publicDeps {
			if seen[pd.Name()] {
				continue
			}
			seen[pd.Name()] = true
			out = append(out, pd)
			walk(pd)
		}
	}
	walk(fd)
	return out
}
