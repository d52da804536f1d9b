package protodesc

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"
)

// ServiceDescriptor describes an RPC service.
type ServiceDescriptor struct {
	proto *descriptorpb.ServiceDescriptorProto
	file  *FileDescriptor
	full  string
	p     []int32

	methods []*MethodDescriptor
	opts    optionSet
}

// CustomOption returns the interpreted value of a custom service option.
func (sd *ServiceDescriptor) CustomOption(name string) (interface{}, bool) { return sd.opts.CustomOption(name) }

// MethodDescriptor describes one RPC method of a service.
type MethodDescriptor struct {
	proto  *descriptorpb.MethodDescriptorProto
	file   *FileDescriptor
	parent *ServiceDescriptor
	full   string
	p      []int32

	input  *MessageDescriptor
	output *MessageDescriptor
	opts   optionSet
}

// CustomOption returns the interpreted value of a custom method option.
func (m *MethodDescriptor) CustomOption(name string) (interface{}, bool) { return m.opts.CustomOption(name) }

func newShallowService(file *FileDescriptor, pkg string, sp *descriptorpb.ServiceDescriptorProto) *ServiceDescriptor {
	sd := &ServiceDescriptor{proto: sp, file: file, full: fullName(pkg, sp.GetName())}
	for _, m := range sp.GetMethod() {
		sd.methods = append(sd.methods, &MethodDescriptor{
			proto: m, file: file, parent: sd, full: fullName(sd.full, m.GetName()),
		})
	}
	return sd
}

func resolveService(sd *ServiceDescriptor, path []int32, resolve resolverFunc) error {
	sd.p = path
	scopes := enclosingScopes(sd.file.Package())
	mpath := appendPath(path, serviceMethodsTag)
	for i, m := range sd.methods {
		m.p = appendPath(mpath, int32(i))
		in, err := resolveTypeName(resolve, scopes, m.proto.GetInputType())
		if err != nil {
			return withFile(err, sd.file.Name())
		}
		md, ok := in.(*MessageDescriptor)
		if !ok {
			return newError(sd.file.Name(), UnresolvedName, "method %s: input type %s is not a message", m.full, m.proto.GetInputType())
		}
		m.input = md

		out, err := resolveTypeName(resolve, scopes, m.proto.GetOutputType())
		if err != nil {
			return withFile(err, sd.file.Name())
		}
		md2, ok := out.(*MessageDescriptor)
		if !ok {
			return newError(sd.file.Name(), UnresolvedName, "method %s: output type %s is not a message", m.full, m.proto.GetOutputType())
		}
		m.output = md2
	}
	return nil
}

func (sd *ServiceDescriptor) Name() string       { return sd.proto.GetName() }
func (sd *ServiceDescriptor) FullName() string   { return sd.full }
func (sd *ServiceDescriptor) Parent() Descriptor { return sd.file }
func (sd *ServiceDescriptor) ParentFile() *FileDescriptor { return sd.file }
func (sd *ServiceDescriptor) Options() proto.Message      { return sd.proto.GetOptions() }
func (sd *ServiceDescriptor) AsProto() proto.Message      { return sd.proto }
func (sd *ServiceDescriptor) path() []int32               { return sd.p }
func (sd *ServiceDescriptor) SourceLocation() (SourceLocation, bool) {
	if loc := sd.file.srcInfo.lookup(sd.p); loc != nil {
		return *loc, true
	}
	return SourceLocation{}, false
}

// Methods returns the service's RPC methods.
func (sd *ServiceDescriptor) Methods() []*MethodDescriptor { return sd.methods }

func (m *MethodDescriptor) Name() string       { return m.proto.GetName() }
func (m *MethodDescriptor) FullName() string   { return m.full }
func (m *MethodDescriptor) Parent() Descriptor { return m.parent }
func (m *MethodDescriptor) ParentFile() *FileDescriptor { return m.file }
func (m *MethodDescriptor) Options() proto.Message      { return m.proto.GetOptions() }
func (m *MethodDescriptor) AsProto() proto.Message      { return m.proto }
func (m *MethodDescriptor) path() []int32               { return m.p }
func (m *MethodDescriptor) SourceLocation() (SourceLocation, bool) {
	if loc := m.file.srcInfo.lookup(m.p); loc != nil {
		return *loc, true
	}
	return SourceLocation{}, false
}

// InputType returns the method's request message type.
func (m *MethodDescriptor) InputType() *MessageDescriptor { return m.input }

// OutputType returns the method's response message type.
func (m *MethodDescriptor) OutputType() *MessageDescriptor { return m.output }

// ClientStreaming reports whether the client streams multiple requests.
func (m *MethodDescriptor) ClientStreaming() bool { return m.proto.GetClientStreaming() }

// ServerStreaming reports whether the server streams multiple responses.
func (m *MethodDescriptor) ServerStreaming() bool { return m.proto.GetServerStreaming() }
