package main

import (
	"fmt"
	"os"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoval/protoreflect/protodesc"
	"github.com/protoval/protoreflect/protoregistry"
)

// loadPool reads the FileDescriptorSet at path and admits every file in it
// to the process-wide default pool, which comes pre-seeded with the
// well-known types so messages referencing google.protobuf.Timestamp/Any/
// etc. resolve without the caller having to include those files in their
// own descriptor set.
func loadPool(path string) (*protodesc.Pool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading descriptor set: %w", err)
	}
	var fds descriptorpb.FileDescriptorSet
	if err := proto.Unmarshal(data, &fds); err != nil {
		return nil, fmt.Errorf("parsing descriptor set: %w", err)
	}

	for _, fdp := range fds.GetFile() {
		if err := protoregistry.RegisterFileDescriptorProto(fdp); err != nil {
			return nil, fmt.Errorf("admitting file %q: %w", fdp.GetName(), err)
		}
	}
	return protoregistry.Global(), nil
}

func findMessage(p *protodesc.Pool, name string) (*protodesc.MessageDescriptor, error) {
	md := p.FindMessage(name)
	if md == nil {
		return nil, fmt.Errorf("message %q not found in descriptor set", name)
	}
	return md, nil
}
