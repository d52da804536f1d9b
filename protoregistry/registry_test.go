package protoregistry

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"
)

func TestGlobalSeedsWellKnownTypes(t *testing.T) {
	p := Global()
	for _, name := range []string{
		"google.protobuf.Any",
		"google.protobuf.Duration",
		"google.protobuf.Empty",
		"google.protobuf.FieldMask",
		"google.protobuf.Struct",
		"google.protobuf.Timestamp",
		"google.protobuf.DoubleValue",
	} {
		require.NotNilf(t, p.FindMessage(name), "%q not found in seeded global pool", name)
	}
}

func TestGlobalIsASingleton(t *testing.T) {
	require.Same(t, Global(), Global())
}

func TestRegisterFileDescriptorProto(t *testing.T) {
	syntax := "proto3"
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    strPtrReg("protoregistry_test/sample.proto"),
		Package: strPtrReg("protoregistry.test"),
		Syntax:  &syntax,
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: strPtrReg("Sample"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:     strPtrReg("id"),
						Number:   i32PtrReg(1),
						Label:    labelReg(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
						Type:     ftypeReg(descriptorpb.FieldDescriptorProto_TYPE_INT32),
						JsonName: strPtrReg("id"),
					},
				},
			},
		},
	}

	require.NoError(t, RegisterFileDescriptorProto(fdp))
	require.NotNil(t, Global().FindMessage("protoregistry.test.Sample"))

	// Registering the same file again is a no-op, not an error.
	require.NoError(t, RegisterFileDescriptorProto(fdp))
}

func TestRegisterMessageFile(t *testing.T) {
	require.NoError(t, RegisterMessageFile(&descriptorpb.FileDescriptorProto{}))
	require.NotNil(t, Global().FindMessage("google.protobuf.FileDescriptorProto"))
}

func strPtrReg(s string) *string { return &s }
func i32PtrReg(i int32) *int32   { return &i }
func labelReg(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label {
	return &l
}
func ftypeReg(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type {
	return &t
}
