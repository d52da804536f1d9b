package protodesc

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoval/protoreflect/wireformat"
)

func strPtr(s string) *string { return &s }
func i32Ptr(i int32) *int32   { return &i }

func label(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label { return &l }
func ftype(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type    { return &t }

// testFileDescriptorProto builds:
//
//	syntax = "proto3";
//	package test.v1;
//	message Simple {
//	  int32 id = 1;
//	  string name = 2;
//	  repeated string tags = 3;
//	  map<string, int32> counts = 4;
//	  Status status = 5;
//	}
//	enum Status { UNKNOWN = 0; ACTIVE = 1; }
func testFileDescriptorProto() *descriptorpb.FileDescriptorProto {
	entryType := &descriptorpb.DescriptorProto{
		Name: strPtr("CountsEntry"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{
				Name:     strPtr("key"),
				Number:   i32Ptr(1),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING),
				JsonName: strPtr("key"),
			},
			{
				Name:     strPtr("value"),
				Number:   i32Ptr(2),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_INT32),
				JsonName: strPtr("value"),
			},
		},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}

	simple := &descriptorpb.DescriptorProto{
		Name: strPtr("Simple"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{
				Name:     strPtr("id"),
				Number:   i32Ptr(1),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_INT32),
				JsonName: strPtr("id"),
			},
			{
				Name:     strPtr("name"),
				Number:   i32Ptr(2),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING),
				JsonName: strPtr("name"),
			},
			{
				Name:     strPtr("tags"),
				Number:   i32Ptr(3),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_REPEATED),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING),
				JsonName: strPtr("tags"),
			},
			{
				Name:     strPtr("counts"),
				Number:   i32Ptr(4),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_REPEATED),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE),
				TypeName: strPtr(".test.v1.Simple.CountsEntry"),
				JsonName: strPtr("counts"),
			},
			{
				Name:     strPtr("status"),
				Number:   i32Ptr(5),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_ENUM),
				TypeName: strPtr(".test.v1.Status"),
				JsonName: strPtr("status"),
			},
		},
		NestedType: []*descriptorpb.DescriptorProto{entryType},
	}

	status := &descriptorpb.EnumDescriptorProto{
		Name: strPtr("Status"),
		Value: []*descriptorpb.EnumValueDescriptorProto{
			{Name: strPtr("UNKNOWN"), Number: i32Ptr(0)},
			{Name: strPtr("ACTIVE"), Number: i32Ptr(1)},
		},
	}

	syntax := "proto3"
	return &descriptorpb.FileDescriptorProto{
		Name:     strPtr("test/v1/simple.proto"),
		Package:  strPtr("test.v1"),
		Syntax:   &syntax,
		MessageType: []*descriptorpb.DescriptorProto{simple},
		EnumType:    []*descriptorpb.EnumDescriptorProto{status},
	}
}

func TestPoolAddFileResolvesFields(t *testing.T) {
	p := NewPool()
	fd, err := p.AddFile(testFileDescriptorProto())
	require.NoError(t, err)
	require.Equal(t, "test.v1", fd.Package())

	md := p.FindMessage("test.v1.Simple")
	require.NotNil(t, md)
	require.Len(t, md.Fields(), 5)

	nameFd := md.FieldByName("name")
	require.NotNil(t, nameFd)
	require.Equal(t, wireformat.KindString, nameFd.Kind())

	countsFd := md.FieldByName("counts")
	require.NotNil(t, countsFd)
	require.True(t, countsFd.IsMap())
	require.Equal(t, "string", countsFd.MessageType().MapKeyField().Kind().String())
	require.Equal(t, "int32", countsFd.MessageType().MapValueField().Kind().String())

	statusFd := md.FieldByName("status")
	require.NotNil(t, statusFd)
	require.NotNil(t, statusFd.EnumType())
	require.Equal(t, "test.v1.Status", statusFd.EnumType().FullName())

	en := p.FindEnum("test.v1.Status")
	require.NotNil(t, en)
	v := en.ValueByNumber(1)
	require.NotNil(t, v)
	require.Equal(t, "ACTIVE", v.Name())
}

func TestPoolAddFileRejectsDuplicateSymbolAcrossFiles(t *testing.T) {
	p := NewPool()
	_, err := p.AddFile(testFileDescriptorProto())
	require.NoError(t, err)

	syntax := "proto3"
	again := &descriptorpb.FileDescriptorProto{
		Name:    strPtr("test/v1/simple_again.proto"),
		Package: strPtr("test.v1"),
		Syntax:  &syntax,
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: strPtr("Simple")},
		},
	}
	_, err = p.AddFile(again)
	require.Error(t, err, "expected a DuplicateName error for a message FQN already in the pool")

	derr, ok := err.(*Error)
	require.True(t, ok, "expected a *protodesc.Error")
	require.Equal(t, DuplicateName, derr.Kind)

	// The rejected file must not have been admitted.
	require.Nil(t, p.FindFileByPath("test/v1/simple_again.proto"))
}

func TestPoolAddFileRejectsDuplicateSymbolWithinBatch(t *testing.T) {
	p := NewPool()
	syntax := "proto3"
	one := &descriptorpb.FileDescriptorProto{
		Name:        strPtr("a.proto"),
		Package:     strPtr("test.v1"),
		Syntax:      &syntax,
		MessageType: []*descriptorpb.DescriptorProto{{Name: strPtr("Dup")}},
	}
	two := &descriptorpb.FileDescriptorProto{
		Name:        strPtr("b.proto"),
		Package:     strPtr("test.v1"),
		Syntax:      &syntax,
		MessageType: []*descriptorpb.DescriptorProto{{Name: strPtr("Dup")}},
	}
	_, err := p.AddFiles([]*descriptorpb.FileDescriptorProto{one, two})
	require.Error(t, err, "expected a DuplicateName error for two files in the same batch declaring the same FQN")
}

func TestPoolAddFileUnresolvedDependency(t *testing.T) {
	p := NewPool()
	dependent := &descriptorpb.FileDescriptorProto{
		Name:       strPtr("dependent.proto"),
		Dependency: []string{"missing.proto"},
		MessageType: []*descriptorpb.DescriptorProto{
			{Name: strPtr("Empty")},
		},
	}
	_, err := p.AddFile(dependent)
	require.Error(t, err, "expected an error for an unresolved dependency")
}
