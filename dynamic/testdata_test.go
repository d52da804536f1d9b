package dynamic

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoval/protoreflect/protodesc"
)

func strPtr(s string) *string { return &s }
func i32Ptr(i int32) *int32   { return &i }
func label(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label {
	return &l
}
func ftype(t descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type {
	return &t
}

// buildTestPool returns a pool containing:
//
//	message Inner { string note = 1; }
//	message Event {
//	  int32 id = 1;
//	  oneof payload { string text = 2; bytes blob = 3; }
//	  repeated int64 values = 4;
//	  map<string, string> meta = 5;
//	  Inner inner = 6;
//	}
func buildTestPool(t *testing.T) (*protodesc.Pool, *protodesc.MessageDescriptor, *protodesc.MessageDescriptor) {
	t.Helper()

	inner := &descriptorpb.DescriptorProto{
		Name: strPtr("Inner"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{
				Name:     strPtr("note"),
				Number:   i32Ptr(1),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING),
				JsonName: strPtr("note"),
			},
			{
				Name:     strPtr("count"),
				Number:   i32Ptr(2),
				Label:    label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:     ftype(descriptorpb.FieldDescriptorProto_TYPE_INT32),
				JsonName: strPtr("count"),
			},
		},
	}

	metaEntry := &descriptorpb.DescriptorProto{
		Name: strPtr("MetaEntry"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{Name: strPtr("key"), Number: i32Ptr(1), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING), JsonName: strPtr("key")},
			{Name: strPtr("value"), Number: i32Ptr(2), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING), JsonName: strPtr("value")},
		},
		Options: &descriptorpb.MessageOptions{MapEntry: proto.Bool(true)},
	}

	event := &descriptorpb.DescriptorProto{
		Name: strPtr("Event"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{
				Name: strPtr("id"), Number: i32Ptr(1),
				Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:  ftype(descriptorpb.FieldDescriptorProto_TYPE_INT32), JsonName: strPtr("id"),
			},
			{
				Name: strPtr("text"), Number: i32Ptr(2),
				Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:  ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING), JsonName: strPtr("text"),
				OneofIndex: i32Ptr(0),
			},
			{
				Name: strPtr("blob"), Number: i32Ptr(3),
				Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:  ftype(descriptorpb.FieldDescriptorProto_TYPE_BYTES), JsonName: strPtr("blob"),
				OneofIndex: i32Ptr(0),
			},
			{
				Name: strPtr("values"), Number: i32Ptr(4),
				Label: label(descriptorpb.FieldDescriptorProto_LABEL_REPEATED),
				Type:  ftype(descriptorpb.FieldDescriptorProto_TYPE_INT64), JsonName: strPtr("values"),
			},
			{
				Name: strPtr("meta"), Number: i32Ptr(5),
				Label: label(descriptorpb.FieldDescriptorProto_LABEL_REPEATED),
				Type:  ftype(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE), TypeName: strPtr(".test.v1.Event.MetaEntry"), JsonName: strPtr("meta"),
			},
			{
				Name: strPtr("inner"), Number: i32Ptr(6),
				Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:  ftype(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE), TypeName: strPtr(".test.v1.Inner"), JsonName: strPtr("inner"),
			},
			{
				Name: strPtr("status"), Number: i32Ptr(7),
				Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL),
				Type:  ftype(descriptorpb.FieldDescriptorProto_TYPE_ENUM), TypeName: strPtr(".test.v1.Status"), JsonName: strPtr("status"),
			},
		},
		NestedType: []*descriptorpb.DescriptorProto{metaEntry},
		OneofDecl:  []*descriptorpb.OneofDescriptorProto{{Name: strPtr("payload")}},
	}

	status := &descriptorpb.EnumDescriptorProto{
		Name: strPtr("Status"),
		Value: []*descriptorpb.EnumValueDescriptorProto{
			{Name: strPtr("UNKNOWN"), Number: i32Ptr(0)},
			{Name: strPtr("ACTIVE"), Number: i32Ptr(1)},
		},
	}

	syntax := "proto3"
	fdp := &descriptorpb.FileDescriptorProto{
		Name:        strPtr("test/v1/event.proto"),
		Package:     strPtr("test.v1"),
		Syntax:      &syntax,
		MessageType: []*descriptorpb.DescriptorProto{inner, event},
		EnumType:    []*descriptorpb.EnumDescriptorProto{status},
	}

	p := protodesc.NewPool()
	if _, err := p.AddFile(fdp); err != nil {
		t.Fatalf("AddFile: %v", err)
	}
	return p, p.FindMessage("test.v1.Event"), p.FindMessage("test.v1.Inner")
}
