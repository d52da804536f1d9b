package grpcdynamic

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoval/protoreflect/dynamic"
	"github.com/protoval/protoreflect/protodesc"
)

func buildPingPool(t *testing.T) *protodesc.Pool {
	t.Helper()

	strPtr := func(s string) *string { return &s }
	i32Ptr := func(i int32) *int32 { return &i }
	label := func(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label { return &l }
	ftype := func(tp descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type { return &tp }

	ping := &descriptorpb.DescriptorProto{
		Name: strPtr("Ping"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{Name: strPtr("message"), Number: i32Ptr(1), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING), JsonName: strPtr("message")},
		},
	}
	pong := &descriptorpb.DescriptorProto{
		Name: strPtr("Pong"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{Name: strPtr("message"), Number: i32Ptr(1), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING), JsonName: strPtr("message")},
		},
	}

	falseVal := false
	trueVal := true
	svc := &descriptorpb.ServiceDescriptorProto{
		Name: strPtr("Pinger"),
		Method: []*descriptorpb.MethodDescriptorProto{
			{
				Name:            strPtr("Unary"),
				InputType:       strPtr(".test.v1.Ping"),
				OutputType:      strPtr(".test.v1.Pong"),
				ClientStreaming: &falseVal,
				ServerStreaming: &falseVal,
			},
			{
				Name:            strPtr("ServerStream"),
				InputType:       strPtr(".test.v1.Ping"),
				OutputType:      strPtr(".test.v1.Pong"),
				ClientStreaming: &falseVal,
				ServerStreaming: &trueVal,
			},
		},
	}

	syntax := "proto3"
	fdp := &descriptorpb.FileDescriptorProto{
		Name:        strPtr("test/v1/pinger.proto"),
		Package:     strPtr("test.v1"),
		Syntax:      &syntax,
		MessageType: []*descriptorpb.DescriptorProto{ping, pong},
		Service:     []*descriptorpb.ServiceDescriptorProto{svc},
	}

	p := protodesc.NewPool()
	_, err := p.AddFile(fdp)
	require.NoError(t, err)
	return p
}

func findMethod(p *protodesc.Pool, name string) *protodesc.MethodDescriptor {
	fd := p.FindFileByPath("test/v1/pinger.proto")
	for _, sd := range fd.Services() {
		for _, md := range sd.Methods() {
			if md.Name() == name {
				return md
			}
		}
	}
	return nil
}

func TestDynamicCodecRoundTrip(t *testing.T) {
	p := buildPingPool(t)
	pingMD := p.FindMessage("test.v1.Ping")

	m := dynamic.NewMessage(pingMD)
	m.SetField(pingMD.FieldByName("message"), dynamic.StringValue("hello"))

	var c dynamicCodec
	data, err := c.Marshal(m)
	require.NoError(t, err)

	got := dynamic.NewMessage(pingMD)
	require.NoError(t, c.Unmarshal(data, got))
	require.Equal(t, "hello", got.GetField(pingMD.FieldByName("message")).String())
}

func TestDynamicCodecRejectsWrongType(t *testing.T) {
	var c dynamicCodec
	_, err := c.Marshal("not a dynamic message")
	require.Error(t, err, "expected Marshal to reject a non-*dynamic.Message value")

	err = c.Unmarshal(nil, new(int))
	require.Error(t, err, "expected Unmarshal to reject a non-*dynamic.Message target")
}

func TestDynamicCodecName(t *testing.T) {
	var c dynamicCodec
	require.Equal(t, codecName, c.Name())
}
