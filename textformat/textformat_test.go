package textformat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/descriptorpb"

	"github.com/protoval/protoreflect/dynamic"
	"github.com/protoval/protoreflect/protodesc"
)

// buildTestPool mirrors the fixture used by the dynamic package's own
// tests: a message with a scalar, a oneof, a repeated field, a map field
// and a nested message.
func buildTestPool(t *testing.T) (*protodesc.MessageDescriptor, *protodesc.MessageDescriptor) {
	t.Helper()

	strPtr := func(s string) *string { return &s }
	i32Ptr := func(i int32) *int32 { return &i }
	label := func(l descriptorpb.FieldDescriptorProto_Label) *descriptorpb.FieldDescriptorProto_Label { return &l }
	ftype := func(tp descriptorpb.FieldDescriptorProto_Type) *descriptorpb.FieldDescriptorProto_Type { return &tp }

	inner := &descriptorpb.DescriptorProto{
		Name: strPtr("Inner"),
		Field: []*descriptorpb.FieldDescriptorProto{
			{Name: strPtr("note"), Number: i32Ptr(1), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_STRING), JsonName: strPtr("note")},
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
			{Name: strPtr("id"), Number: i32Ptr(1), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_INT32), JsonName: strPtr("id")},
			{Name: strPtr("values"), Number: i32Ptr(2), Label: label(descriptorpb.FieldDescriptorProto_LABEL_REPEATED), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_INT64), JsonName: strPtr("values")},
			{Name: strPtr("meta"), Number: i32Ptr(3), Label: label(descriptorpb.FieldDescriptorProto_LABEL_REPEATED), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE), TypeName: strPtr(".test.v1.Event.MetaEntry"), JsonName: strPtr("meta")},
			{Name: strPtr("inner"), Number: i32Ptr(4), Label: label(descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL), Type: ftype(descriptorpb.FieldDescriptorProto_TYPE_MESSAGE), TypeName: strPtr(".test.v1.Inner"), JsonName: strPtr("inner")},
		},
		NestedType: []*descriptorpb.DescriptorProto{metaEntry},
	}

	syntax := "proto3"
	fdp := &descriptorpb.FileDescriptorProto{
		Name:        strPtr("test/v1/event.proto"),
		Package:     strPtr("test.v1"),
		Syntax:      &syntax,
		MessageType: []*descriptorpb.DescriptorProto{inner, event},
	}

	p := protodesc.NewPool()
	_, err := p.AddFile(fdp)
	require.NoError(t, err)
	return p.FindMessage("test.v1.Event"), p.FindMessage("test.v1.Inner")
}

func TestMarshalSingleLineFormat(t *testing.T) {
	eventMD, innerMD := buildTestPool(t)
	m := dynamic.NewMessage(eventMD)
	m.SetField(eventMD.FieldByName("id"), dynamic.Int32Value(5))
	inner := dynamic.NewMessage(innerMD)
	inner.SetField(innerMD.FieldByName("note"), dynamic.StringValue("hi"))
	m.SetField(eventMD.FieldByName("inner"), dynamic.MessageValue(inner))

	data, err := Marshal(m)
	require.NoError(t, err)
	text := string(data)
	require.Contains(t, text, "id: 5")
	require.Contains(t, text, `note: "hi"`)
	require.NotContains(t, text, "\n", "default options should produce a single line")
}

func TestRoundTripThroughUnmarshal(t *testing.T) {
	eventMD, innerMD := buildTestPool(t)
	m := dynamic.NewMessage(eventMD)
	m.SetField(eventMD.FieldByName("id"), dynamic.Int32Value(7))
	m.SetField(eventMD.FieldByName("values"), dynamic.ListValue([]dynamic.Value{dynamic.Int64Value(1), dynamic.Int64Value(2)}))
	m.SetField(eventMD.FieldByName("meta"), dynamic.MapValueOf(map[dynamic.MapKey]dynamic.Value{
		dynamic.StringMapKey("a"): dynamic.StringValue("b"),
	}))
	inner := dynamic.NewMessage(innerMD)
	inner.SetField(innerMD.FieldByName("note"), dynamic.StringValue("nested"))
	m.SetField(eventMD.FieldByName("inner"), dynamic.MessageValue(inner))

	data, err := MarshalIndent(m)
	require.NoError(t, err)

	got := dynamic.NewMessage(eventMD)
	require.NoError(t, Unmarshal(data, got))

	require.Equal(t, int32(7), got.GetField(eventMD.FieldByName("id")).Int32())
	values := got.GetField(eventMD.FieldByName("values")).List()
	require.Len(t, values, 2)
	require.Equal(t, int64(2), values[1].Int64())
	meta := got.GetField(eventMD.FieldByName("meta")).Map()
	require.Equal(t, "b", meta[dynamic.StringMapKey("a")].String())
	gotInner := got.GetField(eventMD.FieldByName("inner")).Message()
	require.Equal(t, "nested", gotInner.GetField(innerMD.FieldByName("note")).String())
}

func TestUnmarshalRejectsUnknownField(t *testing.T) {
	eventMD, _ := buildTestPool(t)
	got := dynamic.NewMessage(eventMD)
	err := Unmarshal([]byte(`notAField: 1`), got)
	require.Error(t, err, "expected an error for an unrecognized field name")
}

func TestUnmarshalRejectsUnterminatedMessage(t *testing.T) {
	eventMD, _ := buildTestPool(t)
	got := dynamic.NewMessage(eventMD)
	err := Unmarshal([]byte(`inner { note: "x"`), got)
	require.Error(t, err, "expected an error for an unterminated nested message")
}
