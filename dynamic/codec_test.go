package dynamic

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protoval/protoreflect/wireformat"
)

func TestBinaryRoundTrip(t *testing.T) {
	_, eventMD, innerMD := buildTestPool(t)
	m := NewMessage(eventMD)
	m.SetField(eventMD.FieldByName("id"), Int32Value(42))
	m.SetField(eventMD.FieldByName("text"), StringValue("hello"))
	m.SetField(eventMD.FieldByName("values"), ListValue([]Value{Int64Value(1), Int64Value(-2), Int64Value(3)}))
	m.SetField(eventMD.FieldByName("meta"), MapValueOf(map[MapKey]Value{StringMapKey("k"): StringValue("v")}))
	inner := NewMessage(innerMD)
	inner.SetField(innerMD.FieldByName("note"), StringValue("nested"))
	m.SetField(eventMD.FieldByName("inner"), MessageValue(inner))

	data, err := Marshal(m)
	require.NoError(t, err)

	got := NewMessage(eventMD)
	require.NoError(t, Unmarshal(data, got))

	require.Equal(t, int32(42), got.GetField(eventMD.FieldByName("id")).Int32())
	require.Equal(t, "hello", got.GetField(eventMD.FieldByName("text")).String())
	require.False(t, got.HasFieldName("blob"), "blob should not be populated (oneof)")

	values := got.GetField(eventMD.FieldByName("values")).List()
	require.Len(t, values, 3)
	require.Equal(t, int64(-2), values[1].Int64())

	meta := got.GetField(eventMD.FieldByName("meta")).Map()
	require.Equal(t, "v", meta[StringMapKey("k")].String())

	gotInner := got.GetField(eventMD.FieldByName("inner")).Message()
	require.Equal(t, "nested", gotInner.GetField(innerMD.FieldByName("note")).String())
}

func TestUnknownFieldPreservation(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)
	m.SetField(eventMD.FieldByName("id"), Int32Value(7))
	data, err := Marshal(m)
	require.NoError(t, err)

	// Append a field number not declared on Event.
	w := wireformat.NewWriter()
	w.EncodeTag(99, wireformat.WireVarint)
	w.EncodeVarint(12345)
	data = append(data, w.Bytes()...)

	got := NewMessage(eventMD)
	require.NoError(t, Unmarshal(data, got))

	unk := got.UnknownFields()
	require.Len(t, unk, 1)
	require.Equal(t, int32(99), unk[0].Number)

	reencoded, err := Marshal(got)
	require.NoError(t, err)
	require.Equal(t, data, reencoded, "re-encoding did not reproduce the unknown field verbatim")
}

func TestPackedUnpackedDecodeTolerance(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)

	// Hand-encode "values" (repeated int64) unpacked: one tag per element.
	w := wireformat.NewWriter()
	for _, v := range []int64{10, 20, 30} {
		w.EncodeTag(4, wireformat.WireVarint)
		w.EncodeVarint(uint64(v))
	}

	got := NewMessage(eventMD)
	require.NoError(t, Unmarshal(w.Bytes(), got))

	values := got.GetField(eventMD.FieldByName("values")).List()
	require.Len(t, values, 3)
	require.Equal(t, int64(30), values[2].Int64())
}

func TestWireTypeMismatchPreservedAsUnknown(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)

	// "id" is declared int32 (wire type Varint). Encode it instead with
	// wire type Fixed64, a declared-field/wire-type mismatch.
	w := wireformat.NewWriter()
	w.EncodeTag(1, wireformat.WireFixed64)
	w.EncodeFixed64(0xdeadbeef)
	// Follow it with a well-formed occurrence of "values" to confirm the
	// decoder didn't lose its place in the buffer.
	w.EncodeTag(4, wireformat.WireVarint)
	w.EncodeVarint(7)

	got := NewMessage(eventMD)
	require.NoError(t, Unmarshal(w.Bytes(), got))

	require.False(t, got.HasFieldName("id"), "mismatched wire type should not populate the declared field")
	values := got.GetField(eventMD.FieldByName("values")).List()
	require.Len(t, values, 1)
	require.Equal(t, int64(7), values[0].Int64())

	unk := got.UnknownFields()
	require.Len(t, unk, 1)
	require.Equal(t, int32(1), unk[0].Number)
	require.Equal(t, wireformat.WireFixed64, unk[0].WireType)
}

func TestMessageMergeOnRedecode(t *testing.T) {
	_, eventMD, innerMD := buildTestPool(t)

	first := NewMessage(eventMD)
	inner1 := NewMessage(innerMD)
	inner1.SetField(innerMD.FieldByName("note"), StringValue("first"))
	first.SetField(eventMD.FieldByName("inner"), MessageValue(inner1))
	data1, err := Marshal(first)
	require.NoError(t, err)

	second := NewMessage(eventMD)
	inner2 := NewMessage(innerMD)
	inner2.SetField(innerMD.FieldByName("count"), Int32Value(5))
	second.SetField(eventMD.FieldByName("inner"), MessageValue(inner2))
	data2, err := Marshal(second)
	require.NoError(t, err)

	got := NewMessage(eventMD)
	require.NoError(t, Unmarshal(append(data1, data2...), got))

	gotInner := got.GetField(eventMD.FieldByName("inner")).Message()
	require.Equal(t, "first", gotInner.GetField(innerMD.FieldByName("note")).String(),
		"expected note from the first occurrence to survive merge")
	require.Equal(t, int32(5), gotInner.GetField(innerMD.FieldByName("count")).Int32(),
		"expected count from the second occurrence to survive merge")
}
