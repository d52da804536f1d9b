package dynamic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJSONRoundTrip(t *testing.T) {
	_, eventMD, innerMD := buildTestPool(t)
	m := NewMessage(eventMD)
	m.SetField(eventMD.FieldByName("id"), Int32Value(5))
	m.SetField(eventMD.FieldByName("text"), StringValue("hi"))
	m.SetField(eventMD.FieldByName("values"), ListValue([]Value{Int64Value(1), Int64Value(2)}))
	m.SetField(eventMD.FieldByName("meta"), MapValueOf(map[MapKey]Value{StringMapKey("a"): StringValue("b")}))
	inner := NewMessage(innerMD)
	inner.SetField(innerMD.FieldByName("note"), StringValue("n"))
	m.SetField(eventMD.FieldByName("inner"), MessageValue(inner))

	data, err := MarshalJSON(m)
	require.NoError(t, err)

	got := NewMessage(eventMD)
	require.NoError(t, UnmarshalJSON(data, got))

	require.Equal(t, int32(5), got.GetField(eventMD.FieldByName("id")).Int32())
	require.Equal(t, "hi", got.GetField(eventMD.FieldByName("text")).String())

	values := got.GetField(eventMD.FieldByName("values")).List()
	require.Len(t, values, 2)
	require.Equal(t, int64(2), values[1].Int64())

	gotInner := got.GetField(eventMD.FieldByName("inner")).Message()
	require.Equal(t, "n", gotInner.GetField(innerMD.FieldByName("note")).String())
}

func TestJSONUsesCamelCaseFieldNames(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)
	m.SetField(eventMD.FieldByName("id"), Int32Value(1))

	data, err := MarshalJSON(m)
	require.NoError(t, err)
	require.Contains(t, string(data), `"id"`)
}

func TestJSONUnknownFieldRejectedByDefault(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	got := NewMessage(eventMD)
	err := UnmarshalJSON([]byte(`{"notAField": 1}`), got)
	require.Error(t, err, "expected an error for an unrecognized json field")
}

func TestJSONDiscardUnknown(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	got := NewMessage(eventMD)
	opts := UnmarshalOptions{DiscardUnknown: true}
	require.NoError(t, opts.Unmarshal([]byte(`{"notAField": 1, "id": 9}`), got))
	require.Equal(t, int32(9), got.GetField(eventMD.FieldByName("id")).Int32())
}

func TestJSONEmitUnpopulated(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)
	opts := MarshalOptions{EmitUnpopulated: true}
	data, err := opts.Marshal(m)
	require.NoError(t, err)
	require.Contains(t, string(data), `"id":0`, "expected unpopulated scalar field to be emitted at its default")
}

func TestJSONUnknownEnumNameRejectedByDefault(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	got := NewMessage(eventMD)
	err := UnmarshalJSON([]byte(`{"status": "BOGUS"}`), got)
	require.Error(t, err, "expected an error for an unrecognized enum name")
	derr, ok := err.(*DecodeError)
	require.True(t, ok, "expected a *dynamic.DecodeError")
	require.Equal(t, "UnknownEnumValue", derr.Kind)
}

func TestJSONUnknownEnumNameDiscarded(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	got := NewMessage(eventMD)
	opts := UnmarshalOptions{DiscardUnknown: true}
	require.NoError(t, opts.Unmarshal([]byte(`{"status": "BOGUS", "id": 4}`), got))
	require.False(t, got.HasFieldName("status"), "expected an unrecognized enum name to leave the field unset")
	require.Equal(t, int32(4), got.GetField(eventMD.FieldByName("id")).Int32())
}

func TestJSONNullClearsField(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)
	m.SetField(eventMD.FieldByName("id"), Int32Value(3))
	require.NoError(t, UnmarshalJSON([]byte(`{"id": null}`), m))
	require.False(t, m.HasFieldName("id"), "expected json null to clear the field")
}
