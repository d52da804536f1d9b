package dynamic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOneofLastWins(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)

	textFd := eventMD.FieldByName("text")
	blobFd := eventMD.FieldByName("blob")

	m.SetField(textFd, StringValue("hello"))
	require.True(t, m.HasField(textFd))

	m.SetField(blobFd, BytesValue([]byte("bytes")))
	require.False(t, m.HasField(textFd), "expected text to be cleared once blob is set (oneof)")
	require.True(t, m.HasField(blobFd))
}

func TestDefaultValuesForUnpopulatedFields(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)

	idFd := eventMD.FieldByName("id")
	require.Equal(t, int32(0), m.GetField(idFd).Int32())

	valuesFd := eventMD.FieldByName("values")
	require.Empty(t, m.GetField(valuesFd).List())

	metaFd := eventMD.FieldByName("meta")
	require.Empty(t, m.GetField(metaFd).Map())
}

func TestRepeatedAndMapFields(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)

	valuesFd := eventMD.FieldByName("values")
	m.SetField(valuesFd, ListValue([]Value{Int64Value(1), Int64Value(2), Int64Value(3)}))
	got := m.GetField(valuesFd).List()
	require.Len(t, got, 3)
	require.Equal(t, int64(2), got[1].Int64())

	metaFd := eventMD.FieldByName("meta")
	m.SetField(metaFd, MapValueOf(map[MapKey]Value{
		StringMapKey("a"): StringValue("1"),
		StringMapKey("b"): StringValue("2"),
	}))
	mp := m.GetField(metaFd).Map()
	require.Len(t, mp, 2)
	require.Equal(t, "1", mp[StringMapKey("a")].String())
}

func TestTrySetFieldRejectsWrongKind(t *testing.T) {
	_, eventMD, _ := buildTestPool(t)
	m := NewMessage(eventMD)
	idFd := eventMD.FieldByName("id")
	err := m.TrySetField(idFd, StringValue("not an int"))
	require.Error(t, err, "expected a kind-mismatch error")
}

func TestNestedMessageField(t *testing.T) {
	_, eventMD, innerMD := buildTestPool(t)
	m := NewMessage(eventMD)
	inner := NewMessage(innerMD)
	inner.SetField(innerMD.FieldByName("note"), StringValue("hi"))

	innerFd := eventMD.FieldByName("inner")
	m.SetField(innerFd, MessageValue(inner))

	got := m.GetField(innerFd).Message()
	require.Equal(t, "hi", got.GetField(innerMD.FieldByName("note")).String())
}

func TestCloneIsDeep(t *testing.T) {
	_, eventMD, innerMD := buildTestPool(t)
	m := NewMessage(eventMD)
	inner := NewMessage(innerMD)
	inner.SetField(innerMD.FieldByName("note"), StringValue("original"))
	m.SetField(eventMD.FieldByName("inner"), MessageValue(inner))

	clone := m.Clone()
	inner.SetField(innerMD.FieldByName("note"), StringValue("mutated"))

	clonedInner := clone.GetField(eventMD.FieldByName("inner")).Message()
	require.Equal(t, "original", clonedInner.GetField(innerMD.FieldByName("note")).String(),
		"clone shared state with the original message")
}
