package wireformat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagRoundTrip(t *testing.T) {
	cases := []struct {
		num int32
		wt  WireType
	}{
		{1, WireVarint},
		{15, WireFixed64},
		{16, WireBytes},
		{536870911, WireFixed32},
	}
	for _, c := range cases {
		tag := EncodeTag(c.num, c.wt)
		gotNum, gotWT := DecodeTag(tag)
		require.Equal(t, c.num, gotNum)
		require.Equal(t, c.wt, gotWT)
	}
}

func TestZigzag32RoundTrip(t *testing.T) {
	for _, v := range []int32{0, 1, -1, 2147483647, -2147483648, 42, -42} {
		require.Equal(t, v, ZigzagDecode32(Zigzag32(v)))
	}
}

func TestZigzag64RoundTrip(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 9223372036854775807, -9223372036854775808} {
		require.Equal(t, v, ZigzagDecode64(Zigzag64(v)))
	}
}

func TestBufferVarintRoundTrip(t *testing.T) {
	w := NewWriter()
	vals := []uint64{0, 1, 127, 128, 300, 1 << 40, ^uint64(0)}
	for _, v := range vals {
		w.EncodeVarint(v)
	}
	r := NewBuffer(w.Bytes())
	for _, want := range vals {
		got, err := r.DecodeVarint()
		require.NoError(t, err)
		require.Equal(t, want, got)
	}
	require.True(t, r.EOF(), "expected buffer to be exhausted")
}

func TestBufferFixedRoundTrip(t *testing.T) {
	w := NewWriter()
	w.EncodeFixed32(0xdeadbeef)
	w.EncodeFixed64(0x0102030405060708)
	r := NewBuffer(w.Bytes())
	f32, err := r.DecodeFixed32()
	require.NoError(t, err)
	require.Equal(t, uint32(0xdeadbeef), f32)
	f64, err := r.DecodeFixed64()
	require.NoError(t, err)
	require.Equal(t, uint64(0x0102030405060708), f64)
}

func TestBufferRawBytesRoundTrip(t *testing.T) {
	w := NewWriter()
	w.EncodeRawBytes([]byte("hello world"))
	r := NewBuffer(w.Bytes())
	got, err := r.DecodeRawBytes()
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))
}

func TestDecodeVarintTruncated(t *testing.T) {
	r := NewBuffer([]byte{0x80, 0x80})
	_, err := r.DecodeVarint()
	require.Error(t, err, "expected truncated-varint error")
}

func TestPackableWireType(t *testing.T) {
	wt, ok := PackableWireType(KindInt32)
	require.True(t, ok)
	require.Equal(t, WireVarint, wt)

	_, ok = PackableWireType(KindString)
	require.False(t, ok, "String should not be packable")

	_, ok = PackableWireType(KindMessage)
	require.False(t, ok, "Message should not be packable")
}
