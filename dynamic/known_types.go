package dynamic

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Full names of the well-known types that the canonical JSON mapping gives
// a special representation, grounded on the mapping table in
// google.golang.org/protobuf/encoding/protojson and carried here because a
// dynamic Message has no generated Go struct to dispatch on - the well
// known treatment has to key off MessageDescriptor.FullName() instead.
const (
	wktTimestamp = "google.protobuf.Timestamp"
	wktDuration  = "google.protobuf.Duration"
	wktStruct    = "google.protobuf.Struct"
	wktValue     = "google.protobuf.Value"
	wktListValue = "google.protobuf.ListValue"
	wktFieldMask = "google.protobuf.FieldMask"
	wktAny       = "google.protobuf.Any"
	wktEmpty     = "google.protobuf.Empty"
	wktNullValue = "google.protobuf.NullValue"

	wktDoubleValue = "google.protobuf.DoubleValue"
	wktFloatValue  = "google.protobuf.FloatValue"
	wktInt64Value  = "google.protobuf.Int64Value"
	wktUInt64Value = "google.protobuf.UInt64Value"
	wktInt32Value  = "google.protobuf.Int32Value"
	wktUInt32Value = "google.protobuf.UInt32Value"
	wktBoolValue   = "google.protobuf.BoolValue"
	wktStringValue = "google.protobuf.StringValue"
	wktBytesValue  = "google.protobuf.BytesValue"
)

var wrapperTypes = map[string]bool{
	wktDoubleValue: true, wktFloatValue: true, wktInt64Value: true, wktUInt64Value: true,
	wktInt32Value: true, wktUInt32Value: true, wktBoolValue: true, wktStringValue: true, wktBytesValue: true,
}

func isWellKnownType(fullName string) bool {
	switch fullName {
	case wktTimestamp, wktDuration, wktStruct, wktValue, wktListValue, wktFieldMask, wktAny, wktEmpty:
		return true
	}
	return wrapperTypes[fullName]
}

func formatTimestamp(m *Message) (string, error) {
	var s int64
	var n int32
	if v, ok := m.GetFieldByNumber(1); ok {
		s = v.Int64()
	}
	if v, ok := m.GetFieldByNumber(2); ok {
		n = v.Int32()
	}
	t := time.Unix(s, int64(n)).UTC()
	out := t.Format("2006-01-02T15:04:05")
	if n != 0 {
		frac := fmt.Sprintf("%09d", n)
		frac = strings.TrimRight(frac, "0")
		for len(frac)%3 != 0 {
			frac += "0"
		}
		out += "." + frac
	}
	return out + "Z", nil
}

func parseTimestamp(s string) (sec int64, nsec int32, err error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return 0, 0, decodeErr("InvalidValue", "invalid Timestamp %q: %v", s, err)
	}
	return t.Unix(), int32(t.Nanosecond()), nil
}

func formatDuration(m *Message) (string, error) {
	secV, secOK := m.GetFieldByNumber(1)
	nanoV, nanoOK := m.GetFieldByNumber(2)
	var s int64
	var n int32
	if secOK {
		s = secV.Int64()
	}
	if nanoOK {
		n = nanoV.Int32()
	}
	neg := s < 0 || n < 0
	if s < 0 {
		s = -s
	}
	if n < 0 {
		n = -n
	}
	out := strconv.FormatInt(s, 10)
	if n != 0 {
		frac := fmt.Sprintf("%09d", n)
		frac = strings.TrimRight(frac, "0")
		for len(frac)%3 != 0 {
			frac += "0"
		}
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out + "s", nil
}

func parseDuration(s string) (sec int64, nsec int32, err error) {
	if !strings.HasSuffix(s, "s") {
		return 0, 0, decodeErr("InvalidValue", "invalid Duration %q: missing trailing 's'", s)
	}
	s = strings.TrimSuffix(s, "s")
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	parts := strings.SplitN(s, ".", 2)
	whole, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, 0, decodeErr("InvalidValue", "invalid Duration %q: %v", s, err)
	}
	var frac int32
	if len(parts) == 2 {
		fs := parts[1]
		for len(fs) < 9 {
			fs += "0"
		}
		fs = fs[:9]
		v, err := strconv.ParseInt(fs, 10, 32)
		if err != nil {
			return 0, 0, decodeErr("InvalidValue", "invalid Duration %q: %v", s, err)
		}
		frac = int32(v)
	}
	if neg {
		whole, frac = -whole, -frac
	}
	return whole, frac, nil
}
