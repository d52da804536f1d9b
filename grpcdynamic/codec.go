package grpcdynamic

import (
	"fmt"

	"github.com/protoval/protoreflect/dynamic"
	"google.golang.org/grpc/encoding"
)

// codecName is registered as a gRPC wire subtype so a Stub's calls carry
// dynamic messages without the codec machinery ever needing a
// protoc-generated Go type.
const codecName = "protoval-dynamic+proto"

// dynamicCodec marshals/unmarshals *dynamic.Message using this module's
// own binary wire codec (dynamic.Marshal/dynamic.Unmarshal) in place of
// google.golang.org/protobuf/proto, grounded on jhump-protoreflect's
// grpcdynamic stub, which instead relies on dynamicpb (a proto.Message
// implementation) so the stock grpc codec could be reused unmodified.
// Because this module's Message intentionally does not implement
// proto.Message (it is a closed Value sum, not a reflect.Message), the
// stub instead forces this codec via grpc.ForceCodec on every call.
type dynamicCodec struct{}

func (dynamicCodec) Name() string { return codecName }

func (dynamicCodec) Marshal(v interface{}) ([]byte, error) {
	m, ok := v.(*dynamic.Message)
	if !ok {
		return nil, fmt.Errorf("grpcdynamic: cannot marshal %T, want *dynamic.Message", v)
	}
	return dynamic.Marshal(m)
}

func (dynamicCodec) Unmarshal(data []byte, v interface{}) error {
	m, ok := v.(*dynamic.Message)
	if !ok {
		return fmt.Errorf("grpcdynamic: cannot unmarshal into %T, want *dynamic.Message", v)
	}
	return dynamic.Unmarshal(data, m)
}

func init() {
	encoding.RegisterCodec(dynamicCodec{})
}
