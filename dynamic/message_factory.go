package dynamic

import "github.com/protoval/protoreflect/protodesc"

// MessageFactory creates empty dynamic messages pre-wired with a given
// extension registry, grounded on github.com/jhump/protoreflect/dynamic's
// MessageFactory. The teacher's factory can also hand back a
// protoc-generated Go struct for "known types" (interface{}-typed
// proto.Message results); that doesn't apply here, since Value is a
// closed sum rather than interface{} - well-known-type handling instead
// lives in the JSON layer's full-name dispatch (known_types.go), which
// every dynamic Message of that type gets automatically.
type MessageFactory struct {
	er *ExtensionRegistry
}

// NewMessageFactory returns a factory producing plain dynamic messages
// with no extension registry.
func NewMessageFactory() *MessageFactory { return &MessageFactory{} }

// NewMessageFactoryWithExtensionRegistry returns a factory whose messages
// consult er to resolve extension fields.
func NewMessageFactoryWithExtensionRegistry(er *ExtensionRegistry) *MessageFactory {
	return &MessageFactory{er: er}
}

// NewMessage creates a new empty message of the given type.
func (f *MessageFactory) NewMessage(md *protodesc.MessageDescriptor) *Message {
	if f == nil || f.er == nil {
		return NewMessage(md)
	}
	return NewMessageWithExtensionRegistry(md, f.er)
}

// ExtensionRegistry returns the registry this factory's messages use, or
// nil.
func (f *MessageFactory) ExtensionRegistry() *ExtensionRegistry {
	if f == nil {
		return nil
	}
	return f.er
}
