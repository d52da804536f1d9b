package dynamic

import (
	"sync"

	"github.com/protoval/protoreflect/protodesc"
)

// ExtensionRegistry is a runtime index of extension fields beyond whatever
// a Pool already resolved from its own loaded file set, grounded on
// github.com/jhump/protoreflect/dynamic's ExtensionRegistry: callers
// register extensions defined in files their Pool never loaded (or wish to
// resolve against extendee ranges dynamically) and pass the registry to
// NewMessageWithExtensionRegistry so the field store and codec consult it
// for unknown field numbers that fall in one of the extendee's ranges.
type ExtensionRegistry struct {
	mu   sync.RWMutex
	byNum map[string]map[int32]*protodesc.FieldDescriptor
}

// NewExtensionRegistry returns an empty registry.
func NewExtensionRegistry() *ExtensionRegistry {
	return &ExtensionRegistry{byNum: map[string]map[int32]*protodesc.FieldDescriptor{}}
}

// Add registers ext, which must be an extension field (Extendee() != nil).
func (r *ExtensionRegistry) Add(ext *protodesc.FieldDescriptor) {
	if ext == nil || ext.Extendee() == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	extendee := ext.Extendee().FullName()
	m := r.byNum[extendee]
	if m == nil {
		m = map[int32]*protodesc.FieldDescriptor{}
		r.byNum[extendee] = m
	}
	m[ext.Number()] = ext
}

// AddAll registers every extension field found in fd (file-level and
// nested within any message).
func (r *ExtensionRegistry) AddAll(fd *protodesc.FileDescriptor) {
	for _, ext := range fd.Extensions() {
		r.Add(ext)
	}
	for _, md := range fd.Messages() {
		r.addAllFromMessage(md)
	}
}

func (r *ExtensionRegistry) addAllFromMessage(md *protodesc.MessageDescriptor) {
	for _, ext := range md.Extensions() {
		r.Add(ext)
	}
	for _, nested := range md.NestedMessages() {
		r.addAllFromMessage(nested)
	}
}

// Find returns the extension field registered for (extendee, number), or
// nil.
func (r *ExtensionRegistry) Find(extendee string, number int32) *protodesc.FieldDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byNum[extendee][number]
}

// AllExtensions returns every extension field registered against extendee.
func (r *ExtensionRegistry) AllExtensions(extendee string) []*protodesc.FieldDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.byNum[extendee]
	out := make([]*protodesc.FieldDescriptor, 0, len(m))
	for _, fd := range m {
		out = append(out, fd)
	}
	return out
}
