// Package protoregistry holds the process-wide default descriptor pool:
// lazily seeded with the well-known types so any program using this
// module can resolve google.protobuf.{Timestamp,Duration,Struct,Any,...}
// without explicitly loading their descriptors, then grown by whatever
// application file descriptors get registered at startup.
//
// Grounded on google.golang.org/protobuf/reflect/protoregistry's
// GlobalFiles/GlobalTypes pattern, adapted to this module's own Pool type
// (component B/C/D) instead of the upstream protoreflect.FileDescriptor
// graph.
package protoregistry

import (
	"sync"
	"sync/atomic"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	stdprotodesc "google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/types/descriptorpb"
	anypb "google.golang.org/protobuf/types/known/anypb"
	durationpb "google.golang.org/protobuf/types/known/durationpb"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
	fieldmaskpb "google.golang.org/protobuf/types/known/fieldmaskpb"
	structpb "google.golang.org/protobuf/types/known/structpb"
	timestamppb "google.golang.org/protobuf/types/known/timestamppb"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/protoval/protoreflect/protodesc"
)

// wellKnownSeeds lists one representative message per well-known-types
// file; registering its file descriptor (and its dependencies) is enough
// to admit that whole file to a Pool.
var wellKnownSeeds = []proto.Message{
	&anypb.Any{},
	&durationpb.Duration{},
	&emptypb.Empty{},
	&fieldmaskpb.FieldMask{},
	&structpb.Struct{},
	&timestamppb.Timestamp{},
	&wrapperspb.DoubleValue{},
}

var (
	globalMu   sync.Mutex
	globalPool atomic.Pointer[protodesc.Pool]
	seedOnce   sync.Once
)

// Global returns the process-wide default pool, seeding it with the
// well-known types on first use. Global itself is a lock-free atomic
// pointer load; lookups on the returned Pool take the Pool's read lock.
// RegisterFileDescriptorProto/RegisterMessageFile serialize among
// themselves with globalMu, since growing the pool is rare compared to
// reading it.
func Global() *protodesc.Pool {
	seedOnce.Do(func() {
		p := protodesc.NewPool()
		for _, m := range wellKnownSeeds {
			if err := addFileTransitive(p, m.ProtoReflect().Descriptor().ParentFile()); err != nil {
				// The well-known type descriptors shipped by
				// google.golang.org/protobuf are internally consistent; a
				// failure here means this module's own validation logic
				// disagrees with upstream, which is a bug worth failing
				// loudly on rather than leaving the pool half-seeded.
				panic("protoregistry: failed to seed well-known types: " + err.Error())
			}
		}
		globalPool.Store(p)
	})
	return globalPool.Load()
}

// RegisterMessageFile admits the file descriptor of m's type, and every
// file it transitively depends on, to the global pool.
func RegisterMessageFile(m proto.Message) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	return addFileTransitive(Global(), m.ProtoReflect().Descriptor().ParentFile())
}

// RegisterFileDescriptorProto admits fdp to the global pool. Its
// dependencies must already be registered.
func RegisterFileDescriptorProto(fdp *descriptorpb.FileDescriptorProto) error {
	globalMu.Lock()
	defer globalMu.Unlock()
	p := Global()
	if p.FindFileByPath(fdp.GetName()) != nil {
		return nil
	}
	_, err := p.AddFile(fdp)
	return err
}

func addFileTransitive(p *protodesc.Pool, fd protoreflect.FileDescriptor) error {
	if p.FindFileByPath(fd.Path()) != nil {
		return nil
	}
	imports := fd.Imports()
	for i := 0; i < imports.Len(); i++ {
		if err := addFileTransitive(p, imports.Get(i).FileDescriptor); err != nil {
			return err
		}
	}
	if p.FindFileByPath(fd.Path()) != nil {
		return nil
	}
	_, err := p.AddFile(stdprotodesc.ToFileDescriptorProto(fd))
	return err
}
