// Package grpcdynamic provides an RPC stub that invokes methods known only
// by MethodDescriptor, exchanging dynamic.Message request/response values
// instead of protoc-generated Go types. Grounded on
// github.com/jhump/protoreflect/grpcdynamic's Stub, adapted to this
// module's protodesc.MethodDescriptor and dynamic.Message in place of
// protoreflect.MethodDescriptor and dynamicpb.Message.
package grpcdynamic

import (
	"context"
	"fmt"
	"io"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/protoval/protoreflect/dynamic"
	"github.com/protoval/protoreflect/protodesc"
)

// Stub is an RPC client stub that dynamically dispatches RPCs to a server.
type Stub struct {
	channel grpc.ClientConnInterface
	mf      *dynamic.MessageFactory
}

// NewStub creates a stub that issues RPCs over channel. Response messages
// are created with mf, or with dynamic.NewMessageFactory() if mf is nil.
func NewStub(channel grpc.ClientConnInterface, mf *dynamic.MessageFactory) *Stub {
	if mf == nil {
		mf = dynamic.NewMessageFactory()
	}
	return &Stub{channel: channel, mf: mf}
}

func requestMethod(md *protodesc.MethodDescriptor) string {
	return fmt.Sprintf("/%s/%s", md.Parent().FullName(), md.Name())
}

func methodType(md *protodesc.MethodDescriptor) string {
	switch {
	case md.ClientStreaming() && md.ServerStreaming():
		return "bidi-streaming"
	case md.ClientStreaming():
		return "client-streaming"
	case md.ServerStreaming():
		return "server-streaming"
	default:
		return "unary"
	}
}

func checkMessageType(md *protodesc.MessageDescriptor, msg *dynamic.Message) error {
	got := msg.Descriptor().FullName()
	if got != md.FullName() {
		return fmt.Errorf("grpcdynamic: expecting message of type %s; got %s", md.FullName(), got)
	}
	return nil
}

func callOpts(opts []grpc.CallOption) []grpc.CallOption {
	return append([]grpc.CallOption{grpc.ForceCodec(dynamicCodec{})}, opts...)
}

// InvokeRpc sends a unary RPC and returns the response. Use this for unary
// methods.
func (s *Stub) InvokeRpc(ctx context.Context, method *protodesc.MethodDescriptor, request *dynamic.Message, opts ...grpc.CallOption) (*dynamic.Message, error) {
	if method.ClientStreaming() || method.ServerStreaming() {
		return nil, fmt.Errorf("grpcdynamic: InvokeRpc is for unary methods; %q is %s", method.FullName(), methodType(method))
	}
	if err := checkMessageType(method.InputType(), request); err != nil {
		return nil, err
	}
	resp := s.mf.NewMessage(method.OutputType())
	if err := s.channel.Invoke(ctx, requestMethod(method), request, resp, callOpts(opts)...); err != nil {
		return nil, err
	}
	return resp, nil
}

// InvokeRpcServerStream sends a unary request and returns the response
// stream. Use this for server-streaming methods.
func (s *Stub) InvokeRpcServerStream(ctx context.Context, method *protodesc.MethodDescriptor, request *dynamic.Message, opts ...grpc.CallOption) (*ServerStream, error) {
	if method.ClientStreaming() || !method.ServerStreaming() {
		return nil, fmt.Errorf("grpcdynamic: InvokeRpcServerStream is for server-streaming methods; %q is %s", method.FullName(), methodType(method))
	}
	if err := checkMessageType(method.InputType(), request); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	sd := grpc.StreamDesc{
		StreamName:    method.Name(),
		ServerStreams: method.ServerStreaming(),
		ClientStreams: method.ClientStreaming(),
	}
	cs, err := s.channel.NewStream(ctx, &sd, requestMethod(method), callOpts(opts)...)
	if err != nil {
		cancel()
		return nil, err
	}
	if err := cs.SendMsg(request); err != nil {
		cancel()
		return nil, err
	}
	if err := cs.CloseSend(); err != nil {
		cancel()
		return nil, err
	}
	go func() {
		<-cs.Context().Done()
		cancel()
	}()
	return &ServerStream{stream: cs, respType: method.OutputType(), mf: s.mf}, nil
}

// InvokeRpcClientStream creates a stream used to send request messages and,
// at the end, receive the single response message. Use this for
// client-streaming methods.
func (s *Stub) InvokeRpcClientStream(ctx context.Context, method *protodesc.MethodDescriptor, opts ...grpc.CallOption) (*ClientStream, error) {
	if !method.ClientStreaming() || method.ServerStreaming() {
		return nil, fmt.Errorf("grpcdynamic: InvokeRpcClientStream is for client-streaming methods; %q is %s", method.FullName(), methodType(method))
	}
	ctx, cancel := context.WithCancel(ctx)
	sd := grpc.StreamDesc{
		StreamName:    method.Name(),
		ServerStreams: method.ServerStreaming(),
		ClientStreams: method.ClientStreaming(),
	}
	cs, err := s.channel.NewStream(ctx, &sd, requestMethod(method), callOpts(opts)...)
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		<-cs.Context().Done()
		cancel()
	}()
	return &ClientStream{stream: cs, method: method, mf: s.mf, cancel: cancel}, nil
}

// InvokeRpcBidiStream creates a stream used to both send request messages
// and receive response messages. Use this for bidi-streaming methods.
func (s *Stub) InvokeRpcBidiStream(ctx context.Context, method *protodesc.MethodDescriptor, opts ...grpc.CallOption) (*BidiStream, error) {
	if !method.ClientStreaming() || !method.ServerStreaming() {
		return nil, fmt.Errorf("grpcdynamic: InvokeRpcBidiStream is for bidi-streaming methods; %q is %s", method.FullName(), methodType(method))
	}
	sd := grpc.StreamDesc{
		StreamName:    method.Name(),
		ServerStreams: method.ServerStreaming(),
		ClientStreams: method.ClientStreaming(),
	}
	cs, err := s.channel.NewStream(ctx, &sd, requestMethod(method), callOpts(opts)...)
	if err != nil {
		return nil, err
	}
	return &BidiStream{stream: cs, reqType: method.InputType(), respType: method.OutputType(), mf: s.mf}, nil
}

// ServerStream represents a response stream from a server.
type ServerStream struct {
	stream   grpc.ClientStream
	respType *protodesc.MessageDescriptor
	mf       *dynamic.MessageFactory
}

// Header returns the header metadata sent by the server, blocking until
// it arrives if necessary.
func (s *ServerStream) Header() (metadata.MD, error) { return s.stream.Header() }

// Trailer returns the server's trailer metadata. Only valid after RecvMsg
// returns a non-nil error (including io.EOF for normal completion).
func (s *ServerStream) Trailer() metadata.MD { return s.stream.Trailer() }

// Context returns the context associated with this stream.
func (s *ServerStream) Context() context.Context { return s.stream.Context() }

// RecvMsg returns the next response message, or an error (io.EOF on
// normal completion).
func (s *ServerStream) RecvMsg() (*dynamic.Message, error) {
	resp := s.mf.NewMessage(s.respType)
	if err := s.stream.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// ClientStream represents a request stream to a server that ends with a
// single response message.
type ClientStream struct {
	stream grpc.ClientStream
	method *protodesc.MethodDescriptor
	mf     *dynamic.MessageFactory
	cancel context.CancelFunc
}

// Header returns the header metadata sent by the server, blocking until
// it arrives if necessary.
func (s *ClientStream) Header() (metadata.MD, error) { return s.stream.Header() }

// Trailer returns the server's trailer metadata. Only valid after
// CloseAndReceive returns.
func (s *ClientStream) Trailer() metadata.MD { return s.stream.Trailer() }

// Context returns the context associated with this stream.
func (s *ClientStream) Context() context.Context { return s.stream.Context() }

// SendMsg sends a request message to the server.
func (s *ClientStream) SendMsg(m *dynamic.Message) error {
	if err := checkMessageType(s.method.InputType(), m); err != nil {
		return err
	}
	return s.stream.SendMsg(m)
}

// CloseAndReceive closes the outgoing request stream and blocks for the
// server's single response message.
func (s *ClientStream) CloseAndReceive() (*dynamic.Message, error) {
	if err := s.stream.CloseSend(); err != nil {
		return nil, err
	}
	resp := s.mf.NewMessage(s.method.OutputType())
	if err := s.stream.RecvMsg(resp); err != nil {
		return nil, err
	}
	extra := s.mf.NewMessage(s.method.OutputType())
	if err := s.stream.RecvMsg(extra); err != io.EOF {
		if err == nil {
			s.cancel()
			return nil, fmt.Errorf("grpcdynamic: client-streaming method %q returned more than one response message", s.method.FullName())
		}
		return nil, err
	}
	return resp, nil
}

// BidiStream represents a bidirectional stream of request and response
// messages.
type BidiStream struct {
	stream   grpc.ClientStream
	reqType  *protodesc.MessageDescriptor
	respType *protodesc.MessageDescriptor
	mf       *dynamic.MessageFactory
}

// Header returns the header metadata sent by the server, blocking until
// it arrives if necessary.
func (s *BidiStream) Header() (metadata.MD, error) { return s.stream.Header() }

// Trailer returns the server's trailer metadata. Only valid after RecvMsg
// returns a non-nil error.
func (s *BidiStream) Trailer() metadata.MD { return s.stream.Trailer() }

// Context returns the context associated with this stream.
func (s *BidiStream) Context() context.Context { return s.stream.Context() }

// SendMsg sends a request message to the server.
func (s *BidiStream) SendMsg(m *dynamic.Message) error {
	if err := checkMessageType(s.reqType, m); err != nil {
		return err
	}
	return s.stream.SendMsg(m)
}

// CloseSend indicates the request stream has ended. Call this once all
// request messages are sent, even if there were zero.
func (s *BidiStream) CloseSend() error { return s.stream.CloseSend() }

// RecvMsg returns the next response message, or an error (io.EOF on
// normal completion).
func (s *BidiStream) RecvMsg() (*dynamic.Message, error) {
	resp := s.mf.NewMessage(s.respType)
	if err := s.stream.RecvMsg(resp); err != nil {
		return nil, err
	}
	return resp, nil
}
