package grpcdynamic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/protoval/protoreflect/dynamic"
)

func TestInvokeRpcRejectsStreamingMethod(t *testing.T) {
	p := buildPingPool(t)
	method := findMethod(p, "ServerStream")
	pingMD := p.FindMessage("test.v1.Ping")

	s := NewStub(nil, nil)
	req := dynamic.NewMessage(pingMD)
	req.SetField(pingMD.FieldByName("message"), dynamic.StringValue("hi"))

	_, err := s.InvokeRpc(context.Background(), method, req)
	require.Error(t, err, "expected InvokeRpc to reject a server-streaming method")
}

func TestInvokeRpcRejectsWrongMessageType(t *testing.T) {
	p := buildPingPool(t)
	method := findMethod(p, "Unary")
	pongMD := p.FindMessage("test.v1.Pong")

	s := NewStub(nil, nil)
	// Pong is the method's output type, not its input type.
	wrong := dynamic.NewMessage(pongMD)
	_, err := s.InvokeRpc(context.Background(), method, wrong)
	require.Error(t, err, "expected InvokeRpc to reject a request of the wrong message type")
}

func TestInvokeRpcServerStreamRejectsUnaryMethod(t *testing.T) {
	p := buildPingPool(t)
	method := findMethod(p, "Unary")
	pingMD := p.FindMessage("test.v1.Ping")

	s := NewStub(nil, nil)
	req := dynamic.NewMessage(pingMD)
	_, err := s.InvokeRpcServerStream(context.Background(), method, req)
	require.Error(t, err, "expected InvokeRpcServerStream to reject a unary method")
}

func TestInvokeRpcClientStreamRejectsUnaryMethod(t *testing.T) {
	p := buildPingPool(t)
	method := findMethod(p, "Unary")

	s := NewStub(nil, nil)
	_, err := s.InvokeRpcClientStream(context.Background(), method)
	require.Error(t, err, "expected InvokeRpcClientStream to reject a unary method")
}

func TestInvokeRpcBidiStreamRejectsUnaryMethod(t *testing.T) {
	p := buildPingPool(t)
	method := findMethod(p, "Unary")

	s := NewStub(nil, nil)
	_, err := s.InvokeRpcBidiStream(context.Background(), method)
	require.Error(t, err, "expected InvokeRpcBidiStream to reject a unary method")
}

func TestRequestMethodFormat(t *testing.T) {
	p := buildPingPool(t)
	method := findMethod(p, "Unary")
	require.Equal(t, "/test.v1.Pinger/Unary", requestMethod(method))
}
