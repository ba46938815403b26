// Package control exposes the remote control of a graph over gRPC: pushing
// control events to filters and querying the state.
//
// The messages are google.protobuf.Struct, so the service needs no
// generated code.
package control

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ServiceName = "mediagraph.Control"

	MethodPushEvent = "PushEvent"
	MethodGetState  = "GetState"
)

const (
	FieldFilterID = "filterId"
	FieldAction   = "action"
	FieldParams   = "params"
	FieldDelayMS  = "delayMs"
)

// ControlServer is the server API of the service.
type ControlServer interface {
	// PushEvent request: {filterId, action, params, delayMs}; the response
	// is the response of the event.
	PushEvent(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

	// GetState request: {filterId} for the state of a filter, or {} for
	// the state of the whole graph.
	GetState(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ControlServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: MethodPushEvent,
			Handler:    unaryHandler(MethodPushEvent, ControlServer.PushEvent),
		},
		{
			MethodName: MethodGetState,
			Handler:    unaryHandler(MethodGetState, ControlServer.GetState),
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "mediagraph/control",
}

func fullMethodName(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryHandler(
	method string,
	call func(ControlServer, context.Context, *structpb.Struct) (*structpb.Struct, error),
) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	return func(
		srv any,
		ctx context.Context,
		dec func(any) error,
		interceptor grpc.UnaryServerInterceptor,
	) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ControlServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethodName(method),
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(ControlServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
