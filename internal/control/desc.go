package control

import (
	"context"

	"google.golang.org/grpc"

	"go.klb.dev/pinpaste/internal/message"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "pinpaste.v1.Control"

func fullMethod(name string) string { return "/" + ServiceName + "/" + name }

// unary builds a MethodDesc whose request is decoded into a new Req.
func unary[Req, Resp any](name string, fn func(*Service, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(*Service)
			if interceptor == nil {
				return fn(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return fn(s, ctx, req.(*Req))
			})
		},
	}
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(message.WatchRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(*Service).Watch(in, stream)
}

// ServiceDesc describes the Control service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*any)(nil),
	Methods: []grpc.MethodDesc{
		unary("History", (*Service).History),
		unary("Get", (*Service).Get),
		unary("Paste", (*Service).Paste),
		unary("Delete", (*Service).Delete),
		unary("Clear", (*Service).Clear),
		unary("ShowImage", (*Service).ShowImage),
		unary("Edit", (*Service).Edit),
		unary("Save", (*Service).Save),
		unary("Toggle", (*Service).Toggle),
		unary("Activate", (*Service).Activate),
		unary("Quit", (*Service).Quit),
		unary("WindowEvent", (*Service).WindowEvent),
		unary("ReportDisplay", (*Service).ReportDisplay),
		unary("Status", (*Service).Status),
		unary("StorageInfo", (*Service).StorageInfo),
		unary("AutoLaunchStatus", (*Service).AutoLaunchStatus),
		unary("EnableAutoLaunch", (*Service).EnableAutoLaunch),
		unary("OpenStorageFolder", (*Service).OpenStorageFolder),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Watch",
			Handler:       watchHandler,
			ServerStreams: true,
		},
	},
	Metadata: "pinpaste/v1/control",
}
