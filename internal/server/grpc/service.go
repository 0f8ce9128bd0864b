package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified name of the admin service. Requests
// and replies are protobuf well-known types; reports travel as
// google.protobuf.Struct holding their JSON form.
const ServiceName = "gophledger.admin.AdminService"

const (
	MethodReconcile         = "Reconcile"
	MethodAudit             = "Audit"
	MethodResetEntitlements = "ResetEntitlements"
	MethodDeleteUser        = "DeleteUser"
	MethodEntitlement       = "Entitlement"
	MethodConsumeUnit       = "ConsumeUnit"
	MethodPing              = "Ping"
)

// FullMethod returns "/gophledger.admin.AdminService/<name>".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// AdminServiceServer is implemented by GRPCServer.
type AdminServiceServer interface {
	Reconcile(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Audit(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetEntitlements(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteUser(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Entitlement(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ConsumeUnit(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Ping(context.Context, *emptypb.Empty) (*emptypb.Empty, error)
}

func unaryMethod[Req proto.Message](name string, newReq func() Req, call func(AdminServiceServer, context.Context, Req) (proto.Message, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newReq()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(AdminServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(AdminServiceServer), ctx, req.(Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func newStruct() *structpb.Struct       { return &structpb.Struct{} }
func newString() *wrapperspb.StringValue { return &wrapperspb.StringValue{} }

// ServiceDesc describes the admin service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AdminServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodReconcile, newStruct, func(s AdminServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Reconcile(ctx, in)
		}),
		unaryMethod(MethodAudit, newStruct, func(s AdminServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.Audit(ctx, in)
		}),
		unaryMethod(MethodResetEntitlements, newStruct, func(s AdminServiceServer, ctx context.Context, in *structpb.Struct) (proto.Message, error) {
			return s.ResetEntitlements(ctx, in)
		}),
		unaryMethod(MethodDeleteUser, newString, func(s AdminServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.DeleteUser(ctx, in)
		}),
		unaryMethod(MethodEntitlement, newString, func(s AdminServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.Entitlement(ctx, in)
		}),
		unaryMethod(MethodConsumeUnit, newString, func(s AdminServiceServer, ctx context.Context, in *wrapperspb.StringValue) (proto.Message, error) {
			return s.ConsumeUnit(ctx, in)
		}),
		unaryMethod(MethodPing, func() *emptypb.Empty { return &emptypb.Empty{} }, func(s AdminServiceServer, ctx context.Context, in *emptypb.Empty) (proto.Message, error) {
			return s.Ping(ctx, in)
		}),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophledger/admin.proto",
}
