package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

// AdminClient calls a remote admin service. It satisfies services.Admin,
// mapping status codes back onto the common sentinel errors.
type AdminClient struct {
	conn        *grpc.ClientConn
	accessToken string
}

var _ services.Admin = (*AdminClient)(nil)

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)
	return metadata.NewOutgoingContext(ctx, md)
}

func (c *AdminClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if c.accessToken != "" {
		ctx = withAccessToken(ctx, c.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewAdminClient connects to endpointURL. Extra options are appended to the
// defaults (insecure transport, token interceptor).
func NewAdminClient(endpointURL, accessToken string, opts ...grpc.DialOption) (*AdminClient, error) {
	c := &AdminClient{accessToken: accessToken}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, dialOpts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	return c, nil
}

func (c *AdminClient) Close() error {
	return c.conn.Close()
}

// call invokes method and decodes the reply, or the result attached to a
// failed status, into a T.
func call[T any](ctx context.Context, c *AdminClient, method string, in proto.Message) (*T, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, FullMethod(method), in, out); err != nil {
		st := status.Convert(err)
		mapped := errorFromStatus(st)
		for _, d := range st.Details() {
			if s, ok := d.(*structpb.Struct); ok {
				var res T
				if derr := fromStruct(s, &res); derr == nil {
					return &res, mapped
				}
			}
		}
		return nil, mapped
	}

	var res T
	if err := fromStruct(out, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func optionsStruct(opts services.ReconcileOptions) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"repairProfiles": structpb.NewBoolValue(opts.RepairProfiles),
		"repairData":     structpb.NewBoolValue(opts.RepairData),
	}}
}

func (c *AdminClient) Reconcile(ctx context.Context, opts services.ReconcileOptions) (*services.ReconciliationReport, error) {
	return call[services.ReconciliationReport](ctx, c, MethodReconcile, optionsStruct(opts))
}

func (c *AdminClient) Audit(ctx context.Context, opts services.ReconcileOptions) (*services.AuditReport, error) {
	return call[services.AuditReport](ctx, c, MethodAudit, optionsStruct(opts))
}

func (c *AdminClient) ResetAllEntitlements(ctx context.Context, baseline int64) (*services.ResetReport, error) {
	in := &structpb.Struct{Fields: map[string]*structpb.Value{
		"baseline": structpb.NewNumberValue(float64(baseline)),
	}}
	return call[services.ResetReport](ctx, c, MethodResetEntitlements, in)
}

func (c *AdminClient) DeleteUser(ctx context.Context, uid string) (*services.DeleteResult, error) {
	return call[services.DeleteResult](ctx, c, MethodDeleteUser, wrapperspb.String(uid))
}

func (c *AdminClient) Check(ctx context.Context, uid string) (services.AccessDecision, error) {
	res, err := call[services.AccessDecision](ctx, c, MethodEntitlement, wrapperspb.String(uid))
	if err != nil {
		return services.AccessDecision{}, err
	}
	return *res, nil
}

func (c *AdminClient) ConsumeUnit(ctx context.Context, uid string) (services.ConsumeResult, error) {
	res, err := call[services.ConsumeResult](ctx, c, MethodConsumeUnit, wrapperspb.String(uid))
	if err != nil {
		return services.ConsumeResult{}, err
	}
	return *res, nil
}

func (c *AdminClient) Ping(ctx context.Context) error {
	return c.conn.Invoke(ctx, FullMethod(MethodPing), &emptypb.Empty{}, &emptypb.Empty{})
}
