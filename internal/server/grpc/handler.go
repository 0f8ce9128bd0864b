package grpc

import (
	"context"
	"fmt"
	"math"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/dmitrijs2005/gophledger/internal/common"
	"github.com/dmitrijs2005/gophledger/internal/server/services"
)

// reply converts an operation outcome into a response. When err is set and
// a result exists, the result travels as a status detail so the caller
// still gets the full summary.
func reply[T any](ctx context.Context, s *GRPCServer, op string, result *T, err error) (*structpb.Struct, error) {
	var body *structpb.Struct
	if result != nil {
		var cerr error
		if body, cerr = toStruct(result); cerr != nil {
			s.logger.Error(ctx, "encode result", "op", op, "error", cerr)
			return nil, status.Error(codes.Internal, cerr.Error())
		}
	}
	if err == nil {
		return body, nil
	}

	s.logger.Warn(ctx, "admin operation failed", "op", op, "subject", Subject(ctx), "error", err)
	st := status.New(codeFor(err), err.Error())
	if body != nil {
		if withDetail, derr := st.WithDetails(body); derr == nil {
			st = withDetail
		}
	}
	return nil, st.Err()
}

func reconcileOptions(in *structpb.Struct) services.ReconcileOptions {
	f := in.GetFields()
	return services.ReconcileOptions{
		RepairProfiles: f["repairProfiles"].GetBoolValue(),
		RepairData:     f["repairData"].GetBoolValue(),
	}
}

func (s *GRPCServer) Reconcile(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	report, err := s.ops.Reconcile(ctx, reconcileOptions(in))
	return reply(ctx, s, "reconcile", report, err)
}

func (s *GRPCServer) Audit(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	report, err := s.ops.Audit(ctx, reconcileOptions(in))
	return reply(ctx, s, "audit", report, err)
}

func (s *GRPCServer) baseline(in *structpb.Struct) (int64, error) {
	v, ok := in.GetFields()["baseline"]
	if !ok {
		return s.defaultBaseline, nil
	}
	n, isNum := v.GetKind().(*structpb.Value_NumberValue)
	if !isNum || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > 1<<53 {
		return 0, fmt.Errorf("%w: baseline must be an integer", common.ErrInvalidArgument)
	}
	return int64(n.NumberValue), nil
}

func (s *GRPCServer) ResetEntitlements(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	baseline, err := s.baseline(in)
	if err != nil {
		return reply[services.ResetReport](ctx, s, "reset-entitlements", nil, err)
	}
	report, err := s.ops.ResetAllEntitlements(ctx, baseline)
	return reply(ctx, s, "reset-entitlements", report, err)
}

func (s *GRPCServer) DeleteUser(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.ops.DeleteUser(ctx, in.GetValue())
	return reply(ctx, s, "delete-user", res, err)
}

func (s *GRPCServer) Entitlement(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	decision, err := s.ops.Check(ctx, in.GetValue())
	if err != nil {
		return reply[services.AccessDecision](ctx, s, "entitlement", nil, err)
	}
	return reply(ctx, s, "entitlement", &decision, nil)
}

func (s *GRPCServer) ConsumeUnit(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	res, err := s.ops.ConsumeUnit(ctx, in.GetValue())
	if err != nil {
		return reply[services.ConsumeResult](ctx, s, "consume", nil, err)
	}
	return reply(ctx, s, "consume", &res, nil)
}

func (s *GRPCServer) Ping(ctx context.Context, _ *emptypb.Empty) (*emptypb.Empty, error) {
	return &emptypb.Empty{}, nil
}
