package grpc

import (
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/dmitrijs2005/gophledger/internal/common"
)

// toStruct converts a report into a Struct through its JSON encoding.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// fromStruct decodes s into out, which must be a pointer.
func fromStruct(s *structpb.Struct, out any) error {
	b, err := protojson.Marshal(s)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// codeFor maps operation errors to gRPC codes.
func codeFor(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, common.ErrInvalidArgument):
		return codes.InvalidArgument
	case errors.Is(err, common.ErrorNotFound):
		return codes.NotFound
	case errors.Is(err, common.ErrPartialDelete):
		return codes.Aborted
	case errors.Is(err, common.ErrTransientStore):
		return codes.Unavailable
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// errorFromStatus maps a status back onto the common sentinels so that
// remote callers can use errors.Is like local ones.
func errorFromStatus(st *status.Status) error {
	var sentinel error
	switch st.Code() {
	case codes.OK:
		return nil
	case codes.InvalidArgument:
		sentinel = common.ErrInvalidArgument
	case codes.NotFound:
		sentinel = common.ErrorNotFound
	case codes.Aborted:
		sentinel = common.ErrPartialDelete
	case codes.Unavailable:
		sentinel = common.ErrTransientStore
	case codes.Unauthenticated:
		if st.Message() == common.ErrTokenExpired.Error() {
			return common.ErrTokenExpired
		}
		sentinel = common.ErrorUnauthorized
	default:
		return st.Err()
	}
	return fmt.Errorf("%w: %s", sentinel, st.Message())
}
