package grpc

import (
	"context"
	stderrors "errors"
	"net/http"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/turtacn/KeyIP-Depict/pkg/errors"
)

// ErrorDomain tags the ErrorInfo detail of every status the server returns.
const ErrorDomain = "depict.keyip"

var httpToCode = map[int]codes.Code{
	http.StatusBadRequest:            codes.InvalidArgument,
	http.StatusNotFound:              codes.NotFound,
	http.StatusConflict:              codes.FailedPrecondition,
	http.StatusRequestEntityTooLarge: codes.ResourceExhausted,
	http.StatusUnprocessableEntity:   codes.InvalidArgument,
	http.StatusTooManyRequests:       codes.ResourceExhausted,
	http.StatusNotImplemented:        codes.Unimplemented,
	http.StatusServiceUnavailable:    codes.Unavailable,
	http.StatusGatewayTimeout:        codes.DeadlineExceeded,
}

// CodeFor maps an application error code to a gRPC code.
func CodeFor(code errors.ErrorCode) codes.Code {
	if c, ok := httpToCode[errors.HTTPStatusForCode(code)]; ok {
		return c
	}
	return codes.Internal
}

// ToStatus converts err to a status carrying the application code in an
// ErrorInfo detail.  Server-side failures keep their code but their message
// is replaced by the code's default.
func ToStatus(err error) *status.Status {
	if err == nil {
		return status.New(codes.OK, "")
	}
	if st, ok := status.FromError(err); ok {
		return st
	}
	switch {
	case stderrors.Is(err, context.Canceled):
		return status.New(codes.Canceled, err.Error())
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.New(codes.DeadlineExceeded, err.Error())
	}

	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	message := errors.DefaultMessageForCode(code)
	var detail string
	var ae *errors.AppError
	if errors.IsClientError(code) && stderrors.As(err, &ae) {
		message = ae.Message
		detail = ae.Detail
	}

	info := &errdetails.ErrorInfo{Reason: code.String(), Domain: ErrorDomain}
	if detail != "" {
		info.Metadata = map[string]string{"detail": detail}
	}
	st := status.New(CodeFor(code), message)
	if withInfo, derr := st.WithDetails(info); derr == nil {
		return withInfo
	}
	return st
}

// FromError recovers the application error from a status returned by the
// server.  Statuses without an ErrorInfo detail map onto the closest
// application code.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.ErrorInfo)
		if !ok || info.Domain != ErrorDomain {
			continue
		}
		ae := errors.New(errors.ErrorCode(info.Reason), st.Message())
		if detail := info.Metadata["detail"]; detail != "" {
			ae = ae.WithDetail(detail)
		}
		return ae
	}

	var code errors.ErrorCode
	switch st.Code() {
	case codes.InvalidArgument:
		code = errors.ErrCodeBadRequest
	case codes.NotFound:
		code = errors.ErrCodeNotFound
	case codes.FailedPrecondition, codes.AlreadyExists:
		code = errors.ErrCodeConflict
	case codes.ResourceExhausted:
		code = errors.ErrCodeTooManyRequests
	case codes.Unavailable:
		code = errors.ErrCodeServiceUnavailable
	case codes.DeadlineExceeded:
		code = errors.ErrCodeTimeout
	case codes.Unimplemented:
		code = errors.ErrCodeNotImplemented
	default:
		code = errors.ErrCodeInternal
	}
	return errors.New(code, st.Message()).WithCause(err)
}

//Personal.AI order the ending
