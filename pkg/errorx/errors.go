package errorx

import (
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	grpcStatus "google.golang.org/grpc/status"
)

// Error is implemented by every error type of this package. The gRPC status
// carries the code logged next to the HTTP response code.
type Error interface {
	error
	HTTPStatusCode() int
	Message() string
	GRPCStatus() *grpcStatus.Status
}

var _ Error = Internal{}

// Internal signals a broken invariant inside the library. It is never caused
// by caller input.
type Internal struct {
	Msg string
	Err error
}

func (e Internal) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e Internal) Message() string {
	return e.Msg
}

func (e Internal) Unwrap() error {
	return e.Err
}

func (e Internal) HTTPStatusCode() int {
	return http.StatusInternalServerError
}

func (e Internal) GRPCStatus() *grpcStatus.Status {
	return grpcStatus.New(codes.Internal, e.Error())
}

var _ Error = BadRequest{}

// BadRequest is returned when the input handed to an escaper is malformed.
type BadRequest struct {
	Msg string
	Err error
}

func (e BadRequest) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e BadRequest) Message() string {
	return e.Msg
}

func (e BadRequest) Unwrap() error {
	return e.Err
}

func (e BadRequest) HTTPStatusCode() int {
	return http.StatusBadRequest
}

func (e BadRequest) GRPCStatus() *grpcStatus.Status {
	return grpcStatus.New(codes.InvalidArgument, e.Error())
}

var _ Error = InvalidConfig{}

// InvalidConfig is returned when an escaper can't be constructed from the
// given parameters.
type InvalidConfig struct {
	Msg string
	Err error
}

func (e InvalidConfig) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Msg, e.Err)
	}
	return e.Msg
}

func (e InvalidConfig) Message() string {
	return e.Msg
}

func (e InvalidConfig) Unwrap() error {
	return e.Err
}

func (e InvalidConfig) HTTPStatusCode() int {
	return http.StatusBadRequest
}

func (e InvalidConfig) GRPCStatus() *grpcStatus.Status {
	return grpcStatus.New(codes.InvalidArgument, e.Error())
}

var _ Error = NotFound{}

type NotFound struct {
	Msg string
}

func (e NotFound) Error() string {
	return e.Msg
}

func (e NotFound) Message() string {
	return e.Msg
}

func (e NotFound) HTTPStatusCode() int {
	return http.StatusNotFound
}

func (e NotFound) GRPCStatus() *grpcStatus.Status {
	return grpcStatus.New(codes.NotFound, e.Error())
}

func TryUnwrap(err error) error {
	if wrapped, ok := err.(interface{ Unwrap() error }); ok {
		return wrapped.Unwrap()
	}
	return err
}
