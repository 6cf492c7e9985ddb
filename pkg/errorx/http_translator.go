package errorx

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const (
	httpStatusCanceled = 499
)

// LogAndSetHTTPError logs the provided error and then translates it into a
// plain text http response. Only messages from this package's error types are
// echoed back to the client; anything else gets a generic message so that
// the raw input never leaks into responses for unexpected failures.
func LogAndSetHTTPError(_ context.Context, w http.ResponseWriter, logger log.Logger, err error) {
	code := http.StatusInternalServerError
	message := "unknown error"

	var errx Error
	switch {
	case errors.Is(err, context.Canceled):
		code = httpStatusCanceled
		level.Warn(logger).Log("msg", "canceled", "response_code", code, "err", err)
		message = "request canceled"
	case errors.As(err, &errx):
		code = errx.HTTPStatusCode()
		grpcCode := errx.GRPCStatus().Code()
		if code < http.StatusInternalServerError {
			level.Warn(logger).Log("msg", errx.Message(), "response_code", code, "grpc_code", grpcCode, "err", TryUnwrap(errx))
		} else {
			level.Error(logger).Log("msg", errx.Message(), "response_code", code, "grpc_code", grpcCode, "err", TryUnwrap(errx))
		}
		message = errx.Message()
	default:
		level.Error(logger).Log("msg", "unknown error", "response_code", code, "err", err)
	}

	http.Error(w, message, code)
}
