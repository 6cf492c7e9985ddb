package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// StatusClientClosedRequest is the status code used when the client goes away
// before its request body could be read.
const StatusClientClosedRequest = 499

type RequestLimits struct {
	maxRequestBodySize int64
	logger             log.Logger
}

func NewRequestLimitsMiddleware(maxRequestBodySize int64, logger log.Logger) *RequestLimits {
	return &RequestLimits{
		maxRequestBodySize: maxRequestBodySize,
		logger:             logger,
	}
}

// Wrap implements middleware.Interface
func (l RequestLimits) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reader := io.LimitReader(r.Body, l.maxRequestBodySize+1)
		body, err := io.ReadAll(reader)
		if err != nil {
			code := readErrorStatusCode(err)
			level.Warn(l.logger).Log("msg", "failed to read request body", "response_code", code, "err", err)
			http.Error(w, fmt.Sprintf("failed to read request body: %v", err), code)
			return
		}
		if int64(len(body)) > l.maxRequestBodySize {
			msg := fmt.Sprintf("trying to send message larger than max (%d vs %d)", len(body), l.maxRequestBodySize)
			level.Warn(l.logger).Log("msg", msg)
			http.Error(w, msg, http.StatusRequestEntityTooLarge)
			return
		}

		r.Body = io.NopCloser(bytes.NewReader(body))

		next.ServeHTTP(w, r)
	})
}

func readErrorStatusCode(err error) int {
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return StatusClientClosedRequest
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return http.StatusRequestTimeout
	}
	return http.StatusInternalServerError
}
