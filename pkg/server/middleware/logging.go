package middleware

import (
	"net/http"
	"net/url"

	"github.com/felixge/httpsnoop"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// inputParam is the query parameter carrying the string to escape. Its value
// is never logged.
const inputParam = "s"

type Log struct {
	logger log.Logger
}

func NewLoggingMiddleware(logger log.Logger) *Log {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Log{logger: logger}
}

// Wrap implements middleware.Interface
func (l Log) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var writeErr error
		hooks := httpsnoop.Hooks{
			Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return func(b []byte) (int, error) {
					n, err := next(b)
					if err != nil && writeErr == nil {
						writeErr = err
					}
					return n, err
				}
			},
		}

		metrics := httpsnoop.CaptureMetricsFn(w, func(ww http.ResponseWriter) {
			next.ServeHTTP(httpsnoop.Wrap(ww, hooks), r)
		})

		logger := log.With(l.logger, "elapsed", metrics.Duration)
		if writeErr != nil {
			logger = log.With(logger, "err", writeErr, "msg", "couldn't write response body")
		}
		logRequest(logger, r, metrics.Code)
	})
}

func logRequest(logger log.Logger, r *http.Request, statusCode int) {
	// Happy path, status codes that we like: status code between [100,500) or status code is 502 or 503
	if http.StatusContinue <= statusCode && statusCode < http.StatusInternalServerError ||
		statusCode == http.StatusBadGateway ||
		statusCode == http.StatusServiceUnavailable {
		level.Info(logger).Log(
			"method", r.Method,
			"uri", redactInput(r.URL).RequestURI(),
			"status", statusCode,
		)
	} else {
		level.Warn(logger).Log(
			"method", r.Method,
			"uri", redactInput(r.URL).RequestURI(),
			"status", statusCode,
		)
	}
}

// redactInput returns a copy of the provided URL with the value of the input
// query param replaced, leaving the request's URL untouched.
func redactInput(u *url.URL) *url.URL {
	reqQuery := u.Query()
	if reqQuery.Get(inputParam) == "" {
		return u
	}
	redacted := *u
	reqQuery.Set(inputParam, "redacted")
	redacted.RawQuery = reqQuery.Encode()
	return &redacted
}
