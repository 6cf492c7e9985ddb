package internalserver

import (
	"io"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// ReadinessProvider reports whether the service should receive traffic.
type ReadinessProvider interface {
	Ready() bool
}

// NewReadinessHandler answers 200 while ready is true, and 503 once the
// service started shutting down.
func NewReadinessHandler(ready ReadinessProvider, logger log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		code, body := http.StatusOK, "OK"
		if !ready.Ready() {
			code, body = http.StatusServiceUnavailable, "Not ready"
		}

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(code)
		if _, err := io.WriteString(w, body); err != nil {
			level.Error(logger).Log("msg", "ready endpoint error", "err", err)
		}
	}
}

type AlwaysReady struct{}

func (AlwaysReady) Ready() bool {
	return true
}
