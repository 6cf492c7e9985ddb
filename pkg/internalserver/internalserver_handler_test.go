package internalserver

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notReady struct{}

func (notReady) Ready() bool { return false }

func TestNewHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_escapes_total", Help: "Test counter."})
	reg.MustRegister(counter)
	counter.Inc()

	t.Run("metrics", func(t *testing.T) {
		h := NewHandler(log.NewNopLogger(), Config{Gatherer: reg})
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "test_escapes_total 1")
	})

	t.Run("ready", func(t *testing.T) {
		h := NewHandler(log.NewNopLogger(), Config{Gatherer: reg})
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.Equal(t, "OK", resp.Body.String())
	})

	t.Run("not ready", func(t *testing.T) {
		h := NewHandler(log.NewNopLogger(), Config{Gatherer: reg, ReadinessProvider: notReady{}})
		resp := httptest.NewRecorder()
		h.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
		assert.Equal(t, "Not ready", resp.Body.String())
	})
}
