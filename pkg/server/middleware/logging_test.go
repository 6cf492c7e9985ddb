package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogRequest(t *testing.T) {
	t.Run("redacts the input param", func(t *testing.T) {
		const (
			secretInput = "my-secret-value"
			path        = "/escape/form"
		)
		buf := new(bytes.Buffer)
		logger := log.NewLogfmtLogger(buf)

		req, err := http.NewRequest(http.MethodGet, "https://example.com"+path+"?s="+secretInput, http.NoBody)
		require.NoError(t, err)

		logRequest(logger, req, http.StatusOK)

		line := buf.String()
		assert.Contains(t, line, path)
		assert.Contains(t, line, "s=redacted")
		assert.NotContains(t, line, secretInput)
		assert.Equal(t, secretInput, req.URL.Query().Get("s"), "request URL must not be modified")
	})

	t.Run("does nothing when the input param is not provided", func(t *testing.T) {
		const path = "/escapers"
		buf := new(bytes.Buffer)
		logger := log.NewLogfmtLogger(buf)

		req, err := http.NewRequest(http.MethodGet, "https://example.com"+path, http.NoBody)
		require.NoError(t, err)

		logRequest(logger, req, http.StatusOK)

		line := buf.String()
		assert.Contains(t, line, path)
		assert.NotContains(t, line, "redacted")
	})
}

type failingWriter struct {
	http.ResponseWriter
}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestLoggingMiddleware(t *testing.T) {
	for _, tc := range []struct {
		name         string
		innerHandler func(w http.ResponseWriter, r *http.Request)
		logContains  []string
	}{
		{
			name: "status code 200",
			innerHandler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			},
			logContains: []string{"status=200", "level=info"},
		},
		{
			name: "status code 400",
			innerHandler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
			},
			logContains: []string{"status=400", "level=info"},
		},
		{
			name: "status code 500",
			innerHandler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			logContains: []string{"status=500", "level=warn"},
		},
		{
			name:         "implicit status code",
			innerHandler: func(w http.ResponseWriter, r *http.Request) {},
			logContains:  []string{"status=200", "level=info"},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			buf := new(bytes.Buffer)
			logger := log.NewLogfmtLogger(buf)

			middleware := NewLoggingMiddleware(logger)
			handler := middleware.Wrap(http.HandlerFunc(tc.innerHandler))

			req := httptest.NewRequest("GET", "https://example.com", nil)
			resp := httptest.NewRecorder()

			handler.ServeHTTP(resp, req)

			line := buf.String()
			for _, contains := range tc.logContains {
				assert.Contains(t, line, contains)
			}
		})
	}

	t.Run("write error", func(t *testing.T) {
		buf := new(bytes.Buffer)
		handler := NewLoggingMiddleware(log.NewLogfmtLogger(buf)).Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("hello"))
		}))

		handler.ServeHTTP(failingWriter{httptest.NewRecorder()}, httptest.NewRequest("GET", "https://example.com", nil))

		assert.Contains(t, buf.String(), `err="connection reset"`)
	})
}
