package escapehttp

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grafana/escapers/pkg/ctxlog"
	"github.com/grafana/escapers/pkg/escape"
	"github.com/grafana/escapers/pkg/percent"
	"github.com/grafana/escapers/pkg/route"
)

func newTestRouter(t *testing.T, reg prometheus.Registerer) *mux.Router {
	t.Helper()

	extra := map[string]escape.Escaper{
		"strict": percent.MustNew("", false),
	}
	api := NewAPI(extra, escape.NewRecorder("test", reg), ctxlog.NewProvider(log.NewNopLogger()), time.Now)

	router := mux.NewRouter()
	api.Register(route.NewMuxRegisterer(router))
	return router
}

func TestAPI_Escape(t *testing.T) {
	router := newTestRouter(t, prometheus.NewRegistry())

	for _, tc := range []struct {
		name         string
		method       string
		target       string
		body         string
		expectedCode int
		expectedBody string
	}{
		{
			name:         "form via query",
			method:       http.MethodGet,
			target:       "/escape/form?s=hello%20world",
			expectedCode: http.StatusOK,
			expectedBody: "hello+world",
		},
		{
			name:         "path segment via body",
			method:       http.MethodPost,
			target:       "/escape/path-segment",
			body:         "a/b c",
			expectedCode: http.StatusOK,
			expectedBody: "a%2Fb%20c",
		},
		{
			name:         "fragment keeps slash and question mark",
			method:       http.MethodPost,
			target:       "/escape/fragment",
			body:         "a/b?c d",
			expectedCode: http.StatusOK,
			expectedBody: "a/b?c%20d",
		},
		{
			name:         "extra escaper",
			method:       http.MethodGet,
			target:       "/escape/strict?s=a-b",
			expectedCode: http.StatusOK,
			expectedBody: "a%2Db",
		},
		{
			name:         "non ASCII input",
			method:       http.MethodPost,
			target:       "/escape/form",
			body:         "℡",
			expectedCode: http.StatusOK,
			expectedBody: "%E2%84%A1",
		},
		{
			name:         "empty query value",
			method:       http.MethodGet,
			target:       "/escape/form?s=",
			expectedCode: http.StatusOK,
			expectedBody: "",
		},
		{
			name:         "malformed input",
			method:       http.MethodGet,
			target:       "/escape/form?s=%FF",
			expectedCode: http.StatusBadRequest,
			expectedBody: "can't escape malformed input at byte 0 of 1\n",
		},
		{
			name:         "lone surrogate in body",
			method:       http.MethodPost,
			target:       "/escape/path-segment",
			body:         "a\xed\xa0\xbd",
			expectedCode: http.StatusBadRequest,
			expectedBody: "can't escape malformed input at byte 1 of 4\n",
		},
		{
			name:         "missing query parameter",
			method:       http.MethodGet,
			target:       "/escape/form",
			expectedCode: http.StatusBadRequest,
			expectedBody: "missing query parameter \"s\"\n",
		},
		{
			name:         "unknown escaper",
			method:       http.MethodGet,
			target:       "/escape/html?s=x",
			expectedCode: http.StatusNotFound,
			expectedBody: "unknown escaper \"html\"\n",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(tc.body))
			resp := httptest.NewRecorder()

			router.ServeHTTP(resp, req)

			assert.Equal(t, tc.expectedCode, resp.Code)
			assert.Equal(t, tc.expectedBody, resp.Body.String())
			assert.Equal(t, "text/plain; charset=utf-8", resp.Header().Get("Content-Type"))
		})
	}
}

func TestAPI_Escapers(t *testing.T) {
	router := newTestRouter(t, prometheus.NewRegistry())

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, EscapersPath, nil))

	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, "form\nfragment\npath-segment\nstrict\n", resp.Body.String())
}

func TestAPI_Metrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	router := newTestRouter(t, reg)

	for _, target := range []string{
		"/escape/form?s=abc",
		"/escape/form?s=a%20b",
		"/escape/form?s=%FF",
		"/escape/nope?s=abc",
	} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, target, nil))
	}

	err := testutil.GatherAndCompare(reg, strings.NewReader(`
# HELP test_escapes_total The total number of successfully escaped strings, by whether the output differs from the input.
# TYPE test_escapes_total counter
test_escapes_total{escaper="form",rewritten="false"} 1
test_escapes_total{escaper="form",rewritten="true"} 1
`), "test_escapes_total")
	require.NoError(t, err)
}
