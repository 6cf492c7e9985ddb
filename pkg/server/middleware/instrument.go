package middleware

import (
	"io"
	"net/http"
	"strconv"

	"github.com/felixge/httpsnoop"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	mb = 1024 * 1024
	kb = 1024
)

// Instrument is a Middleware which records timings for every HTTP request
type Instrument struct {
	routeMatcher     RouteMatcher
	duration         *prometheus.HistogramVec
	requestBodySize  *prometheus.HistogramVec
	responseBodySize *prometheus.HistogramVec
	inflightRequests *prometheus.GaugeVec
}

var (
	// BodySizeBuckets defines buckets for request/response body sizes. Escape
	// requests carry a single string, so they are far smaller than a typical
	// write payload.
	BodySizeBuckets = []float64{64, 256, 1 * kb, 4 * kb, 16 * kb, 64 * kb, 256 * kb, 1 * mb}
	// DefBuckets are histogram buckets for the response time (in seconds)
	// of a network service, including one that is responding very slowly.
	DefBuckets = []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
)

func NewInstrument(routeMatcher RouteMatcher, defBuckets []float64, prefix string, reg prometheus.Registerer) (*Instrument, error) {
	if len(defBuckets) == 0 {
		defBuckets = DefBuckets
	}

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: prefix,
		Name:      "request_duration_seconds",
		Help:      "Time (in seconds) spent serving HTTP requests.",
		Buckets:   defBuckets,
	}, []string{"method", "route", "status_code"})

	receivedMessageSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: prefix,
		Name:      "request_message_bytes",
		Help:      "Size (in bytes) of messages received in the request.",
		Buckets:   BodySizeBuckets,
	}, []string{"method", "route"})

	sentMessageSize := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: prefix,
		Name:      "response_message_bytes",
		Help:      "Size (in bytes) of messages sent in response.",
		Buckets:   BodySizeBuckets,
	}, []string{"method", "route"})

	inflightRequests := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: prefix,
		Name:      "inflight_requests",
		Help:      "Current number of inflight requests.",
	}, []string{"method", "route"})

	for _, c := range []prometheus.Collector{requestDuration, receivedMessageSize, sentMessageSize, inflightRequests} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return &Instrument{
		routeMatcher:     routeMatcher,
		duration:         requestDuration,
		requestBodySize:  receivedMessageSize,
		responseBodySize: sentMessageSize,
		inflightRequests: inflightRequests,
	}, nil
}

// Wrap implements middleware.Interface
func (i Instrument) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route := i.getRouteName(r)
		inflight := i.inflightRequests.WithLabelValues(r.Method, route)
		inflight.Inc()
		defer inflight.Dec()

		origBody := r.Body
		defer func() {
			// No need to leak our Body wrapper beyond the scope of this handler.
			r.Body = origBody
		}()

		rBody := &reqBody{b: origBody}
		r.Body = rBody

		respMetrics := httpsnoop.CaptureMetricsFn(w, func(ww http.ResponseWriter) {
			next.ServeHTTP(ww, r)
		})

		i.requestBodySize.WithLabelValues(r.Method, route).Observe(float64(rBody.read))
		i.responseBodySize.WithLabelValues(r.Method, route).Observe(float64(respMetrics.Written))
		i.duration.WithLabelValues(r.Method, route, strconv.Itoa(respMetrics.Code)).Observe(respMetrics.Duration.Seconds())
	})
}

// Return a name identifier for ths request.  There are three options:
//  1. The request matches a gorilla mux route, with a name.  Use that.
//  2. The request matches an unamed gorilla mux router.  Munge the path
//     template such that templates like '/escape/{escaper}' come out as
//     'escape__escaper'.
//  3. The request doesn't match a mux route. Return "other"
//
// We do all this as we do not wish to emit high cardinality labels to
// prometheus.
func (i Instrument) getRouteName(r *http.Request) string {
	route := getRouteName(i.routeMatcher, r)
	if route == "" {
		route = "other"
	}

	return route
}

type reqBody struct {
	b    io.ReadCloser
	read int64
}

func (w *reqBody) Read(p []byte) (int, error) {
	n, err := w.b.Read(p)
	if n > 0 {
		w.read += int64(n)
	}
	return n, err
}

func (w *reqBody) Close() error {
	return w.b.Close()
}
