package escape

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

//go:generate mockery --inpackage --testonly --case underscore --name Recorder
type Recorder interface {
	measure(escaper string, duration time.Duration, err error)
	measureRewrite(escaper string, rewritten bool)
}

// NewRecorder returns a new Prometheus metrics Recorder.
// It ensures that the escaper metrics are properly registered.
func NewRecorder(prefix string, reg prometheus.Registerer) Recorder {
	r := &prometheusRecorder{
		escapeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: prefix,
			Name:      "escape_duration_seconds",
			Help:      "Time spent escaping a single string.",
			Buckets:   []float64{.000001, .00001, .0001, .001, .01, .1},
		}, []string{"escaper", "result"}),
		escapes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: prefix,
			Name:      "escapes_total",
			Help:      "The total number of successfully escaped strings, by whether the output differs from the input.",
		}, []string{"escaper", "rewritten"}),
	}

	reg.MustRegister(r.escapeDuration)
	reg.MustRegister(r.escapes)

	return r
}

// prometheusRecorder knows the metrics of the escapers and how to measure them
// for Prometheus.
type prometheusRecorder struct {
	escapeDuration *prometheus.HistogramVec
	escapes        *prometheus.CounterVec
}

func (r prometheusRecorder) measure(escaper string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	r.escapeDuration.WithLabelValues(escaper, result).Observe(duration.Seconds())
}

func (r prometheusRecorder) measureRewrite(escaper string, rewritten bool) {
	r.escapes.WithLabelValues(escaper, strconv.FormatBool(rewritten)).Inc()
}
