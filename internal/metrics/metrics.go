package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PublishResult captures how an outcome event fared against the fan-out.
type PublishResult string

const (
	// PublishDelivered indicates every publisher accepted the event.
	PublishDelivered PublishResult = "delivered"
	// PublishPartial indicates some publishers failed.
	PublishPartial PublishResult = "partial"
	// PublishFailed indicates no publisher accepted the event.
	PublishFailed PublishResult = "failed"
)

// Recorder publishes Prometheus metrics for dispatch activity.
type Recorder struct {
	gatherer prometheus.Gatherer
	handler  http.Handler

	dispatches      *prometheus.CounterVec
	dispatchLatency *prometheus.HistogramVec
	superseded      prometheus.Counter
	publishedEvents *prometheus.CounterVec
	historyFailures prometheus.Counter
}

// NewRecorder constructs a Prometheus-backed Recorder. When reg is nil a dedicated
// registry is created so multiple recorders can coexist without conflicting with
// the global default registerer.
func NewRecorder(reg *prometheus.Registry) *Recorder {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	reg.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "probe",
		Subsystem: "dispatch",
		Name:      "total",
		Help:      "Submissions rendered, by outcome kind and status code.",
	}, []string{"outcome", "status_code"})

	dispatchLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "probe",
		Subsystem: "dispatch",
		Name:      "duration_seconds",
		Help:      "Latency distribution from submission to outcome.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"outcome"})

	superseded := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "probe",
		Subsystem: "dispatch",
		Name:      "superseded_total",
		Help:      "Dispatches cancelled because a newer submission arrived.",
	})

	publishedEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "probe",
		Subsystem: "publish",
		Name:      "events_total",
		Help:      "Outcome events handed to the publisher fan-out.",
	}, []string{"result"})

	historyFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "probe",
		Subsystem: "history",
		Name:      "write_failures_total",
		Help:      "History entries that could not be persisted.",
	})

	reg.MustRegister(dispatches, dispatchLatency, superseded, publishedEvents, historyFailures)

	return &Recorder{
		gatherer:        reg,
		handler:         promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		dispatches:      dispatches,
		dispatchLatency: dispatchLatency,
		superseded:      superseded,
		publishedEvents: publishedEvents,
		historyFailures: historyFailures,
	}
}

// Handler exposes the Prometheus HTTP handler for the recorder's registry.
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "metrics unavailable", http.StatusServiceUnavailable)
		})
	}
	return r.handler
}

// Gatherer returns the underlying Prometheus gatherer for tests.
func (r *Recorder) Gatherer() prometheus.Gatherer {
	if r == nil {
		return prometheus.NewRegistry()
	}
	return r.gatherer
}

// ObserveDispatch records a rendered submission.
func (r *Recorder) ObserveDispatch(outcome string, statusCode int, duration time.Duration) {
	if r == nil {
		return
	}
	outcomeLabel := normalizeLabel(outcome)
	statusLabel := "none"
	if statusCode > 0 {
		statusLabel = strconv.Itoa(statusCode)
	}
	r.dispatches.WithLabelValues(outcomeLabel, statusLabel).Inc()
	r.dispatchLatency.WithLabelValues(outcomeLabel).Observe(duration.Seconds())
}

// ObserveSuperseded counts a dispatch whose result was dropped.
func (r *Recorder) ObserveSuperseded() {
	if r == nil {
		return
	}
	r.superseded.Inc()
}

// ObservePublish records the fan-out result for one event.
func (r *Recorder) ObservePublish(result PublishResult) {
	if r == nil {
		return
	}
	r.publishedEvents.WithLabelValues(normalizeLabel(string(result))).Inc()
}

// ObserveHistoryFailure counts a failed history write.
func (r *Recorder) ObserveHistoryFailure() {
	if r == nil {
		return
	}
	r.historyFailures.Inc()
}

func normalizeLabel(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
