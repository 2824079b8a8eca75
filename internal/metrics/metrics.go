package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace          = "request_correlator"
	eventsSubsystem    = "error_events"
	transportSubsystem = "error_transport"

	requestsStampedMetricName    = "requests_stamped_total"
	logRecordsEnrichedMetricName = "log_records_enriched_total"
	eventsTotalMetricName        = "total"
	transportRequestsMetricName  = "requests_total"
	transportDurationMetricName  = "request_duration_seconds"
)

// Label values for LogRecordsEnriched.
const (
	SourceRequest = "request"
	SourceNone    = "none"
)

// Label values for ErrorEvents.
const (
	OutcomeSent          = "sent"
	OutcomeDropped       = "dropped"
	OutcomeFiltered      = "filtered"
	OutcomeFailed        = "failed"
	OutcomeRejected      = "rejected"
	OutcomeFingerprinted = "fingerprinted"
)

var (
	RequestsStamped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      requestsStampedMetricName,
			Help:      "The number of inbound requests assigned a request ID.",
		},
	)

	LogRecordsEnriched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      logRecordsEnrichedMetricName,
			Help:      "The number of log records tagged with a request ID, by whether a request was in scope.",
		},
		[]string{"source"},
	)

	ErrorEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: eventsSubsystem,
			Name:      eventsTotalMetricName,
			Help:      "A counter for error events by outcome.",
		},
		[]string{"outcome"},
	)

	transportRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: transportSubsystem,
			Name:      transportRequestsMetricName,
			Help:      "A counter for error event deliveries.",
		},
		[]string{"code", "method"},
	)

	transportRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: transportSubsystem,
			Name:      transportDurationMetricName,
			Help:      "A histogram of latencies for error event deliveries.",
			Buckets: []float64{
				0.005, /* 5ms */
				0.025, /* 25ms */
				0.1,   /* 100ms */
				0.5,   /* 500ms */
				1.0,   /* 1s */
				5.0,   /* 5s */
				10.0,  /* 10s */
			},
		},
		[]string{"code", "method"},
	)
)

// NewRoundTripper instruments outbound error event deliveries.
func NewRoundTripper(next http.RoundTripper) promhttp.RoundTripperFunc {
	rt := promhttp.InstrumentRoundTripperCounter(transportRequestsTotal, next)
	return promhttp.InstrumentRoundTripperDuration(transportRequestDurationSeconds, rt)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
