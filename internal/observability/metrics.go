package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	MessagesAppended    *prometheus.CounterVec
	ContextRequests     prometheus.Counter
	ContextShortened    prometheus.Counter
	AnnotationFallbacks prometheus.Counter
	RetentionDeleted    prometheus.Counter
	SessionsCleared     prometheus.Counter
	StoreErrors         *prometheus.CounterVec
	ContextSize         prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		MessagesAppended: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_appended_total",
			Help:      "Messages durably appended, by role.",
		}, []string{"role"}),
		ContextRequests: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_requests_total",
			Help:      "Context window reads served to the agent.",
		}),
		ContextShortened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "context_shortened_total",
			Help:      "Context windows shortened after confusion detection.",
		}),
		AnnotationFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "annotation_fallbacks_total",
			Help:      "Reads that fell back to unannotated history.",
		}),
		RetentionDeleted: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retention_deleted_rows_total",
			Help:      "Rows deleted by retention enforcement.",
		}),
		SessionsCleared: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_cleared_total",
			Help:      "Sessions fully cleared.",
		}),
		StoreErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_errors_total",
			Help:      "Store operation errors by operation.",
		}, []string{"op"}),
		ContextSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "context_size_messages",
			Help:      "Number of messages in served context windows.",
			Buckets:   []float64{1, 3, 5, 10, 20, 50},
		}),
	}
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
