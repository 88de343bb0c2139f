// internal/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	OutcomeSuccess  = "success"
	OutcomeReplayed = "replayed"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Registry holds the wallet collectors.
type Registry struct {
	transfersTotal     *prometheus.CounterVec
	transferDuration   *prometheus.HistogramVec
	notificationsTotal *prometheus.CounterVec
	queueBatchSize     prometheus.Histogram
}

// NewRegistry registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and prometheus.NewRegistry() in tests.
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		transfersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_transfers_total",
			Help: "Transfers processed by kind and outcome",
		}, []string{"kind", "outcome"}),
		transferDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "wallet_transfer_duration_seconds",
			Help:    "Transfer latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2},
		}, []string{"kind"}),
		notificationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "wallet_notifications_total",
			Help: "Notification delivery attempts by channel and resulting status",
		}, []string{"channel", "outcome"}),
		queueBatchSize: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "wallet_notification_queue_batch_size",
			Help:    "Number of due notifications picked up per flush",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250},
		}),
	}
}

// ObserveTransfer records one transfer. kind is the transfer method.
func (r *Registry) ObserveTransfer(kind, outcome string, started time.Time) {
	if r == nil {
		return
	}
	r.transfersTotal.WithLabelValues(kind, outcome).Inc()
	r.transferDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}

// ObserveNotification records the status a delivery attempt ended in.
func (r *Registry) ObserveNotification(channel, outcome string) {
	if r == nil {
		return
	}
	r.notificationsTotal.WithLabelValues(channel, outcome).Inc()
}

// ObserveBatch records how many intents a flush picked up.
func (r *Registry) ObserveBatch(size int) {
	if r == nil {
		return
	}
	r.queueBatchSize.Observe(float64(size))
}
