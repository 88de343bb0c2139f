// internal/metrics/metrics_test.go
package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegistry_Observe(t *testing.T) {
	r := NewRegistry(prometheus.NewRegistry())

	r.ObserveTransfer("wallet", OutcomeSuccess, time.Now())
	r.ObserveTransfer("wallet", OutcomeSuccess, time.Now())
	r.ObserveTransfer("non_wallet", OutcomeRejected, time.Now())
	r.ObserveNotification("SMS", "SENT")
	r.ObserveBatch(3)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.transfersTotal.WithLabelValues("wallet", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.transfersTotal.WithLabelValues("non_wallet", OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.notificationsTotal.WithLabelValues("SMS", "SENT")))
}

func TestRegistry_NilIsSafe(t *testing.T) {
	var r *Registry
	assert.NotPanics(t, func() {
		r.ObserveTransfer("wallet", OutcomeError, time.Now())
		r.ObserveNotification("PUSH", "FAILED")
		r.ObserveBatch(0)
	})
}
