package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestDeliveryObserver(t *testing.T) {
	var obs DeliveryObserver

	before := testutil.ToFloat64(DeliveriesTotal.WithLabelValues(OutcomeQueued))
	obs.Queued()
	obs.Queued()
	assert.Equal(t, before+2, testutil.ToFloat64(DeliveriesTotal.WithLabelValues(OutcomeQueued)))

	obs.Pending(7)
	assert.Equal(t, float64(7), testutil.ToFloat64(PendingCommands))
	obs.Pending(0)
	assert.Equal(t, float64(0), testutil.ToFloat64(PendingCommands))
}
