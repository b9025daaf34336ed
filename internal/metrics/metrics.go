// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecognitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxcmd_recognitions_total",
		Help: "Utterances recognized, by engine tier and intent",
	}, []string{"engine", "intent"})

	RecognitionErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voxcmd_recognition_errors_total",
		Help: "Utterances neither engine could transcribe",
	})

	RecognitionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "voxcmd_recognition_latency_seconds",
		Help:    "End-to-end recognition latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"engine"})

	DeliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxcmd_deliveries_total",
		Help: "Command delivery outcomes",
	}, []string{"outcome"})

	PendingCommands = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "voxcmd_pending_commands",
		Help: "Commands waiting for a poller",
	})

	RelayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voxcmd_relayed_commands_total",
		Help: "Commands relayed from the broker to 1C",
	}, []string{"status"})
)

// Delivery outcome labels
const (
	OutcomeDelivered = "delivered"
	OutcomeQueued    = "queued"
	OutcomeDropped   = "dropped"
	OutcomePolled    = "polled"
)

// DeliveryObserver feeds delivery queue events into the collectors
type DeliveryObserver struct{}

func (DeliveryObserver) Delivered() { DeliveriesTotal.WithLabelValues(OutcomeDelivered).Inc() }
func (DeliveryObserver) Queued()    { DeliveriesTotal.WithLabelValues(OutcomeQueued).Inc() }
func (DeliveryObserver) Dropped()   { DeliveriesTotal.WithLabelValues(OutcomeDropped).Inc() }
func (DeliveryObserver) Polled()    { DeliveriesTotal.WithLabelValues(OutcomePolled).Inc() }

func (DeliveryObserver) Pending(n int) { PendingCommands.Set(float64(n)) }
