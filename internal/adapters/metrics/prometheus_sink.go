// Package metrics provides a Prometheus-based implementation of the stats
// sink consumed by the connection façades.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sufield/conncache/internal/core/ports"
)

var (
	sendAttemptsCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conncache_send_attempts_total",
		Help: "Total number of send attempts, including redials",
	}, []string{"protocol"})

	sendFailuresCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conncache_send_failures_total",
		Help: "Total number of failed send operations",
	}, []string{"protocol"})

	sendBytesCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conncache_send_bytes_total",
		Help: "Total bytes successfully handed to the transport",
	}, []string{"protocol"})

	sendLatencyHistogram = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conncache_send_latency_seconds",
		Help:    "End-to-end latency of façade send operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"protocol"})
)

// PrometheusSink implements ports.StatsSink using Prometheus collectors.
type PrometheusSink struct{}

// NewPrometheusSink creates a new Prometheus stats sink.
func NewPrometheusSink() ports.StatsSink {
	return &PrometheusSink{}
}

// RecordSend implements ports.StatsSink.
func (s *PrometheusSink) RecordSend(obs ports.SendObservation) {
	protocol := string(obs.Protocol)
	sendAttemptsCounter.WithLabelValues(protocol).Add(float64(obs.Attempts))
	sendLatencyHistogram.WithLabelValues(protocol).Observe(obs.Latency.Seconds())
	if obs.Err != nil {
		sendFailuresCounter.WithLabelValues(protocol).Inc()
		return
	}
	sendBytesCounter.WithLabelValues(protocol).Add(float64(obs.BytesSent))
}
