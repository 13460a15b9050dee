package ports

import (
	"net"
	"time"
)

// SendObservation captures the outcome of one façade send operation.
type SendObservation struct {
	Protocol  Protocol
	Addr      *net.UDPAddr
	Attempts  int
	BytesSent int
	Latency   time.Duration
	Err       error
}

// StatsSink receives per-send observations from the connection façades. It
// is injected by the caller; façades never mutate cache-internal state to
// record stats.
type StatsSink interface {
	RecordSend(obs SendObservation)
}

// NopSink discards all observations. Used when the caller injects nothing.
type NopSink struct{}

// RecordSend implements StatsSink.
func (NopSink) RecordSend(SendObservation) {}
