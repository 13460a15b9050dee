package metrics

import (
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/sufield/conncache/internal/core/ports"
)

func observation(err error) ports.SendObservation {
	obs := ports.SendObservation{
		Protocol: ports.ProtocolQUIC,
		Addr:     &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9000},
		Attempts: 2,
		Latency:  3 * time.Millisecond,
		Err:      err,
	}
	if err == nil {
		obs.BytesSent = 128
	}
	return obs
}

func TestPrometheusSink_RecordSend(t *testing.T) {
	sink := NewPrometheusSink()
	label := string(ports.ProtocolQUIC)

	attemptsBefore := testutil.ToFloat64(sendAttemptsCounter.WithLabelValues(label))
	bytesBefore := testutil.ToFloat64(sendBytesCounter.WithLabelValues(label))
	failuresBefore := testutil.ToFloat64(sendFailuresCounter.WithLabelValues(label))

	sink.RecordSend(observation(nil))

	assert.Equal(t, attemptsBefore+2, testutil.ToFloat64(sendAttemptsCounter.WithLabelValues(label)))
	assert.Equal(t, bytesBefore+128, testutil.ToFloat64(sendBytesCounter.WithLabelValues(label)))
	assert.Equal(t, failuresBefore, testutil.ToFloat64(sendFailuresCounter.WithLabelValues(label)))
}

func TestPrometheusSink_RecordSendFailure(t *testing.T) {
	sink := NewPrometheusSink()
	label := string(ports.ProtocolQUIC)

	bytesBefore := testutil.ToFloat64(sendBytesCounter.WithLabelValues(label))
	failuresBefore := testutil.ToFloat64(sendFailuresCounter.WithLabelValues(label))

	sink.RecordSend(observation(fmt.Errorf("stream reset")))

	// Failures never count toward bytes handed to the transport.
	assert.Equal(t, bytesBefore, testutil.ToFloat64(sendBytesCounter.WithLabelValues(label)))
	assert.Equal(t, failuresBefore+1, testutil.ToFloat64(sendFailuresCounter.WithLabelValues(label)))
}
