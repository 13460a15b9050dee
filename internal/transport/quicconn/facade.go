package quicconn

import (
	"context"
	"net"
	"time"

	"github.com/sufield/conncache/internal/core/ports"
)

// BlockingConnection suspends the calling goroutine for the duration of the
// send, bounded by the transport-level send timeout captured at entry
// creation. It wraps the same client handle as the non-blocking façade.
type BlockingConnection struct {
	client *Client
	sink   ports.StatsSink
}

var _ ports.BlockingConnection = (*BlockingConnection)(nil)

// ServerAddr implements ports.BlockingConnection.
func (b *BlockingConnection) ServerAddr() *net.UDPAddr { return b.client.addr }

// SendData implements ports.BlockingConnection.
func (b *BlockingConnection) SendData(data []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.client.sendTimeout())
	defer cancel()
	return recordSend(ctx, b.client, b.sink, data)
}

// SendDataBatch implements ports.BlockingConnection.
func (b *BlockingConnection) SendDataBatch(buffers [][]byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), b.client.sendTimeout())
	defer cancel()
	return recordSendBatch(ctx, b.client, b.sink, buffers)
}

// NonblockingConnection drives sends with the caller's context. Cancelling a
// pending send abandons it with no side effects on the pool entry.
type NonblockingConnection struct {
	client *Client
	sink   ports.StatsSink
}

var _ ports.NonblockingConnection = (*NonblockingConnection)(nil)

// ServerAddr implements ports.NonblockingConnection.
func (n *NonblockingConnection) ServerAddr() *net.UDPAddr { return n.client.addr }

// SendData implements ports.NonblockingConnection.
func (n *NonblockingConnection) SendData(ctx context.Context, data []byte) error {
	return recordSend(ctx, n.client, n.sink, data)
}

// SendDataBatch implements ports.NonblockingConnection.
func (n *NonblockingConnection) SendDataBatch(ctx context.Context, buffers [][]byte) error {
	return recordSendBatch(ctx, n.client, n.sink, buffers)
}

// recordSend performs one send and reports the observation to the injected
// sink. Failures are returned to the caller and never escalate to the pool.
func recordSend(ctx context.Context, client *Client, sink ports.StatsSink, data []byte) error {
	start := time.Now()
	attempts, err := client.sendBuffer(ctx, data)
	obs := ports.SendObservation{
		Protocol: ports.ProtocolQUIC,
		Addr:     client.addr,
		Attempts: attempts,
		Latency:  time.Since(start),
		Err:      err,
	}
	if err == nil {
		obs.BytesSent = len(data)
	}
	sink.RecordSend(obs)
	return err
}

func recordSendBatch(ctx context.Context, client *Client, sink ports.StatsSink, buffers [][]byte) error {
	start := time.Now()
	attempts, err := client.sendBatch(ctx, buffers)
	obs := ports.SendObservation{
		Protocol: ports.ProtocolQUIC,
		Addr:     client.addr,
		Attempts: attempts,
		Latency:  time.Since(start),
		Err:      err,
	}
	if err == nil {
		for _, b := range buffers {
			obs.BytesSent += len(b)
		}
	}
	sink.RecordSend(obs)
	return err
}
