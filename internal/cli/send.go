package cli

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/sufield/conncache/internal/adapters/metrics"
	"github.com/sufield/conncache/internal/adapters/spiffe"
	"github.com/sufield/conncache/internal/config"
	"github.com/sufield/conncache/pkg/conncache"
)

var (
	sendTarget        string
	sendData          string
	sendHex           bool
	sendCount         int
	sendSeed          string
	sendMetricsListen string
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send test payloads to a destination through a connection cache",
	Long: `Send test payloads to a destination through a connection cache.

Builds a cache from the configuration (file plus CONNCACHE_* environment),
resolves the target address, and sends the payload the requested number of
times, printing per-send latency.`,
	RunE: runSend,
}

func init() {
	sendCmd.Flags().StringVar(&sendTarget, "target", "", "destination address (host:port)")
	sendCmd.Flags().StringVar(&sendData, "data", "ping", "payload to send")
	sendCmd.Flags().BoolVar(&sendHex, "hex", false, "interpret --data as hex")
	sendCmd.Flags().IntVar(&sendCount, "count", 1, "number of sends")
	sendCmd.Flags().StringVar(&sendSeed, "identity-seed", "", "hex-encoded ed25519 seed for the client identity")
	sendCmd.Flags().StringVar(&sendMetricsListen, "metrics-listen", "", "serve Prometheus metrics on this address while sending")
	_ = sendCmd.MarkFlagRequired("target")
}

func runSend(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	payload := []byte(sendData)
	if sendHex {
		payload, err = hex.DecodeString(sendData)
		if err != nil {
			return fmt.Errorf("decoding --data as hex: %w", err)
		}
	}

	opts := []conncache.Option{
		conncache.WithPoolCapacity(cfg.PoolCapacity),
		conncache.WithMaxPools(cfg.MaxPools),
		conncache.WithSendTimeout(cfg.SendTimeout),
		conncache.WithLogger(slog.Default()),
	}
	if sendSeed != "" {
		seed, err := hex.DecodeString(sendSeed)
		if err != nil {
			return fmt.Errorf("decoding --identity-seed: %w", err)
		}
		if len(seed) != ed25519.SeedSize {
			return fmt.Errorf("identity seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
		}
		opts = append(opts, conncache.WithIdentityKey(ed25519.NewKeyFromSeed(seed)))
	}
	if cfg.Spiffe.Enabled {
		identity, err := spiffe.FetchIdentity(cmd.Context(), cfg.Spiffe.SocketPath)
		if err != nil {
			return fmt.Errorf("fetching SPIFFE identity: %w", err)
		}
		opts = append(opts, conncache.WithIdentity(identity))
	}
	if sendMetricsListen != "" {
		opts = append(opts, conncache.WithStatsSink(metrics.NewPrometheusSink()))
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(sendMetricsListen, mux); err != nil {
				slog.Warn("metrics listener stopped", "error", err)
			}
		}()
	}

	cache, err := conncache.New(cfg.Name, opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := cache.Close(); err != nil {
			slog.Warn("cache close failed", "error", err)
		}
	}()

	for i := 0; i < sendCount; i++ {
		conn, err := cache.GetConnection(sendTarget)
		if err != nil {
			return err
		}
		start := time.Now()
		if err := conn.SendData(payload); err != nil {
			fmt.Fprintf(cmd.OutOrStdout(), "send %d failed after %s: %v\n", i+1, time.Since(start), err)
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "send %d ok: %d bytes in %s\n", i+1, len(payload), time.Since(start))
	}

	stats := cache.Stats()
	fmt.Fprintf(cmd.OutOrStdout(), "cache stats: hits=%d misses=%d evictions=%d\n",
		stats.Hits, stats.Misses, stats.Evictions)
	return nil
}
