// conncache-cli operates an outbound QUIC connection cache from the shell.
//
// It can send test payloads through a cache (exercising pooling, the shared
// endpoint, and identity material), generate identity keypairs, and report
// build information.
//
// Usage:
//
//	conncache-cli send --target <host:port> [flags]
//	conncache-cli identity [--out file]
//	conncache-cli version
package main

import (
	"fmt"
	"os"

	"github.com/sufield/conncache/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
