// Package cli implements the conncache command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "conncache",
	Short: "Outbound QUIC connection cache utility",
	Long: `Outbound QUIC connection cache utility.

conncache manages pooled outbound QUIC connections for a peer-to-peer node:
one bounded pool per destination, a shared local endpoint, and a rotatable
mutual-TLS identity. Use this CLI to send test payloads through a cache,
generate identity keypairs, and inspect build information.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(identityCmd)
	rootCmd.AddCommand(versionCmd)
}
