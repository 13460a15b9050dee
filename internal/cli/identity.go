package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var identityOut string

var identityCmd = &cobra.Command{
	Use:   "identity",
	Short: "Generate an ed25519 identity keypair",
	Long: `Generate an ed25519 identity keypair.

Prints the hex-encoded seed and public key. The seed feeds the send
command's --identity-seed flag; the public key is what peers see in the
client certificate.`,
	RunE: runIdentity,
}

func init() {
	identityCmd.Flags().StringVar(&identityOut, "out", "", "write the seed to this file instead of stdout")
}

func runIdentity(cmd *cobra.Command, _ []string) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("generating keypair: %w", err)
	}

	seed := hex.EncodeToString(priv.Seed())
	if identityOut != "" {
		if err := os.WriteFile(identityOut, []byte(seed+"\n"), 0o600); err != nil {
			return fmt.Errorf("writing seed file: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "seed written to %s\n", identityOut)
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "seed: %s\n", seed)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "public key: %s\n", hex.EncodeToString(pub))
	return nil
}
