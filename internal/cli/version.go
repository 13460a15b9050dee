package cli

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/sufield/conncache/internal/buildinfo"
)

// VersionInfo contains detailed version and build information
type VersionInfo struct {
	Version    string `json:"version"`
	CommitHash string `json:"commit_hash"`
	BuildTime  string `json:"build_time"`
	GoVersion  string `json:"go_version"`
	GOOS       string `json:"os"`
	GOARCH     string `json:"arch"`
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() *VersionInfo {
	info := buildinfo.Get()
	return &VersionInfo{
		Version:    info.Version,
		CommitHash: info.CommitHash,
		BuildTime:  info.BuildTime,
		GoVersion:  runtime.Version(),
		GOOS:       runtime.GOOS,
		GOARCH:     runtime.GOARCH,
	}
}

var versionJSON bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display detailed version and build information for the conncache CLI.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		info := GetVersionInfo()
		if versionJSON {
			out, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "conncache %s (commit %s, built %s, %s %s/%s)\n",
			info.Version, info.CommitHash, info.BuildTime, info.GoVersion, info.GOOS, info.GOARCH)
		return nil
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "print as JSON")
}
