package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set at build time via ldflags.
var (
	Version = "dev"
	Commit  = "unknown"
)

// buildVersion prefers ldflags values and falls back to module build info
// for `go install` builds.
func buildVersion() (string, string) {
	version, commit := Version, Commit
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return version, commit
	}
	if version == "dev" && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
	if commit == "unknown" {
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 7 {
				commit = s.Value[:7]
			}
		}
	}
	return version, commit
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version and build info",
		RunE: func(cmd *cobra.Command, args []string) error {
			version, commit := buildVersion()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "moosetabs %s (%s) %s/%s\n", version, commit, runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
