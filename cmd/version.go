package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/nastad/tmsis-dashboard/pkg/query"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Build-time variables for version info
var (
	// Release is the current release version
	Release = "dev"
	// GitCommit is the git commit hash
	GitCommit = "none"
	// GOOS is the operating system
	GOOS = runtime.GOOS
	// GOARCH is the architecture
	GOARCH = runtime.GOARCH
)

//nolint:gochecknoglobals // Cobra commands are typically global
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Prints the version of tmsis.",
	Long:  `Prints the version of tmsis and the HCPCS crosswalk revisions it knows.`,
	Run: func(cmd *cobra.Command, _ []string) {
		versions := query.ReferenceVersions()
		ids := make([]string, len(versions))
		for i, v := range versions {
			ids[i] = v.ID
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\nCommit: %s\nOS/Arch: %s/%s\nReference versions: %s\n",
			Release, GitCommit, GOOS, GOARCH, strings.Join(ids, ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
