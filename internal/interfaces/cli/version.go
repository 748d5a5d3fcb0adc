package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

func (b BuildInfo) String() string {
	return fmt.Sprintf("listsense %s\n  commit:  %s\n  built:   %s\n  go:      %s\n",
		b.Version, b.Commit, b.BuildDate, b.GoVersion)
}

func (b BuildInfo) TableHeaders() []string { return []string{"Version", "Commit", "Built", "Go"} }

func (b BuildInfo) TableRows() [][]string {
	return [][]string{{b.Version, b.Commit, b.BuildDate, b.GoVersion}}
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return PrintResult(cmd, BuildInfo{
				Version:   Version,
				Commit:    GitCommit,
				BuildDate: BuildDate,
				GoVersion: runtime.Version(),
			})
		},
	}
}

//Personal.AI order the ending
