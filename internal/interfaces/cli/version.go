package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		// version needs no config, logger or client.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "depict %s\n  commit: %s\n  built:  %s\n  go:     %s %s/%s\n",
				Version, GitCommit, BuildDate, runtime.Version(), runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}

//Personal.AI order the ending
