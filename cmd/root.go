package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ressync",
		Short: "ressync - keep versioned test resources in sync with a remote archive",
		Long: `ressync downloads WebRTC resource files used for testing, like audio
and video files, from a remote host.

It checks the resources revision declared in the project's DEPS file and
compares it with the revision recorded in the local resources directory.
When they differ, the matching archive is downloaded and the resources
directory is replaced with its contents.`,
	}

	cmd.AddCommand(NewSyncCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
