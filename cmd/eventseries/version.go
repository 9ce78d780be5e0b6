package main

import (
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of eventseries.",
		// Skip config loading so version works with a broken config
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("eventseries CLI\n")
			cmd.Printf("  Version: %s\n", version)
			cmd.Printf("  Commit:  %s\n", commit)
			cmd.Printf("  Built:   %s\n", date)
			cmd.Printf("  Runtime: %s\n", runtime.Version())
		},
	}
}
