package main

import (
	"os"

	"github.com/spf13/cobra"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "dev"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "spike",
		Short:        "Client and scope management for the OAuth2 authority",
		Version:      BuildVersion,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newMigrateCmd(), newSeedCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
