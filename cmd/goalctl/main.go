package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/goalcoach/cmd/goalctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "goalctl",
		Short:         "Goal coach tools: run the workflow offline, export profiles, migrate",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.RunCmd())
	rootCmd.AddCommand(cmd.ExportCmd())
	rootCmd.AddCommand(cmd.TemplatesCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
