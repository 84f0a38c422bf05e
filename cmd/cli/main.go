package main

import (
	"os"

	"github.com/akeren/mandarin-waitlist/config"
	"github.com/akeren/mandarin-waitlist/internal/log"
	"github.com/spf13/cobra"
)

var logger = log.NewLoggerWithJSONOutput()

var rootCommand = &cobra.Command{
	Use:   "cli",
	Short: "Operational commands for the Mandarin waitlist",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		config.InitializeEnvFile(logger)
	},
	SilenceUsage: true,
}

func main() {
	rootCommand.AddCommand(migrateCommand(), joinCommand())

	if err := rootCommand.Execute(); err != nil {
		os.Exit(1)
	}
}
