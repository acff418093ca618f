package cmd

import (
	"fmt"
	"os"
	"time"

	"alternanceetmoi.fr/reports/app"
	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/tasks"
	"alternanceetmoi.fr/reports/utils"
	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "reports",
	Short:         "Activity reports of work-study students",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		sentry.Flush(2 * time.Second)
		_ = zap.L().Sync()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(digestCmd)
}

func setup() {
	// Configuration errors are logged through the global logger
	app.SetupLogger(true)

	cfg := config.Get()

	app.SetupLogger(cfg.AppDebug)
	app.SetupSentry()

	// Set default timezone
	time.Local = utils.DefaultLocation()

	app.UsePurger(tasks.Purger{})
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
