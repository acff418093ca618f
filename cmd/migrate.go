package cmd

import (
	"alternanceetmoi.fr/reports/app"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := app.Migrate(); err != nil {
			return err
		}

		zap.S().Info("Database is up to date.")

		return nil
	},
}
