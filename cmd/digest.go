package cmd

import (
	"alternanceetmoi.fr/reports/tasks"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var digestCmd = &cobra.Command{
	Use:   "digest",
	Short: "Queue the weekly digest right away",
	RunE: func(cmd *cobra.Command, args []string) error {
		info, err := tasks.EnqueueDigest()
		if err != nil {
			return err
		}

		zap.S().Infof("Enqueued task: [%s] %s", info.ID, info.Queue)

		return nil
	},
}
