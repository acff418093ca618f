package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"alternanceetmoi.fr/reports/tasks"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process background jobs and run the periodic digest",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		shutdown, err := startWorker()
		if err != nil {
			return err
		}
		defer shutdown()

		<-ctx.Done()

		return nil
	},
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// startWorker runs the queue server and the periodic task manager in the
// background until the returned function is called.
func startWorker() (func(), error) {
	server := tasks.AsynqServer()
	if err := server.Start(tasks.AsynqServeMux()); err != nil {
		zap.S().Errorf("Could not run queue server: %v", err)
		return nil, err
	}

	manager := tasks.AsynqPeriodicTaskManager()
	if err := manager.Start(); err != nil {
		zap.S().Errorf("Could not run periodic tasks manager: %v", err)
		server.Shutdown()
		return nil, err
	}

	return func() {
		manager.Shutdown()
		server.Shutdown()
	}, nil
}
