package cmd

import (
	"time"

	"alternanceetmoi.fr/reports/config"
	"alternanceetmoi.fr/reports/routes"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var withWorker bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signalContext()
		defer stop()

		if withWorker {
			shutdown, err := startWorker()
			if err != nil {
				return err
			}
			defer shutdown()
		}

		app := routes.NewApp()
		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			if err := app.Listen(config.Get().AppAddress); err != nil {
				zap.S().Errorf("Could not setup server: %v", err)
				return err
			}

			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			return app.ShutdownWithTimeout(10 * time.Second)
		})

		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().BoolVar(&withWorker, "with-worker", true, "Also process background jobs")
}
