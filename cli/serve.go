package cli

import (
	"os/signal"
	"syscall"

	"github.com/ThomasVuNguyen/sim/pkg/config"
	"github.com/ThomasVuNguyen/sim/pkg/logger"
	"github.com/ThomasVuNguyen/sim/server"
	"github.com/spf13/cobra"
)

func ServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the execution HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.NewLogger(&logger.Config{
				Level: logger.LogLevel(cfg.Log.Level),
				JSON:  cfg.Log.JSON,
			})
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.New(cfg, log).Start(logger.ContextWithLogger(ctx, log))
		},
	}
}
