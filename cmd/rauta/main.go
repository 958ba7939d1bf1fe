package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nwin/rauta/internal/app"
	"github.com/nwin/rauta/internal/config"
	"github.com/nwin/rauta/internal/log"
)

func main() {
	var (
		configPath  string
		addr        string
		metricsAddr string
		logLevel    string
	)

	rootCmd := &cobra.Command{
		Use:           "rauta",
		Short:         "rauta is a small IRC server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			bootstrapLog := log.New("info")
			cfg, path, err := config.Load(bootstrapLog, configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			logger := log.New(cfg.LogLevel)
			logger.Info().Str("config", path).Str("addr", cfg.Addr).Msg("starting rauta")

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := app.New(cfg, logger).Run(ctx); err != nil {
				return err
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", "", "IRC listen address override")
	rootCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus listen address override")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "log level override")

	if err := rootCmd.Execute(); err != nil {
		log.New("error").Fatal().Err(err).Msg("server exited with error")
	}
}
