// Package app wires together the dispatcher and transport layers.
package app

import (
	"context"
	stdhttp "net/http"

	"github.com/rs/zerolog"

	"github.com/nwin/rauta/internal/config"
	"github.com/nwin/rauta/internal/log"
	"github.com/nwin/rauta/internal/metrics"
	"github.com/nwin/rauta/internal/server"
	"github.com/nwin/rauta/internal/transport"
)

// App owns the long-running parts of the server.
type App struct {
	cfg        config.Config
	log        *zerolog.Logger
	metrics    *metrics.Metrics
	dispatcher *server.Dispatcher
	transport  *transport.Server
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) *App {
	m := metrics.New()
	dispatcherLog := log.Component(logger, "dispatcher")
	transportLog := log.Component(logger, "transport")
	d := server.New(cfg, &dispatcherLog, m)
	return &App{
		cfg:        cfg,
		log:        logger,
		metrics:    m,
		dispatcher: d,
		transport:  transport.NewServer(cfg, &transportLog, m, d),
	}
}

// Run starts the listener and blocks until context cancellation or a
// fatal error. The dispatcher tears down clients and channels itself
// when the context ends.
func (a *App) Run(ctx context.Context) error {
	go a.dispatcher.Run(ctx)

	var metricsSrv *stdhttp.Server
	if a.cfg.MetricsAddr != "" {
		mux := stdhttp.NewServeMux()
		mux.Handle("/metrics", a.metrics.Handler())
		metricsSrv = &stdhttp.Server{Addr: a.cfg.MetricsAddr, Handler: mux}
		go func() {
			a.log.Info().Str("addr", a.cfg.MetricsAddr).Msg("metrics listening")
			if err := metricsSrv.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
				a.log.Warn().Err(err).Msg("metrics server failed")
			}
		}()
	}

	err := a.transport.ListenAndServe(ctx)

	if metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()
		if shutdownErr := metricsSrv.Shutdown(shutdownCtx); shutdownErr != nil {
			a.log.Warn().Err(shutdownErr).Msg("metrics server shutdown failed")
		}
	}
	return err
}
