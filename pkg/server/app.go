package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "AquaWatch/internal/domain/repository"
	"AquaWatch/internal/middleware"
	"AquaWatch/internal/usecase"
	"AquaWatch/pkg/config"
	xhttp "AquaWatch/pkg/http"
	pkgkafka "AquaWatch/pkg/kafka"
	applogger "AquaWatch/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	pipeline   *middleware.IngestPipeline
	simulator  *usecase.Simulator
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	events     domrepo.EventPublisher
	history    domrepo.HistoryStore
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. Simulator, consumer
// and handler may be nil when the corresponding source is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *middleware.IngestPipeline,
	simulator *usecase.Simulator,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	events domrepo.EventPublisher,
	history domrepo.HistoryStore,
	handler xhttp.Handler,
) *App {
	httpServer := xhttp.NewServer(handler,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(log),
	)
	return &App{
		cfg:        cfg,
		log:        log,
		pipeline:   pipeline,
		simulator:  simulator,
		consumer:   consumer,
		kh:         kh,
		events:     events,
		history:    history,
		httpServer: httpServer,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.pipeline.Start(ctx)

	if a.simulator != nil {
		a.simulator.Start(ctx)
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services in dependency order: sources
// first, then the pipeline, then the outward-facing surfaces and clients.
func (a *App) shutdown(ctx context.Context) error {
	if a.simulator != nil {
		a.simulator.Stop()
	}

	if a.consumer != nil {
		stopCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		if err := a.consumer.Stop(stopCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
		cancel()
	}

	a.pipeline.Stop()

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			a.log.Warn("history store close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
