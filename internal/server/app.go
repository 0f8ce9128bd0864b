// Package server wires configuration, storage and services together and
// runs the admin HTTP and gRPC servers until the process is signalled.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophledger/internal/logging"
	"github.com/dmitrijs2005/gophledger/internal/server/admin"
	"github.com/dmitrijs2005/gophledger/internal/server/config"

	gs "github.com/dmitrijs2005/gophledger/internal/server/grpc"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	backend *Backend
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		File:    c.LogFile,
		Dev:     c.LogDev,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	b, err := OpenBackend(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{config: c, logger: logger, backend: b}, nil
}

// NewAppWithBackend builds an App around an existing backend.
func NewAppWithBackend(c *config.Config, logger logging.Logger, b *Backend) *App {
	return &App{config: c, logger: logger, backend: b}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.backend.Suite, app.backend.Suite.Settings.FreeUnitsSeed, app.config.SecretKey)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	log := app.logger.With("module", "http_server")
	h := admin.NewHandler(app.backend.Suite, app.backend.Suite.Settings.FreeUnitsSeed, log)
	srv := &http.Server{
		Addr:              app.config.AdminHTTPAddr,
		Handler:           admin.Routes(h, []byte(app.config.SecretKey), log),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
		defer cancel()
		log.Info(ctx, "Stopping HTTP server...")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error(ctx, "http shutdown", "error", err)
		}
	}()

	log.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error(ctx, err.Error())
		cancelFunc()
	}
	<-done
}

// Run serves until ctx is cancelled, SIGINT/SIGTERM/SIGQUIT arrives or
// one of the servers fails, then closes the backend.
func (app *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return app.backend.Close()
}
