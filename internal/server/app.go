// Package server initializes and runs the auth service: it connects the
// repository manager to Postgres, runs migrations, wires the credential and
// session stores behind the access gate, and serves the HTTP surface with
// graceful shutdown.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/okulikov/authd/internal/logging"
	"github.com/okulikov/authd/internal/server/config"
	"github.com/okulikov/authd/internal/server/httpapi"
	"github.com/okulikov/authd/internal/server/repositories/repomanager"
	"github.com/okulikov/authd/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	repoManager repomanager.RepositoryManager
	httpServer  *httpapi.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	m, err := repomanager.NewPostgresRepositoryManager(ctx, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	credentials, err := services.NewCredentialService(m.Conn(), m)
	if err != nil {
		return nil, fmt.Errorf("credential service init error: %w", err)
	}
	sessions := services.NewSessionService(m.Conn(), m)
	gate := services.NewAccessGate(sessions, credentials)

	httpServer := httpapi.NewServer(cfg, logger, credentials, sessions, gate)

	return &App{
		config:      cfg,
		logger:      logger,
		repoManager: m,
		httpServer:  httpServer,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.httpServer.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.repoManager.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
