package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tech-arch1tect/angrymail/config"
	"github.com/tech-arch1tect/angrymail/database"
	"github.com/tech-arch1tect/angrymail/server"
	"github.com/tech-arch1tect/angrymail/services/logging"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	stopTimeout     = 30 * time.Second
	testStopTimeout = 2 * time.Second
)

type App struct {
	fx      *fx.App
	config  *config.Config
	logger  *logging.Service
	server  *server.Server
	gateway *database.Gateway
}

func (a *App) Start() error {
	return a.fx.Start(context.Background())
}

func (a *App) StartTest() error {
	return a.fx.Start(context.Background())
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	if err := a.Start(); err != nil {
		log.Fatalf("Failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	if a.logger != nil {
		a.logger.Info("received shutdown signal, stopping gracefully", zap.String("signal", sig.String()))
	} else {
		log.Printf("Received signal %v, shutting down gracefully...", sig)
	}

	a.Stop()
}

func (a *App) Stop() {
	a.stop(stopTimeout)
}

func (a *App) StopTest() {
	a.stop(testStopTimeout)
}

func (a *App) stop(timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := a.fx.Stop(ctx); err != nil {
		if a.logger != nil {
			a.logger.Error("failed to stop application gracefully", zap.Error(err))
		} else {
			log.Printf("Failed to stop application gracefully: %v", err)
		}
	}
}

func (a *App) Server() *echo.Echo {
	if a.server == nil {
		if a.logger != nil {
			a.logger.Warn("server not initialized through dependency injection")
		}
		return nil
	}
	return a.server.Echo()
}

func (a *App) HTTPServer() *server.Server {
	return a.server
}

func (a *App) Gateway() *database.Gateway {
	return a.gateway
}

func (a *App) Logger() *logging.Service {
	return a.logger
}

func (a *App) Config() *config.Config {
	return a.config
}
