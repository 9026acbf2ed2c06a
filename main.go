package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"storefront/internal/config"
	"storefront/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l, flush := logger.New(cfg.Log)
	defer flush()

	app, err := NewApp(cfg, l)
	if err != nil {
		l.Fatal("failed to initialize app", zap.Error(err))
	}
	app.StartConsumers()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		l.Info("starting server", zap.String("port", cfg.App.Port))
		if err := app.Fiber.Listen(cfg.App.Port); err != nil {
			l.Fatal("server failed to start", zap.Error(err))
		}
	}()

	<-quit
	l.Info("shutting down server")

	if err := app.Fiber.Shutdown(); err != nil {
		l.Error("error during fiber shutdown", zap.Error(err))
	}
	if err := app.Close(); err != nil {
		l.Error("error releasing resources", zap.Error(err))
	}
	l.Info("server gracefully stopped")
}
