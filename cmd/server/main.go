package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/latestcomment/team-alert/internal/config"
	"github.com/latestcomment/team-alert/internal/handlers"
	"github.com/latestcomment/team-alert/internal/logging"
	"github.com/latestcomment/team-alert/internal/services"
)

func main() {
	cfg := config.Load()

	logger, closeLog, err := logging.New(logging.Options{
		Level:   cfg.LogLevel,
		Console: cfg.IsDevelopment(),
		File:    cfg.LogFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	service := services.NewRelayService(services.Options{
		MaxUsers: cfg.MaxUsers,
		Logger:   logger,
	})
	app := handlers.NewApp(service, logger, cfg.CorsOrigin)

	go func() {
		logger.Info().Msg("===========================================")
		logger.Info().Msg("Team Alert Server Started")
		logger.Info().Msg("===========================================")
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Int("max_users", cfg.MaxUsers).Msg("listening")
		logger.Info().Msgf("Health Check: http://localhost:%s/health", cfg.Port)
		logger.Info().Msgf("Users Endpoint: http://localhost:%s/users", cfg.Port)
		logger.Info().Msgf("Relay: ws://localhost:%s/ws", cfg.Port)

		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Fatal().Err(err).Msg("server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info().Str("signal", sig.String()).Msg("signal received, closing HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced to shutdown")
	}

	logger.Info().Msg("HTTP server closed")
}
