package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FilipeAphrody/sentinel-authcore/internal/app"
	"github.com/FilipeAphrody/sentinel-authcore/internal/config"
	"github.com/FilipeAphrody/sentinel-authcore/internal/logger"
)

func main() {
	// 1. Load Configuration from Environment
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// 2. Setup Logging
	l := logger.New(cfg.LogLevel, cfg.LogPretty)

	// Wait for interrupt signal to gracefully shutdown the server
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Infrastructure, Usecases and Routes
	a, err := app.New(ctx, cfg, l)
	if err != nil {
		l.Fatal().Err(err).Msg("failed to start")
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.Close(closeCtx); err != nil {
			l.Error().Err(err).Msg("failed to close backends")
		}
	}()

	// 4. Start Server with Graceful Shutdown
	if err := a.Run(ctx); err != nil {
		l.Error().Err(err).Msg("server error")
		return
	}

	l.Info().Msg("server exiting")
}
