// ====================================
// File: cmd/bot/main.go
// ====================================
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-arb-bot/internal/bot"
	"github.com/rovshanmuradov/solana-arb-bot/internal/config"
	"github.com/rovshanmuradov/solana-arb-bot/internal/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(os.Getenv("ARB_CONFIG"))
	if err != nil {
		// No operator settings yet; a plain console logger reports the problem.
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to load configuration", zap.Error(err))
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Debug = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fallback, _ := zap.NewDevelopment()
		fallback.Fatal("Failed to create logger", zap.Error(err))
	}

	log.Info("Starting arbitrage bot")

	app, err := bot.New(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize bot", zap.Error(err))
	}
	defer app.Shutdown()

	if err := app.Run(ctx); err != nil {
		log.Error("Bot execution error", zap.Error(err))
		app.Shutdown()
		os.Exit(1)
	}
}
