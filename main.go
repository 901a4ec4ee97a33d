// Package main is the entry point for the family coin Telegram bot.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/famcoin-bot/internal/bot"
	"gitlab.com/yelinaung/famcoin-bot/internal/config"
	"gitlab.com/yelinaung/famcoin-bot/internal/database"
	"gitlab.com/yelinaung/famcoin-bot/internal/economy"
	"gitlab.com/yelinaung/famcoin-bot/internal/exchange"
	"gitlab.com/yelinaung/famcoin-bot/internal/logger"
	"gitlab.com/yelinaung/famcoin-bot/internal/repository"
	"gitlab.com/yelinaung/famcoin-bot/internal/service"
	"gitlab.com/yelinaung/famcoin-bot/internal/telemetry"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("famcoin-bot %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	if cfg.LogJSON {
		logger.SetJSON()
	}
	logger.SetLevel(cfg.LogLevel)

	shutdownTelemetry, err := telemetry.Setup(ctx, telemetry.Options{
		Exporter:    cfg.OTelExporter,
		ServiceName: cfg.OTelServiceName,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
		}
	}()

	fixed, err := exchange.NewFixedRate(cfg.CoinDisplayRate, cfg.DisplayCurrency)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Invalid coin display rate")
	}

	opts := service.Options{}
	registryOpts := economy.Options{Converter: fixed}

	if cfg.UsesDatabase() {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer pool.Close()

		if err := database.Migrate(ctx, pool); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to run migrations")
		}

		opts.Accounts = repository.NewAccountRepository(pool)
		opts.Claims = repository.NewInterestRunRepository(pool)
		registryOpts.Purchases = repository.NewPurchaseRepository(pool)
		opts.Units = repository.NewUnitOfWork(pool)
		logger.Log.Info().Msg("Database initialized successfully")
	} else {
		logger.Log.Warn().Msg("DATABASE_URL not set, accounts are kept in memory and lost on restart")
	}
	opts.Registry = economy.NewRegistry(registryOpts)

	svc, err := service.New(opts)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create economy service")
	}

	var rates exchange.RateSource
	if cfg.LocalCurrency != "" {
		rates = exchange.NewCachedRates(
			exchange.NewFrankfurterClient(cfg.ExchangeRateBaseURL, cfg.ExchangeRateTimeout),
			cfg.ExchangeRateCacheTTL,
		)
	}
	presenter := exchange.NewPresenter(fixed, rates, cfg.LocalCurrency)

	telegramBot, err := bot.New(cfg, svc, presenter)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to create bot")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan
		logger.Log.Info().Msg("Shutting down...")
		cancel()
	}()

	go telegramBot.StartInterestLoop(ctx)

	telegramBot.Start(ctx)
}
