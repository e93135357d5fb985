package main

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"dealradar/config"
	"dealradar/internal/api"
	"dealradar/internal/apify"
	"dealradar/internal/database"
	"dealradar/internal/engine"
	"dealradar/internal/ledger"
	"dealradar/internal/marketstats"
	"dealradar/internal/processor"
	"dealradar/internal/queue"
	"dealradar/internal/scheduler"
	"dealradar/internal/telegram"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		logger.Info("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}

	if err := config.LoadHardCaps(cfg.Market.HardCapRulesPath); err != nil {
		logger.WithError(err).Fatal("Failed to load hard-cap rules")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.SQLitePath), 0o755); err != nil {
		logger.WithError(err).Fatal("Failed to create database directory")
	}
	logger.Infof("Using database at: %s", cfg.SQLitePath)

	db, err := database.NewDatabase(cfg.SQLitePath)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	dedup, err := ledger.NewLedger(db.GetDB())
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize dedup ledger")
	}

	cache := marketstats.NewCache(db)

	notifier := telegram.NewService(telegram.Config{
		BotToken:  cfg.Telegram.BotToken,
		ChatID:    cfg.Telegram.ChatID,
		IsEnabled: cfg.Telegram.IsEnabled,
	}, logger)

	dealEngine := engine.NewEngine(cache, dedup, notifier, engine.Options{
		MinSamples:        cfg.Market.MinSamples,
		DiscountStandard:  cfg.Market.DiscountStandard,
		DiscountWeak:      cfg.Market.DiscountWeak,
		FreshnessMinutes:  cfg.Market.FreshnessMinutes,
		MinGroupSize:      cfg.Market.MinGroupSize,
		NotifyNewListings: cfg.NotifyNewListings,
		HardCaps:          config.GetHardCaps,
	}, logger)

	listingQueue := queue.NewListingQueue(100, logger)
	listingQueue.Start()

	batchProcessor := processor.NewBatchProcessor(dealEngine, listingQueue, processor.Options{
		WorkerCount: 1,
		MaxRetries:  3,
		RetryDelay:  5 * time.Second,
	}, logger)
	batchProcessor.Start()

	scraper := apify.NewClient(cfg.Apify.Token, cfg.Apify.Actor, cfg.Apify.UseProxy, logger)

	startURLs := cfg.ParseStartURLs()
	if len(startURLs) == 0 {
		logger.Warn("START_URLS is empty, scheduled scans will be skipped")
	}

	scanScheduler := scheduler.NewScheduler(
		scraper,
		listingQueue,
		startURLs,
		cfg.Apify.MaxItems,
		time.Duration(cfg.ScanIntervalMinutes)*time.Minute,
		logger,
	)
	scanScheduler.Start()

	router := api.SetupRouter(api.NewHandler(db, dedup, scanScheduler, logger))

	go func() {
		logger.Infof("Starting admin API on port %s", cfg.APIPort)
		if err := router.Run(":" + cfg.APIPort); err != nil {
			logger.WithError(err).Fatal("Admin API failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	scanScheduler.Stop()
	if err := listingQueue.Close(); err != nil {
		logger.WithError(err).Error("Failed to close listing queue")
	}
	batchProcessor.Stop()
	logger.Info("Shutdown complete")
}
