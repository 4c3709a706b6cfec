package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	_ "github.com/joho/godotenv/autoload"

	"github.com/polarterminal/polar-bot/internal/bot"
	"github.com/polarterminal/polar-bot/internal/config"
	"github.com/polarterminal/polar-bot/internal/infrastructure/database"
	"github.com/polarterminal/polar-bot/internal/infrastructure/polymarket"
	"github.com/polarterminal/polar-bot/internal/usecase"
	"github.com/polarterminal/polar-bot/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Error("failed to run migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	userRepo := database.NewUserRepository(db)
	alertRepo := database.NewAlertRepository(db)
	walletRepo := database.NewWalletRepository(db)
	snapshotRepo := database.NewSnapshotRepository(db)

	client := polymarket.NewClient(
		cfg.Polymarket.GammaURL,
		cfg.Polymarket.DataURL,
		cfg.Polymarket.GraphURL,
		cfg.Polymarket.Timeout,
	)
	stream := polymarket.NewMarketStream(cfg.Polymarket.StreamURL, logger)

	tgBot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error("failed to init telegram bot", slog.String("error", err.Error()))
		os.Exit(1)
	}
	tgBot.Debug = false
	logger.Info("Telegram bot authorized", slog.String("username", tgBot.Self.UserName))

	notifier := bot.NewNotifier(tgBot, logger)

	watcher := usecase.NewPriceWatcher(client, alertRepo, notifier, logger)
	tracker := usecase.NewWalletTracker(client, walletRepo, notifier, cfg.Watch.WalletDelay, logger)
	arb := usecase.NewArbScanner(client, userRepo, notifier, cfg.Watch.ArbResetWindow, logger)
	listings := usecase.NewListingScanner(client, userRepo, snapshotRepo, notifier, logger)

	manager := worker.NewManager(
		watcher, tracker, arb, listings,
		alertRepo, client, stream,
		cfg.Watch.PollInterval, logger,
	)

	handler := bot.NewHandler(tgBot, userRepo, alertRepo, walletRepo, client, arb, manager, logger)

	logger.Info("Starting bot...", slog.String("env", cfg.Env))

	go manager.Run(ctx)
	go handler.Start(ctx)

	<-ctx.Done()
	logger.Info("Bot stopped gracefully")
}
