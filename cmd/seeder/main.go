package main

import (
	"context"
	"log"

	"github.com/shopspring/decimal"

	_ "github.com/joho/godotenv/autoload"

	"github.com/polarterminal/polar-bot/internal/config"
	"github.com/polarterminal/polar-bot/internal/domain"
	"github.com/polarterminal/polar-bot/internal/infrastructure/database"
)

// Сидер наполняет локальную базу тестовыми данными: пользователь, пара
// алертов и кошелек. Только для локального окружения.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	if cfg.Env != "local" {
		log.Fatal("Seeder allowed only in local environment")
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()

	if err := database.Migrate(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	userRepo := database.NewUserRepository(db)
	alertRepo := database.NewAlertRepository(db)
	walletRepo := database.NewWalletRepository(db)

	// --- ШАГ 1: Пользователь ---
	user := &domain.User{
		ID:       12345, // Тестовый Telegram ID
		Username: "test_trader",
	}
	if err := userRepo.Upsert(ctx, user); err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	log.Printf("✅ User ready! ID: %d", user.ID)

	// --- ШАГ 2: Ценовые алерты ---
	alerts, _ := alertRepo.GetByUserID(ctx, user.ID)
	if len(alerts) > 0 {
		log.Printf("[Seeder] Found %d alerts. Skipping creation.", len(alerts))
	} else {
		alert := &domain.PriceAlert{
			UserID:      user.ID,
			MarketID:    "demo-market-btc-100k",
			MarketSlug:  "will-btc-hit-100k",
			MarketLabel: "Will BTC hit $100k this year?",
			Outcome:     domain.OutcomeYes,
			TargetPrice: decimal.NewFromFloat(0.60),
			Condition:   domain.ConditionAbove,
		}
		if err := alertRepo.Create(ctx, alert); err != nil {
			log.Fatalf("Failed to create alert: %v", err)
		}
		log.Printf("✅ Alert created! ID: %d", alert.ID)
	}

	// --- ШАГ 3: Отслеживаемый кошелек ---
	wallets, _ := walletRepo.GetByUserID(ctx, user.ID)
	if len(wallets) > 0 {
		log.Printf("[Seeder] Found %d wallets. Skipping creation.", len(wallets))
		return
	}

	wallet := &domain.TrackedWallet{
		UserID:  user.ID,
		Address: "0x0000000000000000000000000000000000000001",
		Alias:   "Demo Whale",
	}
	if err := walletRepo.Create(ctx, wallet); err != nil {
		log.Fatalf("Failed to create wallet: %v", err)
	}
	log.Printf("✅ Wallet created! ID: %d", wallet.ID)
}
