package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// WalletTracker следит за последней сделкой каждого отслеживаемого кошелька.
// Курсор last_trade_id двигается ДО фильтров: пропущенная фильтром сделка
// не должна всплыть как "новая" на следующем цикле.
type WalletTracker struct {
	source   domain.MarketDataSource
	wallets  domain.WalletRepository
	notifier domain.Notifier
	logger   *slog.Logger
	delay    time.Duration // пауза между кошельками, бережем the-graph
}

func NewWalletTracker(
	source domain.MarketDataSource,
	wallets domain.WalletRepository,
	notifier domain.Notifier,
	delay time.Duration,
	logger *slog.Logger,
) *WalletTracker {
	return &WalletTracker{
		source:   source,
		wallets:  wallets,
		notifier: notifier,
		logger:   logger,
		delay:    delay,
	}
}

// CheckWallets - один цикл опроса всех кошельков. Ошибка по одному кошельку
// не трогает остальных.
func (t *WalletTracker) CheckWallets(ctx context.Context) error {
	wallets, err := t.wallets.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list tracked wallets: %w", err)
	}

	for i := range wallets {
		if i > 0 && t.delay > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(t.delay):
			}
		}
		if err := t.checkWallet(ctx, &wallets[i]); err != nil {
			t.logger.Warn("Wallet check failed",
				slog.Int64("wallet_id", wallets[i].ID),
				slog.String("address", wallets[i].Address),
				slog.String("err", err.Error()))
		}
	}
	return nil
}

func (t *WalletTracker) checkWallet(ctx context.Context, w *domain.TrackedWallet) error {
	trade, err := t.source.GetLatestTrade(ctx, w.Address)
	if err != nil {
		return fmt.Errorf("latest trade: %w", err)
	}
	if trade == nil || trade.ID == w.LastTradeID {
		return nil
	}

	coldStart := w.ColdStart()

	// Сначала курсор: если упадем ниже, сделку лучше потерять, чем задублировать
	if err := t.wallets.UpdateCursor(ctx, w.ID, trade.ID); err != nil {
		return fmt.Errorf("advance cursor: %w", err)
	}
	w.LastTradeID = trade.ID

	// Учет виденных рынков ведется всегда, независимо от фильтров ниже
	marketIsNew := false
	if trade.MarketID != "" {
		if w.SeenMarkets == nil {
			w.SeenMarkets = domain.NewStringSet()
		}
		marketIsNew = w.SeenMarkets.Add(trade.MarketID)
		if marketIsNew {
			if err := t.wallets.UpdateSeenMarkets(ctx, w.ID, w.SeenMarkets); err != nil {
				t.logger.Warn("Failed to persist seen markets",
					slog.Int64("wallet_id", w.ID),
					slog.String("err", err.Error()))
			}
		}
	}

	if coldStart {
		t.logger.Info("Wallet cursor initialized",
			slog.Int64("wallet_id", w.ID),
			slog.String("trade_id", trade.ID))
		return nil
	}

	if trade.AmountUSD.LessThan(w.MinVolumeUSD) {
		return nil
	}

	if w.PriceCondition != domain.ConditionNone {
		price := trade.PricePerShare()
		switch w.PriceCondition {
		case domain.ConditionAbove:
			if price.LessThan(w.PriceTarget) {
				return nil
			}
		case domain.ConditionBelow:
			if price.GreaterThan(w.PriceTarget) {
				return nil
			}
		}
	}

	if w.OnlyNewMarkets && !marketIsNew {
		return nil
	}

	t.logger.Info("Wallet trade matched filters",
		slog.Int64("wallet_id", w.ID),
		slog.String("trade_id", trade.ID),
		slog.String("amount_usd", trade.AmountUSD.String()))

	text := walletTradeText(w, trade, marketIsNew)
	links := []domain.LinkButton{
		{Label: "🔗 View Market", URL: "https://polymarket.com/market/" + trade.MarketSlug},
	}
	if trade.TxHash != "" {
		links = append(links, domain.LinkButton{Label: "🧾 Transaction", URL: "https://polygonscan.com/tx/" + trade.TxHash})
	}
	if err := t.notifier.Notify(w.UserID, text, links...); err != nil {
		t.logger.Warn("Failed to deliver wallet alert",
			slog.Int64("user_id", w.UserID),
			slog.String("err", err.Error()))
	}
	return nil
}

func walletTradeText(w *domain.TrackedWallet, trade *domain.Trade, marketIsNew bool) string {
	header := "⚡ <b>New Trade Detected!</b>"
	if marketIsNew {
		header = "🆕 <b>New Market Entry!</b>"
	}
	side := "🟢 BOUGHT"
	if trade.IsSell() {
		side = "🔴 SOLD"
	}
	return fmt.Sprintf(
		"🔭 <b>Wallet Tracker: %s</b>\n\n"+
			"%s\n"+
			"📜 %s\n"+
			"%s <b>%s</b>\n"+
			"💲 Price: %s¢\n"+
			"💰 Amount: $%s",
		w.Alias, header, trade.MarketQuestion, side, trade.Side(),
		cents(trade.PricePerShare()), trade.AmountUSD.StringFixed(2),
	)
}
