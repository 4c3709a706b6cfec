package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/polarterminal/polar-bot/internal/domain"
	"github.com/polarterminal/polar-bot/internal/usecase"
)

// Manager крутит четыре независимых планировщика и realtime-поток цен.
// Планировщики друг о друге не знают: ошибка цикла логируется, после чего
// цикл безусловно засыпает до следующего тика.
type Manager struct {
	watcher  *usecase.PriceWatcher
	tracker  *usecase.WalletTracker
	arb      *usecase.ArbScanner
	listings *usecase.ListingScanner

	alerts   domain.AlertRepository
	source   domain.MarketDataSource
	streamer domain.MarketStreamer
	logger   *slog.Logger
	interval time.Duration

	// Индекс подписок realtime-пути: CLOB-токен -> алерты на эту сторону.
	// Перестраивается целиком при каждом ReloadAlerts (хот-релоад из бота).
	mu          sync.RWMutex
	tokenAlerts map[string][]domain.PriceAlert
}

func NewManager(
	watcher *usecase.PriceWatcher,
	tracker *usecase.WalletTracker,
	arb *usecase.ArbScanner,
	listings *usecase.ListingScanner,
	alerts domain.AlertRepository,
	source domain.MarketDataSource,
	streamer domain.MarketStreamer,
	interval time.Duration,
	logger *slog.Logger,
) *Manager {
	return &Manager{
		watcher:     watcher,
		tracker:     tracker,
		arb:         arb,
		listings:    listings,
		alerts:      alerts,
		source:      source,
		streamer:    streamer,
		logger:      logger,
		interval:    interval,
		tokenAlerts: make(map[string][]domain.PriceAlert),
	}
}

// Run блокируется до отмены контекста.
func (m *Manager) Run(ctx context.Context) {
	go m.runLoop(ctx, "price_watcher", m.watcher.CheckAlerts)
	go m.runLoop(ctx, "wallet_tracker", m.tracker.CheckWallets)
	go m.runLoop(ctx, "arb_scanner", m.arb.Scan)
	go m.runLoop(ctx, "listing_scanner", m.listings.Scan)
	m.runStream(ctx)
}

func (m *Manager) runLoop(ctx context.Context, name string, cycle func(context.Context) error) {
	m.logger.Info("Scheduler started",
		slog.String("task", name),
		slog.Duration("interval", m.interval))
	for {
		if err := cycle(ctx); err != nil {
			m.logger.Error("Scheduler cycle failed",
				slog.String("task", name),
				slog.String("err", err.Error()))
		}
		select {
		case <-ctx.Done():
			m.logger.Info("Scheduler stopped", slog.String("task", name))
			return
		case <-time.After(m.interval):
		}
	}
}

// --- Realtime Price Path ---

func (m *Manager) runStream(ctx context.Context) {
	if m.streamer == nil {
		<-ctx.Done()
		return
	}

	if err := m.ReloadAlerts(ctx); err != nil {
		m.logger.Error("Initial alert subscription failed",
			slog.String("err", err.Error()))
	}

	updates, err := m.streamer.Subscribe(m.subscribedTokens())
	if err != nil {
		m.logger.Error("Market stream unavailable, polling only",
			slog.String("err", err.Error()))
		<-ctx.Done()
		return
	}
	m.logger.Info("Market stream consumer started")

	for {
		select {
		case <-ctx.Done():
			m.streamer.Stop()
			return
		case ev, ok := <-updates:
			if !ok {
				return
			}
			m.handleTick(ctx, ev)
		}
	}
}

// ReloadAlerts перестраивает индекс токен->алерты из БД и досылает подписки
// в стрим. Бот дергает его после создания или правки алерта.
func (m *Manager) ReloadAlerts(ctx context.Context) error {
	alerts, err := m.alerts.GetAll(ctx)
	if err != nil {
		return err
	}

	index := make(map[string][]domain.PriceAlert)
	var tokens []string
	for _, a := range alerts {
		market, err := m.source.GetMarket(ctx, a.MarketID)
		if err != nil || market == nil {
			continue
		}
		token := outcomeToken(market, a.Outcome)
		if token == "" {
			continue
		}
		if _, exists := index[token]; !exists {
			tokens = append(tokens, token)
		}
		index[token] = append(index[token], a)
	}

	m.mu.Lock()
	m.tokenAlerts = index
	m.mu.Unlock()

	if m.streamer != nil && len(tokens) > 0 {
		if err := m.streamer.AddSubscriptions(tokens); err != nil {
			return err
		}
	}
	m.logger.Info("Alert subscriptions reloaded",
		slog.Int("alerts", len(alerts)),
		slog.Int("tokens", len(tokens)))
	return nil
}

func (m *Manager) handleTick(ctx context.Context, ev domain.PriceUpdateEvent) {
	m.mu.RLock()
	alerts := m.tokenAlerts[ev.AssetID]
	m.mu.RUnlock()

	for _, a := range alerts {
		if done := m.watcher.EvaluateTick(ctx, a, ev.Price); done {
			// Алерта в БД больше нет - убираем из индекса, чтобы не
			// дергать его на каждом тике
			m.dropAlert(ev.AssetID, a.ID)
		}
	}
}

func (m *Manager) dropAlert(token string, alertID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := make([]domain.PriceAlert, 0, len(m.tokenAlerts[token]))
	for _, a := range m.tokenAlerts[token] {
		if a.ID != alertID {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		delete(m.tokenAlerts, token)
		return
	}
	m.tokenAlerts[token] = kept
}

func (m *Manager) subscribedTokens() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	tokens := make([]string, 0, len(m.tokenAlerts))
	for token := range m.tokenAlerts {
		tokens = append(tokens, token)
	}
	return tokens
}

func outcomeToken(market *domain.Market, o domain.Outcome) string {
	idx := 0
	if o == domain.OutcomeNo {
		idx = 1
	}
	if idx >= len(market.ClobTokenIDs) {
		return ""
	}
	return market.ClobTokenIDs[idx]
}
