package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// sentCache помнит рынки, по которым рассылка уже ушла. Живет в памяти
// и целиком сбрасывается раз в окно: возможность, висящая дольше окна,
// напомнит о себе повторно.
type sentCache struct {
	ids       domain.StringSet
	lastReset time.Time
	window    time.Duration
	now       func() time.Time // подменяется в тестах
}

func newSentCache(window time.Duration) *sentCache {
	return &sentCache{
		ids:       domain.NewStringSet(),
		lastReset: time.Now(),
		window:    window,
		now:       time.Now,
	}
}

func (c *sentCache) maybeReset() {
	if c.now().Sub(c.lastReset) > c.window {
		c.ids = domain.NewStringSet()
		c.lastReset = c.now()
	}
}

func (c *sentCache) seen(id string) bool { return c.ids.Has(id) }
func (c *sentCache) mark(id string)      { c.ids.Add(id) }

// ArbScanner ищет рынки, где YES+NO торгуются заметно дешевле доллара,
// и рассылает находки подписчикам.
type ArbScanner struct {
	source    domain.MarketDataSource
	users     domain.UserRepository
	notifier  domain.Notifier
	logger    *slog.Logger
	minProfit decimal.Decimal
	sent      *sentCache
}

func NewArbScanner(
	source domain.MarketDataSource,
	users domain.UserRepository,
	notifier domain.Notifier,
	resetWindow time.Duration,
	logger *slog.Logger,
) *ArbScanner {
	return &ArbScanner{
		source:    source,
		users:     users,
		notifier:  notifier,
		logger:    logger,
		minProfit: decimal.NewFromFloat(1.5), // порог рассылки, в процентах
		sent:      newSentCache(resetWindow),
	}
}

// FindOpportunities возвращает все валидные возможности, отсортированные
// по убыванию профита. Используется и планировщиком, и ручным сканом из бота.
func (s *ArbScanner) FindOpportunities(ctx context.Context) ([]domain.ArbitrageOpportunity, error) {
	markets, err := s.source.GetArbitrageCandidates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}

	var opps []domain.ArbitrageOpportunity
	for _, m := range markets {
		if opp, ok := domain.Opportunity(m); ok {
			opps = append(opps, opp)
		}
	}
	sort.Slice(opps, func(i, j int) bool {
		return opps[i].ProfitPct.GreaterThan(opps[j].ProfitPct)
	})
	return opps, nil
}

// Scan - один цикл планировщика: скан, фильтр по порогу и дедупу, рассылка.
func (s *ArbScanner) Scan(ctx context.Context) error {
	s.sent.maybeReset()

	opps, err := s.FindOpportunities(ctx)
	if err != nil {
		return err
	}
	if len(opps) == 0 {
		return nil
	}

	subscribers, err := s.users.ArbSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list subscribers: %w", err)
	}
	if len(subscribers) == 0 {
		return nil
	}

	for _, opp := range opps {
		if opp.ProfitPct.LessThan(s.minProfit) {
			continue
		}
		if s.sent.seen(opp.MarketID) {
			continue
		}

		s.logger.Info("Arbitrage opportunity found",
			slog.String("market", opp.MarketID),
			slog.String("profit_pct", opp.ProfitPct.StringFixed(2)))

		text := arbText(opp)
		link := domain.LinkButton{Label: "🔗 View Market", URL: opp.URL()}
		for _, userID := range subscribers {
			if err := s.notifier.Notify(userID, text, link); err != nil {
				// Один заблокировавший бота юзер не должен ронять рассылку
				s.logger.Warn("Failed to deliver arb alert",
					slog.Int64("user_id", userID),
					slog.String("err", err.Error()))
			}
		}
		s.sent.mark(opp.MarketID)
	}
	return nil
}

func arbText(opp domain.ArbitrageOpportunity) string {
	total := opp.YesPrice.Add(opp.NoPrice)
	return fmt.Sprintf(
		"💎 <b>Arbitrage Opportunity!</b>\n\n"+
			"📜 %s\n"+
			"🟩 YES: %s¢ + 🟥 NO: %s¢ = %s¢\n"+
			"💰 Profit: <b>%s%%</b>",
		opp.Question,
		cents(opp.YesPrice), cents(opp.NoPrice), cents(total),
		opp.ProfitPct.StringFixed(2),
	)
}
