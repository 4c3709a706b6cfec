package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// ListingScanner караулит свежие листинги рынков и событий. База виденных id
// живет в памяти: nil означает, что первый скан еще не прошел. На холодном
// старте только снимается база, без единого уведомления - иначе после
// рестарта бот вывалит пользователям всю выдачу API.
type ListingScanner struct {
	source    domain.MarketDataSource
	users     domain.UserRepository
	snapshots domain.SnapshotRepository
	notifier  domain.Notifier
	logger    *slog.Logger

	seenMarkets domain.StringSet
	seenEvents  domain.StringSet
}

func NewListingScanner(
	source domain.MarketDataSource,
	users domain.UserRepository,
	snapshots domain.SnapshotRepository,
	notifier domain.Notifier,
	logger *slog.Logger,
) *ListingScanner {
	return &ListingScanner{
		source:    source,
		users:     users,
		snapshots: snapshots,
		notifier:  notifier,
		logger:    logger,
	}
}

// Scan - один цикл: забрать свежие листинги, заархивировать снимок,
// разослать дельту. При ошибке запроса на холодном старте база НЕ снимается -
// инициализация по неполной выдаче обернулась бы штормом уведомлений.
func (s *ListingScanner) Scan(ctx context.Context) error {
	markets, err := s.source.GetRecentMarkets(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch recent markets: %w", err)
	}
	events, err := s.source.GetRecentEvents(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch recent events: %w", err)
	}

	// Аудит-снимок best effort: сбой архива не должен останавливать рассылку
	snap := &domain.ListingSnapshot{
		ID:        uuid.NewString(),
		ScannedAt: time.Now().UTC(),
		Markets:   markets,
		Events:    events,
	}
	if err := s.snapshots.SaveListingSnapshot(ctx, snap); err != nil {
		s.logger.Error("Failed to archive listing snapshot",
			slog.String("err", err.Error()))
	}

	if s.seenMarkets == nil {
		s.seenMarkets = domain.NewStringSet()
		s.seenEvents = domain.NewStringSet()
		for _, m := range markets {
			s.seenMarkets.Add(m.ID)
		}
		for _, e := range events {
			s.seenEvents.Add(e.ID)
		}
		s.logger.Info("Listing baseline initialized",
			slog.Int("markets", len(markets)),
			slog.Int("events", len(events)))
		return nil
	}

	marketSubs, err := s.users.MarketSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list market subscribers: %w", err)
	}
	eventSubs, err := s.users.EventSubscribers(ctx)
	if err != nil {
		return fmt.Errorf("failed to list event subscribers: %w", err)
	}

	for _, m := range markets {
		if s.seenMarkets.Has(m.ID) {
			continue
		}
		// В базу id попадает независимо от наличия подписчиков
		s.seenMarkets.Add(m.ID)
		if len(marketSubs) == 0 {
			continue
		}
		s.broadcast(marketSubs, newMarketText(m),
			domain.LinkButton{Label: "🔗 View Market", URL: m.URL()})
	}

	for _, e := range events {
		if s.seenEvents.Has(e.ID) {
			continue
		}
		s.seenEvents.Add(e.ID)
		if len(eventSubs) == 0 {
			continue
		}
		s.broadcast(eventSubs, newEventText(e),
			domain.LinkButton{Label: "🔗 View Event", URL: e.URL()})
	}
	return nil
}

func (s *ListingScanner) broadcast(userIDs []int64, text string, link domain.LinkButton) {
	for _, userID := range userIDs {
		if err := s.notifier.Notify(userID, text, link); err != nil {
			s.logger.Warn("Failed to deliver listing alert",
				slog.Int64("user_id", userID),
				slog.String("err", err.Error()))
		}
	}
}

func newMarketText(m domain.Market) string {
	start := firstDate(m.StartDate, m.CreatedAt)
	end := firstDate(m.EndDate)
	return fmt.Sprintf(
		"🆕 <b>New Market Listed!</b>\n\n"+
			"📜 %s\n"+
			"📝 %s\n"+
			"🗓 Starts: %s\n"+
			"🏁 Ends: %s",
		m.Question, truncate(m.Description, 200), start, end,
	)
}

func newEventText(e domain.Event) string {
	start := firstDate(e.StartDate, e.CreationDate)
	end := firstDate(e.EndDate)
	return fmt.Sprintf(
		"🗂 <b>New Event Listed!</b>\n\n"+
			"📜 %s\n"+
			"📝 %s\n"+
			"🗓 Starts: %s\n"+
			"🏁 Ends: %s",
		e.Title, truncate(e.Description, 150), start, end,
	)
}

// firstDate берет первую непустую дату и отрезает время; если дат нет - TBA
func firstDate(dates ...string) string {
	for _, d := range dates {
		if d == "" {
			continue
		}
		if i := strings.IndexByte(d, 'T'); i > 0 {
			return d[:i]
		}
		return d
	}
	return "TBA"
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
