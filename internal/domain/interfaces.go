package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// MarketDataSource - адаптер к Polymarket (Gamma, data-api, сабграф).
// Все методы возвращают ошибку при сетевых/парсинг-проблемах; циклы
// планировщиков сами решают, пропустить элемент или прервать цикл.
type MarketDataSource interface {
	// Снимок одного рынка. (nil, nil) если рынок не найден.
	GetMarket(ctx context.Context, marketID string) (*Market, error)

	// Рынки события по ссылке polymarket.com/event/<slug> или по самому slug.
	GetMarketsBySlug(ctx context.Context, slugOrURL string) ([]Market, error)

	// Свежие активные рынки/события, новые первыми. Батч ограничен.
	GetRecentMarkets(ctx context.Context) ([]Market, error)
	GetRecentEvents(ctx context.Context) ([]Event, error)

	// Последняя сделка кошелька. (nil, nil) если сделок еще не было.
	GetLatestTrade(ctx context.Context, address string) (*Trade, error)

	GetWalletPositions(ctx context.Context, address string) ([]Position, error)

	// Активные рынки с наибольшим объемом - кандидаты для арбитража.
	GetArbitrageCandidates(ctx context.Context) ([]Market, error)
}

// AlertRepository - ценовые алерты в БД
type AlertRepository interface {
	GetAll(ctx context.Context) ([]PriceAlert, error)
	GetByUserID(ctx context.Context, userID int64) ([]PriceAlert, error)

	// (nil, nil) если алерта нет
	GetByID(ctx context.Context, id int64) (*PriceAlert, error)

	Create(ctx context.Context, alert *PriceAlert) error
	Update(ctx context.Context, id int64, target decimal.Decimal, cond Condition, outcome Outcome) error

	// Delete возвращает true, если строка реально удалена. Это же - "захват"
	// алерта перед отправкой в realtime-пути: кто удалил, тот и шлет.
	Delete(ctx context.Context, id int64) (bool, error)
}

// WalletRepository - отслеживаемые кошельки в БД
type WalletRepository interface {
	GetAll(ctx context.Context) ([]TrackedWallet, error)
	GetByUserID(ctx context.Context, userID int64) ([]TrackedWallet, error)
	GetByID(ctx context.Context, id int64) (*TrackedWallet, error)

	Create(ctx context.Context, w *TrackedWallet) error

	// Сдвиг курсора последней сделки
	UpdateCursor(ctx context.Context, id int64, tradeID string) error

	// Полная перезапись набора seen-рынков
	UpdateSeenMarkets(ctx context.Context, id int64, seen StringSet) error

	// Настройки фильтров. Набор seen-рынков НЕ трогает.
	UpdateSettings(ctx context.Context, id int64, minVol, priceTarget decimal.Decimal, cond Condition, onlyNew bool) error

	Delete(ctx context.Context, id, userID int64) (bool, error)
}

// UserRepository - пользователи и их подписки
type UserRepository interface {
	Upsert(ctx context.Context, user *User) error
	Get(ctx context.Context, id int64) (*User, error)

	// Тогглы возвращают новое значение
	ToggleArbAlerts(ctx context.Context, id int64) (bool, error)
	ToggleMarketAlerts(ctx context.Context, id int64) (bool, error)
	ToggleEventAlerts(ctx context.Context, id int64) (bool, error)

	// Списки получателей. Запрашиваются заново каждый цикл.
	ArbSubscribers(ctx context.Context) ([]int64, error)
	MarketSubscribers(ctx context.Context) ([]int64, error)
	EventSubscribers(ctx context.Context) ([]int64, error)
}

// SnapshotRepository - аудит-слепки циклов сканера листингов
type SnapshotRepository interface {
	SaveListingSnapshot(ctx context.Context, snap *ListingSnapshot) error
}

// LinkButton - кнопка-ссылка под сообщением
type LinkButton struct {
	Label string
	URL   string
}

// Notifier - доставка уведомлений в Telegram. Ошибка получателя
// (заблокировал бота, удалил аккаунт) возвращается вызывающему,
// тот логирует и продолжает со следующим получателем.
type Notifier interface {
	Notify(userID int64, text string, links ...LinkButton) error
}

// MarketStreamer - realtime-поток цен из CLOB websocket
type MarketStreamer interface {
	// Subscribe запускает поток и возвращает канал тиков
	Subscribe(assetIDs []string) (<-chan PriceUpdateEvent, error)

	// AddSubscriptions докидывает токены "на лету" без разрыва соединения
	AddSubscriptions(assetIDs []string) error

	Stop()
}
