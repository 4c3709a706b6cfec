package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// --- Enums & Constants ---

// Outcome - сторона бинарного рынка
type Outcome string

const (
	OutcomeYes Outcome = "YES"
	OutcomeNo  Outcome = "NO"
)

// Condition - условие срабатывания по цене
type Condition string

const (
	ConditionNone  Condition = "NONE" // Фильтр выключен (только для кошельков)
	ConditionAbove Condition = "ABOVE"
	ConditionBelow Condition = "BELOW"
)

// --- Entities (Сущности БД) ---

// User - пользователь бота. Ключ - Telegram ID (он же chat ID для отправки).
type User struct {
	ID           int64 // Telegram ID
	Username     string
	ArbAlerts    bool // Подписка на арбитражные сигналы
	MarketAlerts bool // Подписка на новые рынки
	EventAlerts  bool // Подписка на новые события
	CreatedAt    time.Time
}

// PriceAlert - ценовой алерт. Одноразовый: после срабатывания удаляется из БД,
// повторных уведомлений по одному алерту не бывает.
type PriceAlert struct {
	ID          int64
	UserID      int64
	MarketID    string
	MarketSlug  string
	MarketLabel string          // Текст вопроса рынка на момент создания
	Outcome     Outcome         // YES или NO
	TargetPrice decimal.Decimal // (0, 1]
	Condition   Condition       // ABOVE или BELOW
	CreatedAt   time.Time
}

// Triggered проверяет условие против текущей цены. Границы включительные:
// ABOVE срабатывает при current >= target, BELOW - при current <= target.
func (a PriceAlert) Triggered(current decimal.Decimal) bool {
	switch a.Condition {
	case ConditionAbove:
		return current.GreaterThanOrEqual(a.TargetPrice)
	case ConditionBelow:
		return current.LessThanOrEqual(a.TargetPrice)
	}
	return false
}

// TrackedWallet - отслеживаемый кошелек Polygon.
//
// LastTradeID - монотонный курсор: пустая строка означает "еще ни разу не
// опрашивали" (cold start). На первом опросе курсор просто выставляется,
// уведомление не шлем.
type TrackedWallet struct {
	ID          int64
	UserID      int64
	Address     string
	Alias       string
	LastTradeID string

	// Фильтры уведомлений
	MinVolumeUSD   decimal.Decimal
	PriceCondition Condition // NONE = фильтр по цене выключен
	PriceTarget    decimal.Decimal
	OnlyNewMarkets bool // Уведомлять только о первом входе кошелька в рынок

	// Рынки, в которых кошелек уже замечен. Растет монотонно.
	SeenMarkets StringSet
}

// ColdStart сообщает, опрашивался ли кошелек хоть раз.
func (w TrackedWallet) ColdStart() bool {
	return w.LastTradeID == ""
}

// --- Value Objects ---

// StringSet - множество строк. Используется для seen-рынков кошелька и
// baseline-наборов сканера листингов.
type StringSet map[string]struct{}

func NewStringSet(vals ...string) StringSet {
	s := make(StringSet, len(vals))
	for _, v := range vals {
		s[v] = struct{}{}
	}
	return s
}

// Add добавляет значение и возвращает true, если его раньше не было.
func (s StringSet) Add(v string) bool {
	if _, ok := s[v]; ok {
		return false
	}
	s[v] = struct{}{}
	return true
}

func (s StringSet) Has(v string) bool {
	_, ok := s[v]
	return ok
}

func (s StringSet) Values() []string {
	vals := make([]string, 0, len(s))
	for v := range s {
		vals = append(vals, v)
	}
	return vals
}

// ListingSnapshot - аудит-слепок одного цикла сканера листингов.
// Пишется best-effort, ошибка записи не прерывает обработку.
type ListingSnapshot struct {
	ID        string // uuid
	ScannedAt time.Time
	Markets   []Market
	Events    []Event
}
