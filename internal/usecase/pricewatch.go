package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// PriceWatcher проверяет ценовые алерты против живых котировок.
// Алерт одноразовый: перед отправкой строка удаляется из БД, и только
// успешное удаление дает право на отправку. Так опросный и realtime-пути
// не могут отправить один алерт дважды.
type PriceWatcher struct {
	source   domain.MarketDataSource
	alerts   domain.AlertRepository
	notifier domain.Notifier
	logger   *slog.Logger
}

func NewPriceWatcher(
	source domain.MarketDataSource,
	alerts domain.AlertRepository,
	notifier domain.Notifier,
	logger *slog.Logger,
) *PriceWatcher {
	return &PriceWatcher{
		source:   source,
		alerts:   alerts,
		notifier: notifier,
		logger:   logger,
	}
}

// CheckAlerts - один цикл опроса. Ошибка по конкретному алерту не прерывает
// обход остальных; ошибка чтения списка прерывает цикл (до следующего тика).
func (w *PriceWatcher) CheckAlerts(ctx context.Context) error {
	alerts, err := w.alerts.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list alerts: %w", err)
	}

	for _, alert := range alerts {
		market, err := w.source.GetMarket(ctx, alert.MarketID)
		if err != nil {
			w.logger.Warn("Market fetch failed, skipping alert",
				slog.Int64("alert_id", alert.ID),
				slog.String("err", err.Error()))
			continue
		}
		if market == nil {
			continue
		}

		current, ok := market.OutcomePrice(alert.Outcome)
		if !ok {
			// Рынок без цен - пропускаем молча
			continue
		}

		if !alert.Triggered(current) {
			continue
		}

		label := market.Question
		if label == "" {
			label = alert.MarketLabel
		}
		w.fire(ctx, alert, label, current)
	}
	return nil
}

// EvaluateTick - realtime-путь: цена стороны пришла из CLOB-стрима.
// Возвращает true, когда алерта в БД больше нет (сработал сейчас или ранее) -
// вызывающий выкидывает его из своего индекса подписок.
func (w *PriceWatcher) EvaluateTick(ctx context.Context, alert domain.PriceAlert, price decimal.Decimal) bool {
	if !alert.Triggered(price) {
		return false
	}
	return w.fire(ctx, alert, alert.MarketLabel, price)
}

// fire захватывает алерт удалением и шлет уведомление. Возвращает true,
// если алерт удален (неважно кем). Ошибка доставки только логируется:
// алерт уже снят, повторять отправку некому.
func (w *PriceWatcher) fire(ctx context.Context, alert domain.PriceAlert, label string, current decimal.Decimal) bool {
	claimed, err := w.alerts.Delete(ctx, alert.ID)
	if err != nil {
		w.logger.Error("Failed to claim alert",
			slog.Int64("alert_id", alert.ID),
			slog.String("err", err.Error()))
		return false
	}
	if !claimed {
		// Параллельный путь успел первым
		return true
	}

	w.logger.Info("Price alert triggered",
		slog.Int64("alert_id", alert.ID),
		slog.Int64("user_id", alert.UserID),
		slog.String("market", alert.MarketID),
		slog.String("price", current.String()))

	text := priceAlertText(alert, label, current)
	link := domain.LinkButton{Label: "🔗 View Market", URL: "https://polymarket.com/market/" + alert.MarketSlug}

	if err := w.notifier.Notify(alert.UserID, text, link); err != nil {
		w.logger.Warn("Failed to deliver price alert",
			slog.Int64("user_id", alert.UserID),
			slog.String("err", err.Error()))
	}
	return true
}

func priceAlertText(alert domain.PriceAlert, label string, current decimal.Decimal) string {
	emoji := "🟩"
	if alert.Outcome == domain.OutcomeNo {
		emoji = "🟥"
	}
	arrow := "📈"
	if alert.Condition == domain.ConditionBelow {
		arrow = "📉"
	}

	return fmt.Sprintf(
		"🚨 <b>Price Alert!</b>\n\n"+
			"📊 %s\n"+
			"%s <b>%s</b> Price: <b>%s¢</b>\n"+
			"🎯 Target: %s¢ (%s)",
		label, emoji, alert.Outcome, cents(current), cents(alert.TargetPrice), arrow,
	)
}

// cents форматирует долю доллара в центы с одним знаком после запятой
func cents(price decimal.Decimal) string {
	return price.Mul(decimal.NewFromInt(100)).StringFixed(1)
}
