package bot

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// Notifier - доставка алертов планировщиков в личку. Каждый вызов - одно
// сообщение одному получателю; изоляция сбоев остается на вызывающем.
type Notifier struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

func NewNotifier(bot *tgbotapi.BotAPI, logger *slog.Logger) *Notifier {
	return &Notifier{bot: bot, logger: logger}
}

func (n *Notifier) Notify(userID int64, text string, links ...domain.LinkButton) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if len(links) > 0 {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(links))
		for _, l := range links {
			row = append(row, tgbotapi.NewInlineKeyboardButtonURL(l.Label, l.URL))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(row)
	}

	if _, err := n.bot.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", userID, err)
	}
	return nil
}
