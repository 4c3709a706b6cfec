package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// --- Wallet Tracker Flow ---

func (h *Handler) showWalletsMenu(ctx context.Context, chatID, userID int64) {
	wallets, err := h.wallets.GetByUserID(ctx, userID)
	if err != nil {
		h.send(chatID, "⚠️ Could not load your wallets.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, w := range wallets {
		if i == maxListRows {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("🔭 %s (%s)", w.Alias, shortAddress(w.Address)),
				"view_w:"+strconv.FormatInt(w.ID, 10))))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Track Wallet", "add_wallet")),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu_main")))

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("🔭 Wallet Tracker\n\nTracked wallets: %d", len(wallets)))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.bot.Send(msg)
}

func (h *Handler) processWalletAddress(msg *tgbotapi.Message, state *UserState) {
	address := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(address, "0x") || len(address) != 42 {
		h.send(msg.Chat.ID, "❌ That doesn't look like a Polygon address (0x + 40 hex chars). Try again:")
		return
	}

	h.mu.Lock()
	state.TempAddress = strings.ToLower(address)
	state.Step = "awaiting_wallet_alias"
	h.mu.Unlock()

	h.send(msg.Chat.ID, "🏷 Give this wallet a name (e.g. \"Whale #1\"):")
}

func (h *Handler) processWalletAlias(ctx context.Context, msg *tgbotapi.Message, state *UserState) {
	alias := strings.TrimSpace(msg.Text)
	if alias == "" {
		h.send(msg.Chat.ID, "❌ The name can't be empty. Try again:")
		return
	}

	wallet := &domain.TrackedWallet{
		UserID:  msg.From.ID,
		Address: state.TempAddress,
		Alias:   alias,
	}
	if err := h.wallets.Create(ctx, wallet); err != nil {
		h.send(msg.Chat.ID, "⚠️ Could not save the wallet.")
		return
	}
	h.clearState(msg.From.ID)

	h.sendHTML(msg.Chat.ID, fmt.Sprintf(
		"✅ <b>Wallet added!</b>\n\n🏷 %s\n📍 <code>%s</code>\n\nI'll report its trades starting from the next one.",
		alias, wallet.Address))
}

func (h *Handler) viewWallet(ctx context.Context, chatID int64, arg string) {
	wallet := h.walletByArg(ctx, chatID, arg)
	if wallet == nil {
		return
	}
	id := strconv.FormatInt(wallet.ID, 10)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔭 <b>%s</b>\n📍 <code>%s</code>\n", wallet.Alias, wallet.Address))
	sb.WriteString(fmt.Sprintf("👁 Markets seen: %d\n", len(wallet.SeenMarkets)))

	// Открытые позиции показываем best effort: data-api бывает недоступен
	positions, err := h.source.GetWalletPositions(ctx, wallet.Address)
	if err == nil && len(positions) > 0 {
		sb.WriteString("\n📂 <b>Open positions:</b>\n")
		for i, p := range positions {
			if i == 5 {
				sb.WriteString("…\n")
				break
			}
			sb.WriteString(fmt.Sprintf("• %s (%s) - $%s\n", clip(p.Title, 40), p.Outcome, p.CurrentValue.StringFixed(2)))
		}
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Filters", "set_w:"+id),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "del_w:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu_wallets"),
		),
	)
	reply := tgbotapi.NewMessage(chatID, sb.String())
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = kb
	h.bot.Send(reply)
}

func (h *Handler) showWalletSettings(ctx context.Context, chatID int64, arg string) {
	wallet := h.walletByArg(ctx, chatID, arg)
	if wallet == nil {
		return
	}
	id := strconv.FormatInt(wallet.ID, 10)

	priceFilter := "off"
	if wallet.PriceCondition != domain.ConditionNone {
		priceFilter = fmt.Sprintf("%s %s¢", condWord(wallet.PriceCondition), total100(wallet.PriceTarget))
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("💰 Min volume: $%s", wallet.MinVolumeUSD.StringFixed(0)), "vol_w:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💲 Price filter: "+priceFilter, "pf_w:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🆕 New markets only: "+onOff(wallet.OnlyNewMarkets), "tognew_w:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "view_w:"+id),
		),
	)
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("⚙️ Filters for %s:", wallet.Alias))
	msg.ReplyMarkup = kb
	h.bot.Send(msg)
}

func (h *Handler) toggleOnlyNewMarkets(ctx context.Context, chatID int64, arg string) {
	wallet := h.walletByArg(ctx, chatID, arg)
	if wallet == nil {
		return
	}
	err := h.wallets.UpdateSettings(ctx, wallet.ID,
		wallet.MinVolumeUSD, wallet.PriceTarget, wallet.PriceCondition, !wallet.OnlyNewMarkets)
	if err != nil {
		h.send(chatID, "⚠️ Update failed.")
		return
	}
	h.showWalletSettings(ctx, chatID, arg)
}

func (h *Handler) askMinVolume(chatID, userID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	h.setState(userID, &UserState{Step: "awaiting_min_volume", TempWalletID: id})
	h.send(chatID, "💰 Enter the minimum trade volume in USD (0 to disable):")
}

func (h *Handler) processMinVolume(ctx context.Context, msg *tgbotapi.Message, state *UserState) {
	vol, err := decimal.NewFromString(strings.TrimSpace(msg.Text))
	if err != nil || vol.IsNegative() {
		h.send(msg.Chat.ID, "❌ Enter a non-negative number:")
		return
	}
	wallet, err := h.wallets.GetByID(ctx, state.TempWalletID)
	if err != nil || wallet == nil {
		h.send(msg.Chat.ID, "⚠️ Wallet no longer exists.")
		h.clearState(msg.From.ID)
		return
	}
	err = h.wallets.UpdateSettings(ctx, wallet.ID,
		vol, wallet.PriceTarget, wallet.PriceCondition, wallet.OnlyNewMarkets)
	if err != nil {
		h.send(msg.Chat.ID, "⚠️ Update failed.")
		return
	}
	h.clearState(msg.From.ID)
	h.send(msg.Chat.ID, fmt.Sprintf("✅ Minimum volume set to $%s.", vol.StringFixed(0)))
}

func (h *Handler) showPriceFilterMenu(chatID int64, arg string) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📈 Above", "pfc_w:"+arg+":ABOVE"),
			tgbotapi.NewInlineKeyboardButtonData("📉 Below", "pfc_w:"+arg+":BELOW"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🚫 Off", "pfc_w:"+arg+":NONE"),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "💲 Report trades with price per share:")
	msg.ReplyMarkup = kb
	h.bot.Send(msg)
}

// setPriceFilterCondition получает arg вида "<walletID>:<cond>"
func (h *Handler) setPriceFilterCondition(ctx context.Context, chatID, userID int64, arg string) {
	idStr, condStr, found := strings.Cut(arg, ":")
	if !found {
		return
	}
	cond := domain.Condition(condStr)

	if cond == domain.ConditionNone {
		wallet := h.walletByArg(ctx, chatID, idStr)
		if wallet == nil {
			return
		}
		err := h.wallets.UpdateSettings(ctx, wallet.ID,
			wallet.MinVolumeUSD, decimal.Zero, domain.ConditionNone, wallet.OnlyNewMarkets)
		if err != nil {
			h.send(chatID, "⚠️ Update failed.")
			return
		}
		h.send(chatID, "🚫 Price filter disabled.")
		return
	}

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		return
	}
	h.setState(userID, &UserState{
		Step:          "awaiting_price_filter",
		TempWalletID:  id,
		TempCondition: cond,
	})
	h.send(chatID, "🎯 Enter the price threshold in cents:")
}

func (h *Handler) processPriceFilterValue(ctx context.Context, msg *tgbotapi.Message, state *UserState) {
	price, err := parsePriceInput(msg.Text)
	if err != nil {
		h.send(msg.Chat.ID, "❌ "+err.Error())
		return
	}
	wallet, err := h.wallets.GetByID(ctx, state.TempWalletID)
	if err != nil || wallet == nil {
		h.send(msg.Chat.ID, "⚠️ Wallet no longer exists.")
		h.clearState(msg.From.ID)
		return
	}
	err = h.wallets.UpdateSettings(ctx, wallet.ID,
		wallet.MinVolumeUSD, price, state.TempCondition, wallet.OnlyNewMarkets)
	if err != nil {
		h.send(msg.Chat.ID, "⚠️ Update failed.")
		return
	}
	h.clearState(msg.From.ID)
	h.send(msg.Chat.ID, fmt.Sprintf("✅ Price filter set: %s %s¢.", condWord(state.TempCondition), total100(price)))
}

func (h *Handler) deleteWallet(ctx context.Context, chatID, userID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	deleted, err := h.wallets.Delete(ctx, id, userID)
	if err != nil {
		h.send(chatID, "⚠️ Delete failed.")
		return
	}
	if !deleted {
		h.send(chatID, "⚠️ Wallet not found.")
		return
	}
	h.send(chatID, "🗑 Wallet removed from tracking.")
}

func (h *Handler) walletByArg(ctx context.Context, chatID int64, arg string) *domain.TrackedWallet {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil
	}
	wallet, err := h.wallets.GetByID(ctx, id)
	if err != nil || wallet == nil {
		h.send(chatID, "⚠️ Wallet no longer exists.")
		return nil
	}
	return wallet
}

func shortAddress(addr string) string {
	if len(addr) < 10 {
		return addr
	}
	return addr[:6] + "…" + addr[len(addr)-4:]
}
