package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
	"github.com/polarterminal/polar-bot/internal/usecase"
	"github.com/polarterminal/polar-bot/internal/worker"
)

const maxListRows = 10

type Handler struct {
	bot      *tgbotapi.BotAPI
	users    domain.UserRepository
	alerts   domain.AlertRepository
	wallets  domain.WalletRepository
	source   domain.MarketDataSource
	arb      *usecase.ArbScanner
	manager  *worker.Manager

	logger *slog.Logger
	states map[int64]*UserState
	mu     sync.RWMutex
}

// UserState - шаг диалога и накопленный ввод. Живет в памяти до завершения
// или сброса диалога.
type UserState struct {
	Step string // awaiting_event_url, awaiting_target_price, ...

	// Создание/правка алерта
	TempMarketID string
	TempSlug     string
	TempQuestion string
	TempOutcome  domain.Outcome
	TempPrice    decimal.Decimal
	TempAlertID  int64

	// Добавление/настройка кошелька
	TempAddress   string
	TempWalletID  int64
	TempCondition domain.Condition
}

func NewHandler(
	bot *tgbotapi.BotAPI,
	users domain.UserRepository,
	alerts domain.AlertRepository,
	wallets domain.WalletRepository,
	source domain.MarketDataSource,
	arb *usecase.ArbScanner,
	manager *worker.Manager,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		bot:     bot,
		users:   users,
		alerts:  alerts,
		wallets: wallets,
		source:  source,
		arb:     arb,
		manager: manager,
		logger:  logger,
		states:  make(map[int64]*UserState),
	}
}

func (h *Handler) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := h.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			h.bot.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message != nil {
				go h.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				go h.handleCallback(ctx, update.CallbackQuery)
			}
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil {
		return
	}
	userID := msg.From.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start":
			h.cmdStart(ctx, msg)
		case "guide":
			h.cmdGuide(msg.Chat.ID)
		case "menu":
			h.showMainMenu(msg.Chat.ID)
		}
		return
	}

	h.mu.RLock()
	state := h.states[userID]
	h.mu.RUnlock()

	if state == nil {
		h.send(msg.Chat.ID, "Use /menu to navigate.")
		return
	}

	switch state.Step {
	case "awaiting_event_url":
		h.processEventURL(ctx, msg)
	case "awaiting_target_price":
		h.processTargetPrice(ctx, msg, state)
	case "awaiting_edit_price":
		h.processEditPrice(ctx, msg, state)
	case "awaiting_wallet_address":
		h.processWalletAddress(msg, state)
	case "awaiting_wallet_alias":
		h.processWalletAlias(ctx, msg, state)
	case "awaiting_min_volume":
		h.processMinVolume(ctx, msg, state)
	case "awaiting_price_filter":
		h.processPriceFilterValue(ctx, msg, state)
	}
}

func (h *Handler) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	h.bot.Request(tgbotapi.NewCallback(cb.ID, ""))
	if cb.Message == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	data := cb.Data

	action, arg := data, ""
	if i := strings.IndexByte(data, ':'); i > 0 {
		action, arg = data[:i], data[i+1:]
	}

	switch action {
	case "menu_main":
		h.showMainMenu(chatID)

	// --- Price Alerts ---
	case "menu_markets":
		h.showMarketsMenu(ctx, chatID, userID)
	case "add_link":
		h.setState(userID, &UserState{Step: "awaiting_event_url"})
		h.send(chatID, "🔗 Paste a Polymarket event link (or slug):")
	case "sel_mkt":
		h.selectMarket(ctx, chatID, userID, arg)
	case "side":
		h.selectSide(chatID, userID, domain.Outcome(arg))
	case "cond":
		h.createAlert(ctx, chatID, userID, domain.Condition(arg))
	case "list_alerts":
		h.listAlerts(ctx, chatID, userID)
	case "view_a":
		h.viewAlert(ctx, chatID, arg)
	case "flip_side_a":
		h.flipAlertSide(ctx, chatID, arg)
	case "flip_cond_a":
		h.flipAlertCondition(ctx, chatID, arg)
	case "edit_a":
		h.askEditPrice(chatID, userID, arg)
	case "del_a":
		h.deleteAlert(ctx, chatID, arg)

	// --- Wallets ---
	case "menu_wallets":
		h.showWalletsMenu(ctx, chatID, userID)
	case "add_wallet":
		h.setState(userID, &UserState{Step: "awaiting_wallet_address"})
		h.send(chatID, "✍️ Send the wallet address (0x...):")
	case "view_w":
		h.viewWallet(ctx, chatID, arg)
	case "set_w":
		h.showWalletSettings(ctx, chatID, arg)
	case "tognew_w":
		h.toggleOnlyNewMarkets(ctx, chatID, arg)
	case "vol_w":
		h.askMinVolume(chatID, userID, arg)
	case "pf_w":
		h.showPriceFilterMenu(chatID, arg)
	case "pfc_w":
		h.setPriceFilterCondition(ctx, chatID, userID, arg)
	case "del_w":
		h.deleteWallet(ctx, chatID, userID, arg)

	// --- Arbitrage & Settings ---
	case "menu_arb":
		h.showArbMenu(ctx, chatID, userID)
	case "tog_arb":
		h.toggleArb(ctx, chatID, userID)
	case "scan_arb":
		h.scanArbNow(ctx, chatID)
	case "menu_settings":
		h.showSettingsMenu(ctx, chatID, userID)
	case "tog_mkt":
		h.toggleMarketAlerts(ctx, chatID, userID)
	case "tog_evt":
		h.toggleEventAlerts(ctx, chatID, userID)
	}
}

// --- Commands ---

func (h *Handler) cmdStart(ctx context.Context, msg *tgbotapi.Message) {
	user := &domain.User{
		ID:       msg.From.ID,
		Username: msg.From.UserName,
	}
	if err := h.users.Upsert(ctx, user); err != nil {
		h.logger.Error("Failed to register user",
			slog.Int64("user_id", msg.From.ID),
			slog.String("err", err.Error()))
		h.send(msg.Chat.ID, "⚠️ Registration failed, try again later.")
		return
	}

	h.send(msg.Chat.ID, fmt.Sprintf(
		"👋 Welcome, %s!\n\nI watch Polymarket for you: price alerts, wallet activity, arbitrage and fresh listings.\n\nUse /guide for a quick tour.",
		msg.From.FirstName))
	h.showMainMenu(msg.Chat.ID)
}

func (h *Handler) cmdGuide(chatID int64) {
	h.sendHTML(chatID,
		"📖 <b>Quick Guide</b>\n\n"+
			"📊 <b>Price Alerts</b> - paste an event link, pick a market and a side, set a target price in cents. I ping you once when it crosses.\n\n"+
			"🔭 <b>Wallet Tracker</b> - add a Polygon address and I report its trades. Filter by volume, price or new-market entries only.\n\n"+
			"💎 <b>Arbitrage</b> - subscribe and I scan high-volume markets where YES+NO trade below $1.\n\n"+
			"🆕 <b>Listings</b> - turn on alerts for newly listed markets and events in Settings.")
}

// --- Main Menu ---

func (h *Handler) showMainMenu(chatID int64) {
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Price Alerts", "menu_markets"),
			tgbotapi.NewInlineKeyboardButtonData("🔭 Wallets", "menu_wallets"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("💎 Arbitrage", "menu_arb"),
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Settings", "menu_settings"),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "🏠 Main menu:")
	msg.ReplyMarkup = kb
	h.bot.Send(msg)
}

// --- Price Alert Flow ---

func (h *Handler) showMarketsMenu(ctx context.Context, chatID, userID int64) {
	alerts, err := h.alerts.GetByUserID(ctx, userID)
	if err != nil {
		h.logger.Error("Failed to list alerts", slog.String("err", err.Error()))
		h.send(chatID, "⚠️ Could not load your alerts.")
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add Alert", "add_link"),
			tgbotapi.NewInlineKeyboardButtonData("📋 My Alerts", "list_alerts"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu_main"),
		),
	)
	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("📊 Price Alerts\n\nActive alerts: %d", len(alerts)))
	msg.ReplyMarkup = kb
	h.bot.Send(msg)
}

func (h *Handler) processEventURL(ctx context.Context, msg *tgbotapi.Message) {
	markets, err := h.source.GetMarketsBySlug(ctx, strings.TrimSpace(msg.Text))
	if err != nil || len(markets) == 0 {
		h.send(msg.Chat.ID, "❌ Couldn't find markets for that link. Check it and try again.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, m := range markets {
		if i == maxListRows {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(clip(m.Question, 50), "sel_mkt:"+m.ID)))
	}

	h.clearState(msg.From.ID)
	reply := tgbotapi.NewMessage(msg.Chat.ID, "📜 Pick a market:")
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.bot.Send(reply)
}

func (h *Handler) selectMarket(ctx context.Context, chatID, userID int64, marketID string) {
	market, err := h.source.GetMarket(ctx, marketID)
	if err != nil || market == nil {
		h.send(chatID, "❌ Market is unavailable, try again.")
		return
	}

	h.setState(userID, &UserState{
		TempMarketID: market.ID,
		TempSlug:     market.Slug,
		TempQuestion: market.Question,
	})

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("🟩 YES", "side:YES"),
		tgbotapi.NewInlineKeyboardButtonData("🟥 NO", "side:NO"),
	))
	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("📜 %s\n\nWhich side do you want to watch?", market.Question))
	reply.ReplyMarkup = kb
	h.bot.Send(reply)
}

func (h *Handler) selectSide(chatID, userID int64, outcome domain.Outcome) {
	h.mu.Lock()
	state := h.states[userID]
	if state == nil {
		h.mu.Unlock()
		return
	}
	state.TempOutcome = outcome
	state.Step = "awaiting_target_price"
	h.mu.Unlock()

	h.send(chatID, "🎯 Enter the target price in cents (e.g. 60 for 60¢):")
}

func (h *Handler) processTargetPrice(ctx context.Context, msg *tgbotapi.Message, state *UserState) {
	price, err := parsePriceInput(msg.Text)
	if err != nil {
		h.send(msg.Chat.ID, "❌ "+err.Error())
		return
	}

	h.mu.Lock()
	state.Step = "awaiting_condition"
	state.TempPrice = price
	h.states[msg.From.ID] = state
	h.mu.Unlock()

	kb := tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("📈 Above", "cond:ABOVE"),
		tgbotapi.NewInlineKeyboardButtonData("📉 Below", "cond:BELOW"),
	))
	reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("🎯 Target: %s¢\n\nNotify when the price goes:", price.Mul(decimal.NewFromInt(100)).StringFixed(1)))
	reply.ReplyMarkup = kb
	h.bot.Send(reply)
}

func (h *Handler) createAlert(ctx context.Context, chatID, userID int64, cond domain.Condition) {
	h.mu.Lock()
	state := h.states[userID]
	delete(h.states, userID)
	h.mu.Unlock()

	if state == nil || state.TempMarketID == "" || state.TempPrice.IsZero() {
		h.send(chatID, "⚠️ Alert setup expired, start over from the menu.")
		return
	}
	price := state.TempPrice

	alert := &domain.PriceAlert{
		UserID:      userID,
		MarketID:    state.TempMarketID,
		MarketSlug:  state.TempSlug,
		MarketLabel: state.TempQuestion,
		Outcome:     state.TempOutcome,
		TargetPrice: price,
		Condition:   cond,
	}
	if err := h.alerts.Create(ctx, alert); err != nil {
		h.logger.Error("Failed to create alert", slog.String("err", err.Error()))
		h.send(chatID, "⚠️ Could not save the alert.")
		return
	}

	// Подхватываем новый алерт в realtime-поток без рестарта
	go func() {
		if err := h.manager.ReloadAlerts(context.Background()); err != nil {
			h.logger.Error("Failed to reload alert subscriptions", slog.String("err", err.Error()))
		}
	}()

	h.sendHTML(chatID, fmt.Sprintf(
		"✅ <b>Alert created!</b>\n\n📜 %s\n%s <b>%s</b> %s <b>%s¢</b>",
		state.TempQuestion, sideEmoji(state.TempOutcome), state.TempOutcome,
		condWord(cond), price.Mul(decimal.NewFromInt(100)).StringFixed(1)))
}

func (h *Handler) listAlerts(ctx context.Context, chatID, userID int64) {
	alerts, err := h.alerts.GetByUserID(ctx, userID)
	if err != nil {
		h.send(chatID, "⚠️ Could not load your alerts.")
		return
	}
	if len(alerts) == 0 {
		h.send(chatID, "📭 You have no active alerts.")
		return
	}

	var rows [][]tgbotapi.InlineKeyboardButton
	for i, a := range alerts {
		if i == maxListRows {
			break
		}
		label := fmt.Sprintf("%s %s %s %s¢",
			clip(a.MarketLabel, 30), a.Outcome, condWord(a.Condition),
			a.TargetPrice.Mul(decimal.NewFromInt(100)).StringFixed(0))
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(label, "view_a:"+strconv.FormatInt(a.ID, 10))))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu_markets")))

	reply := tgbotapi.NewMessage(chatID, fmt.Sprintf("📋 Your alerts (%d):", len(alerts)))
	reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	h.bot.Send(reply)
}

func (h *Handler) viewAlert(ctx context.Context, chatID int64, arg string) {
	alert := h.alertByArg(ctx, chatID, arg)
	if alert == nil {
		return
	}
	id := strconv.FormatInt(alert.ID, 10)

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔁 Side", "flip_side_a:"+id),
			tgbotapi.NewInlineKeyboardButtonData("🔁 Condition", "flip_cond_a:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✏️ Price", "edit_a:"+id),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "del_a:"+id),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "list_alerts"),
		),
	)
	text := fmt.Sprintf(
		"📜 %s\n%s <b>%s</b> %s <b>%s¢</b>",
		alert.MarketLabel, sideEmoji(alert.Outcome), alert.Outcome,
		condWord(alert.Condition), alert.TargetPrice.Mul(decimal.NewFromInt(100)).StringFixed(1))

	reply := tgbotapi.NewMessage(chatID, text)
	reply.ParseMode = tgbotapi.ModeHTML
	reply.ReplyMarkup = kb
	h.bot.Send(reply)
}

func (h *Handler) flipAlertSide(ctx context.Context, chatID int64, arg string) {
	alert := h.alertByArg(ctx, chatID, arg)
	if alert == nil {
		return
	}
	outcome := domain.OutcomeYes
	if alert.Outcome == domain.OutcomeYes {
		outcome = domain.OutcomeNo
	}
	if err := h.alerts.Update(ctx, alert.ID, alert.TargetPrice, alert.Condition, outcome); err != nil {
		h.send(chatID, "⚠️ Update failed.")
		return
	}
	h.reloadManager()
	h.viewAlert(ctx, chatID, arg)
}

func (h *Handler) flipAlertCondition(ctx context.Context, chatID int64, arg string) {
	alert := h.alertByArg(ctx, chatID, arg)
	if alert == nil {
		return
	}
	cond := domain.ConditionAbove
	if alert.Condition == domain.ConditionAbove {
		cond = domain.ConditionBelow
	}
	if err := h.alerts.Update(ctx, alert.ID, alert.TargetPrice, cond, alert.Outcome); err != nil {
		h.send(chatID, "⚠️ Update failed.")
		return
	}
	h.reloadManager()
	h.viewAlert(ctx, chatID, arg)
}

func (h *Handler) askEditPrice(chatID, userID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	h.setState(userID, &UserState{Step: "awaiting_edit_price", TempAlertID: id})
	h.send(chatID, "✏️ Enter the new target price in cents:")
}

func (h *Handler) processEditPrice(ctx context.Context, msg *tgbotapi.Message, state *UserState) {
	price, err := parsePriceInput(msg.Text)
	if err != nil {
		h.send(msg.Chat.ID, "❌ "+err.Error())
		return
	}
	alert, err := h.alerts.GetByID(ctx, state.TempAlertID)
	if err != nil || alert == nil {
		h.send(msg.Chat.ID, "⚠️ Alert no longer exists.")
		h.clearState(msg.From.ID)
		return
	}
	if err := h.alerts.Update(ctx, alert.ID, price, alert.Condition, alert.Outcome); err != nil {
		h.send(msg.Chat.ID, "⚠️ Update failed.")
		return
	}
	h.reloadManager()
	h.clearState(msg.From.ID)
	h.send(msg.Chat.ID, "✅ Target price updated.")
}

func (h *Handler) deleteAlert(ctx context.Context, chatID int64, arg string) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return
	}
	if _, err := h.alerts.Delete(ctx, id); err != nil {
		h.send(chatID, "⚠️ Delete failed.")
		return
	}
	h.reloadManager()
	h.send(chatID, "🗑 Alert deleted.")
}

func (h *Handler) alertByArg(ctx context.Context, chatID int64, arg string) *domain.PriceAlert {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil
	}
	alert, err := h.alerts.GetByID(ctx, id)
	if err != nil || alert == nil {
		h.send(chatID, "⚠️ Alert no longer exists.")
		return nil
	}
	return alert
}

// --- Arbitrage ---

func (h *Handler) showArbMenu(ctx context.Context, chatID, userID int64) {
	user, err := h.users.Get(ctx, userID)
	if err != nil || user == nil {
		h.send(chatID, "⚠️ Use /start first.")
		return
	}

	status := "🔕 OFF"
	if user.ArbAlerts {
		status = "🔔 ON"
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Toggle alerts: "+status, "tog_arb"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔍 Scan now", "scan_arb"),
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu_main"),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "💎 Arbitrage Scanner\n\nI watch high-volume markets where YES+NO cost less than $1.")
	msg.ReplyMarkup = kb
	h.bot.Send(msg)
}

func (h *Handler) toggleArb(ctx context.Context, chatID, userID int64) {
	enabled, err := h.users.ToggleArbAlerts(ctx, userID)
	if err != nil {
		h.send(chatID, "⚠️ Toggle failed.")
		return
	}
	if enabled {
		h.send(chatID, "🔔 Arbitrage alerts enabled.")
	} else {
		h.send(chatID, "🔕 Arbitrage alerts disabled.")
	}
}

func (h *Handler) scanArbNow(ctx context.Context, chatID int64) {
	h.send(chatID, "🔍 Scanning...")
	opps, err := h.arb.FindOpportunities(ctx)
	if err != nil {
		h.send(chatID, "⚠️ Scan failed, try again later.")
		return
	}
	if len(opps) == 0 {
		h.send(chatID, "😕 No opportunities right now.")
		return
	}

	best := opps[0]
	total := best.YesPrice.Add(best.NoPrice)
	h.sendHTML(chatID, fmt.Sprintf(
		"💎 <b>Best opportunity:</b>\n\n📜 %s\n🟩 YES %s¢ + 🟥 NO %s¢ = %s¢\n💰 Profit: <b>%s%%</b>\n\n%s",
		best.Question,
		total100(best.YesPrice), total100(best.NoPrice), total100(total),
		best.ProfitPct.StringFixed(2),
		best.URL()))
}

// --- Settings (listing subscriptions) ---

func (h *Handler) showSettingsMenu(ctx context.Context, chatID, userID int64) {
	user, err := h.users.Get(ctx, userID)
	if err != nil || user == nil {
		h.send(chatID, "⚠️ Use /start first.")
		return
	}

	kb := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("New markets: "+onOff(user.MarketAlerts), "tog_mkt"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("New events: "+onOff(user.EventAlerts), "tog_evt"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Back", "menu_main"),
		),
	)
	msg := tgbotapi.NewMessage(chatID, "⚙️ Settings\n\nListing alerts:")
	msg.ReplyMarkup = kb
	h.bot.Send(msg)
}

func (h *Handler) toggleMarketAlerts(ctx context.Context, chatID, userID int64) {
	if _, err := h.users.ToggleMarketAlerts(ctx, userID); err != nil {
		h.send(chatID, "⚠️ Toggle failed.")
		return
	}
	h.showSettingsMenu(ctx, chatID, userID)
}

func (h *Handler) toggleEventAlerts(ctx context.Context, chatID, userID int64) {
	if _, err := h.users.ToggleEventAlerts(ctx, userID); err != nil {
		h.send(chatID, "⚠️ Toggle failed.")
		return
	}
	h.showSettingsMenu(ctx, chatID, userID)
}

// --- State & UI Helpers ---

func (h *Handler) setState(userID int64, s *UserState) {
	h.mu.Lock()
	h.states[userID] = s
	h.mu.Unlock()
}

func (h *Handler) clearState(userID int64) {
	h.mu.Lock()
	delete(h.states, userID)
	h.mu.Unlock()
}

func (h *Handler) reloadManager() {
	go func() {
		if err := h.manager.ReloadAlerts(context.Background()); err != nil {
			h.logger.Error("Failed to reload alert subscriptions", slog.String("err", err.Error()))
		}
	}()
}

func (h *Handler) send(chatID int64, text string) {
	h.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (h *Handler) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	h.bot.Send(msg)
}

// parsePriceInput принимает цену в центах (60) или долях (0.6)
func parsePriceInput(text string) (decimal.Decimal, error) {
	v, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return decimal.Zero, fmt.Errorf("that's not a number, try again")
	}
	if v.GreaterThan(decimal.NewFromInt(1)) {
		v = v.Div(decimal.NewFromInt(100))
	}
	if v.LessThanOrEqual(decimal.Zero) || v.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.Zero, fmt.Errorf("price must be between 0 and 100 cents")
	}
	return v, nil
}

func total100(v decimal.Decimal) string {
	return v.Mul(decimal.NewFromInt(100)).StringFixed(1)
}

func sideEmoji(o domain.Outcome) string {
	if o == domain.OutcomeNo {
		return "🟥"
	}
	return "🟩"
}

func condWord(c domain.Condition) string {
	if c == domain.ConditionBelow {
		return "below"
	}
	return "above"
}

func onOff(v bool) string {
	if v {
		return "🔔 ON"
	}
	return "🔕 OFF"
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
