package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// Общие фейки для тестов планировщиков. Ошибки включаются точечно
// через поля *Err.

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --- MarketDataSource ---

type fakeSource struct {
	markets      map[string]*domain.Market
	marketErr    error
	latestTrades map[string]*domain.Trade
	tradeErr     error

	recentMarkets []domain.Market
	recentEvents  []domain.Event
	recentErr     error

	candidates    []domain.Market
	candidatesErr error
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		markets:      make(map[string]*domain.Market),
		latestTrades: make(map[string]*domain.Trade),
	}
}

func (f *fakeSource) GetMarket(ctx context.Context, marketID string) (*domain.Market, error) {
	if f.marketErr != nil {
		return nil, f.marketErr
	}
	return f.markets[marketID], nil
}

func (f *fakeSource) GetMarketsBySlug(ctx context.Context, slugOrURL string) ([]domain.Market, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeSource) GetRecentMarkets(ctx context.Context) ([]domain.Market, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recentMarkets, nil
}

func (f *fakeSource) GetRecentEvents(ctx context.Context) ([]domain.Event, error) {
	if f.recentErr != nil {
		return nil, f.recentErr
	}
	return f.recentEvents, nil
}

func (f *fakeSource) GetLatestTrade(ctx context.Context, address string) (*domain.Trade, error) {
	if f.tradeErr != nil {
		return nil, f.tradeErr
	}
	return f.latestTrades[address], nil
}

func (f *fakeSource) GetWalletPositions(ctx context.Context, address string) ([]domain.Position, error) {
	return nil, nil
}

func (f *fakeSource) GetArbitrageCandidates(ctx context.Context) ([]domain.Market, error) {
	if f.candidatesErr != nil {
		return nil, f.candidatesErr
	}
	return f.candidates, nil
}

// --- AlertRepository ---

type fakeAlerts struct {
	alerts    map[int64]domain.PriceAlert
	nextID    int64
	listErr   error
	deleteErr error
}

func newFakeAlerts() *fakeAlerts {
	return &fakeAlerts{alerts: make(map[int64]domain.PriceAlert), nextID: 1}
}

func (f *fakeAlerts) add(a domain.PriceAlert) domain.PriceAlert {
	a.ID = f.nextID
	f.nextID++
	f.alerts[a.ID] = a
	return a
}

func (f *fakeAlerts) GetAll(ctx context.Context) ([]domain.PriceAlert, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.PriceAlert, 0, len(f.alerts))
	for id := int64(1); id < f.nextID; id++ {
		if a, ok := f.alerts[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) GetByUserID(ctx context.Context, userID int64) ([]domain.PriceAlert, error) {
	var out []domain.PriceAlert
	for _, a := range f.alerts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAlerts) GetByID(ctx context.Context, id int64) (*domain.PriceAlert, error) {
	if a, ok := f.alerts[id]; ok {
		return &a, nil
	}
	return nil, nil
}

func (f *fakeAlerts) Create(ctx context.Context, alert *domain.PriceAlert) error {
	*alert = f.add(*alert)
	return nil
}

func (f *fakeAlerts) Update(ctx context.Context, id int64, target decimal.Decimal, cond domain.Condition, outcome domain.Outcome) error {
	a, ok := f.alerts[id]
	if !ok {
		return errors.New("no such alert")
	}
	a.TargetPrice, a.Condition, a.Outcome = target, cond, outcome
	f.alerts[id] = a
	return nil
}

func (f *fakeAlerts) Delete(ctx context.Context, id int64) (bool, error) {
	if f.deleteErr != nil {
		return false, f.deleteErr
	}
	if _, ok := f.alerts[id]; !ok {
		return false, nil
	}
	delete(f.alerts, id)
	return true, nil
}

// --- WalletRepository ---

type fakeWallets struct {
	wallets map[int64]*domain.TrackedWallet
	nextID  int64

	cursorUpdates int
	seenUpdates   int
}

func newFakeWallets() *fakeWallets {
	return &fakeWallets{wallets: make(map[int64]*domain.TrackedWallet), nextID: 1}
}

func (f *fakeWallets) add(w domain.TrackedWallet) *domain.TrackedWallet {
	w.ID = f.nextID
	f.nextID++
	if w.SeenMarkets == nil {
		w.SeenMarkets = domain.NewStringSet()
	}
	f.wallets[w.ID] = &w
	return &w
}

func (f *fakeWallets) GetAll(ctx context.Context) ([]domain.TrackedWallet, error) {
	out := make([]domain.TrackedWallet, 0, len(f.wallets))
	for id := int64(1); id < f.nextID; id++ {
		if w, ok := f.wallets[id]; ok {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWallets) GetByUserID(ctx context.Context, userID int64) ([]domain.TrackedWallet, error) {
	var out []domain.TrackedWallet
	for _, w := range f.wallets {
		if w.UserID == userID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (f *fakeWallets) GetByID(ctx context.Context, id int64) (*domain.TrackedWallet, error) {
	if w, ok := f.wallets[id]; ok {
		cp := *w
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeWallets) Create(ctx context.Context, w *domain.TrackedWallet) error {
	*w = *f.add(*w)
	return nil
}

func (f *fakeWallets) UpdateCursor(ctx context.Context, id int64, tradeID string) error {
	w, ok := f.wallets[id]
	if !ok {
		return errors.New("no such wallet")
	}
	w.LastTradeID = tradeID
	f.cursorUpdates++
	return nil
}

func (f *fakeWallets) UpdateSeenMarkets(ctx context.Context, id int64, seen domain.StringSet) error {
	w, ok := f.wallets[id]
	if !ok {
		return errors.New("no such wallet")
	}
	w.SeenMarkets = domain.NewStringSet(seen.Values()...)
	f.seenUpdates++
	return nil
}

func (f *fakeWallets) UpdateSettings(ctx context.Context, id int64, minVol, priceTarget decimal.Decimal, cond domain.Condition, onlyNew bool) error {
	w, ok := f.wallets[id]
	if !ok {
		return errors.New("no such wallet")
	}
	w.MinVolumeUSD, w.PriceTarget, w.PriceCondition, w.OnlyNewMarkets = minVol, priceTarget, cond, onlyNew
	return nil
}

func (f *fakeWallets) Delete(ctx context.Context, id, userID int64) (bool, error) {
	w, ok := f.wallets[id]
	if !ok || w.UserID != userID {
		return false, nil
	}
	delete(f.wallets, id)
	return true, nil
}

// --- UserRepository ---

type fakeUsers struct {
	arbSubs    []int64
	marketSubs []int64
	eventSubs  []int64
	subsErr    error
}

func (f *fakeUsers) Upsert(ctx context.Context, user *domain.User) error { return nil }

func (f *fakeUsers) Get(ctx context.Context, id int64) (*domain.User, error) { return nil, nil }

func (f *fakeUsers) ToggleArbAlerts(ctx context.Context, id int64) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakeUsers) ToggleMarketAlerts(ctx context.Context, id int64) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakeUsers) ToggleEventAlerts(ctx context.Context, id int64) (bool, error) {
	return false, errors.New("not implemented")
}

func (f *fakeUsers) ArbSubscribers(ctx context.Context) ([]int64, error) {
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	return f.arbSubs, nil
}

func (f *fakeUsers) MarketSubscribers(ctx context.Context) ([]int64, error) {
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	return f.marketSubs, nil
}

func (f *fakeUsers) EventSubscribers(ctx context.Context) ([]int64, error) {
	if f.subsErr != nil {
		return nil, f.subsErr
	}
	return f.eventSubs, nil
}

// --- SnapshotRepository ---

type fakeSnapshots struct {
	saved   []domain.ListingSnapshot
	saveErr error
}

func (f *fakeSnapshots) SaveListingSnapshot(ctx context.Context, snap *domain.ListingSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, *snap)
	return nil
}

// --- Notifier ---

type sentMessage struct {
	UserID int64
	Text   string
	Links  []domain.LinkButton
}

type fakeNotifier struct {
	sent    []sentMessage
	failFor map[int64]bool // получатели, для которых отправка падает
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[int64]bool)}
}

func (f *fakeNotifier) Notify(userID int64, text string, links ...domain.LinkButton) error {
	if f.failFor[userID] {
		return fmt.Errorf("send to %d: blocked by user", userID)
	}
	f.sent = append(f.sent, sentMessage{UserID: userID, Text: text, Links: links})
	return nil
}

func (f *fakeNotifier) sentTo(userID int64) []sentMessage {
	var out []sentMessage
	for _, m := range f.sent {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}
