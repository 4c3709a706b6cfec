package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarterminal/polar-bot/internal/domain"
)

func arbMarket(id string, yes, no float64) domain.Market {
	return domain.Market{
		ID:       id,
		Question: "Arb market " + id,
		Slug:     "arb-" + id,
		OutcomePrices: []decimal.Decimal{
			decimal.NewFromFloat(yes),
			decimal.NewFromFloat(no),
		},
	}
}

func newArbFixture(window time.Duration) (*ArbScanner, *fakeSource, *fakeUsers, *fakeNotifier) {
	source := newFakeSource()
	users := &fakeUsers{arbSubs: []int64{10, 20}}
	notifier := newFakeNotifier()
	scanner := NewArbScanner(source, users, notifier, window, testLogger())
	return scanner, source, users, notifier
}

func TestArbScanner_FindOpportunitiesSorted(t *testing.T) {
	scanner, source, _, _ := newArbFixture(5 * time.Minute)
	source.candidates = []domain.Market{
		arbMarket("small", 0.49, 0.49), // 2%
		arbMarket("big", 0.45, 0.45),   // 10%
		arbMarket("fair", 0.60, 0.40),  // не возможность
	}

	opps, err := scanner.FindOpportunities(context.Background())
	require.NoError(t, err)
	require.Len(t, opps, 2)
	assert.Equal(t, "big", opps[0].MarketID, "sorted by profit desc")
	assert.Equal(t, "small", opps[1].MarketID)
}

func TestArbScanner_BroadcastThreshold(t *testing.T) {
	scanner, source, _, notifier := newArbFixture(5 * time.Minute)
	source.candidates = []domain.Market{
		arbMarket("thin", 0.495, 0.495), // 1% - ниже порога рассылки
		arbMarket("fat", 0.48, 0.49),    // 3%
	}

	require.NoError(t, scanner.Scan(context.Background()))

	// Оба подписчика получили только fat
	require.Len(t, notifier.sent, 2)
	for _, msg := range notifier.sent {
		assert.Contains(t, msg.Text, "Arb market fat")
	}
}

func TestArbScanner_DedupWithinWindow(t *testing.T) {
	scanner, source, _, notifier := newArbFixture(5 * time.Minute)
	source.candidates = []domain.Market{arbMarket("m1", 0.48, 0.48)}

	require.NoError(t, scanner.Scan(context.Background()))
	require.NoError(t, scanner.Scan(context.Background()))

	assert.Len(t, notifier.sent, 2, "two subscribers, one send each, no repeat within window")
}

func TestArbScanner_CacheResetsAfterWindow(t *testing.T) {
	scanner, source, _, notifier := newArbFixture(5 * time.Minute)
	source.candidates = []domain.Market{arbMarket("m1", 0.48, 0.48)}

	now := time.Now()
	scanner.sent.now = func() time.Time { return now }
	scanner.sent.lastReset = now

	require.NoError(t, scanner.Scan(context.Background()))
	assert.Len(t, notifier.sent, 2)

	// Прошло окно целиком - кэш сбрасывается, рассылка повторяется
	now = now.Add(5*time.Minute + time.Second)
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Len(t, notifier.sent, 4)
}

func TestArbScanner_RecipientFailureIsolated(t *testing.T) {
	scanner, source, _, notifier := newArbFixture(5 * time.Minute)
	source.candidates = []domain.Market{arbMarket("m1", 0.48, 0.48)}
	notifier.failFor[10] = true

	require.NoError(t, scanner.Scan(context.Background()))
	require.Len(t, notifier.sentTo(20), 1, "second recipient still served")

	// Рынок помечен отправленным несмотря на частичный сбой
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Len(t, notifier.sentTo(20), 1)
}

func TestArbScanner_NoSubscribersNoSends(t *testing.T) {
	scanner, source, users, notifier := newArbFixture(5 * time.Minute)
	source.candidates = []domain.Market{arbMarket("m1", 0.48, 0.48)}
	users.arbSubs = nil

	require.NoError(t, scanner.Scan(context.Background()))
	assert.Empty(t, notifier.sent)
}
