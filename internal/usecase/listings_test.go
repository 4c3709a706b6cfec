package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarterminal/polar-bot/internal/domain"
)

func newListingFixture() (*ListingScanner, *fakeSource, *fakeUsers, *fakeSnapshots, *fakeNotifier) {
	source := newFakeSource()
	users := &fakeUsers{marketSubs: []int64{10}, eventSubs: []int64{20}}
	snapshots := &fakeSnapshots{}
	notifier := newFakeNotifier()
	scanner := NewListingScanner(source, users, snapshots, notifier, testLogger())
	return scanner, source, users, snapshots, notifier
}

func TestListingScanner_ColdStartThenDelta(t *testing.T) {
	scanner, source, _, snapshots, notifier := newListingFixture()

	source.recentMarkets = []domain.Market{
		{ID: "m1", Question: "Market one", Slug: "market-one"},
		{ID: "m2", Question: "Market two", Slug: "market-two"},
	}
	source.recentEvents = []domain.Event{
		{ID: "e1", Title: "Event one", Slug: "event-one"},
	}

	// Первый цикл: только база, ни одного уведомления
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Empty(t, notifier.sent)
	assert.Len(t, snapshots.saved, 1, "snapshot archived even on cold start")

	// Второй цикл без изменений - тишина
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Empty(t, notifier.sent)

	// Третий цикл: новый рынок и новое событие
	source.recentMarkets = append(source.recentMarkets,
		domain.Market{ID: "m3", Question: "Market three", Slug: "market-three",
			StartDate: "2026-09-01T00:00:00Z", EndDate: "2026-12-31T00:00:00Z"})
	source.recentEvents = append(source.recentEvents,
		domain.Event{ID: "e2", Title: "Event two", Slug: "event-two"})

	require.NoError(t, scanner.Scan(context.Background()))
	require.Len(t, notifier.sent, 2)

	marketMsgs := notifier.sentTo(10)
	require.Len(t, marketMsgs, 1)
	assert.Contains(t, marketMsgs[0].Text, "Market three")
	assert.Contains(t, marketMsgs[0].Text, "Starts: 2026-09-01")
	assert.Contains(t, marketMsgs[0].Text, "Ends: 2026-12-31")

	eventMsgs := notifier.sentTo(20)
	require.Len(t, eventMsgs, 1)
	assert.Contains(t, eventMsgs[0].Text, "Event two")
	assert.Contains(t, eventMsgs[0].Text, "Starts: TBA", "no dates means TBA")
	assert.Contains(t, eventMsgs[0].Text, "Ends: TBA")

	// Четвертый цикл: та же выдача, повторов нет
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Len(t, notifier.sent, 2)
}

func TestListingScanner_FetchErrorKeepsColdStart(t *testing.T) {
	scanner, source, _, _, notifier := newListingFixture()

	source.recentErr = errors.New("gamma down")
	assert.Error(t, scanner.Scan(context.Background()))

	// API ожил: это все еще первый успешный цикл, база снимается молча
	source.recentErr = nil
	source.recentMarkets = []domain.Market{{ID: "m1", Question: "Market one"}}
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Empty(t, notifier.sent)
}

func TestListingScanner_SnapshotFailureDoesNotBlock(t *testing.T) {
	scanner, source, _, snapshots, notifier := newListingFixture()
	snapshots.saveErr = errors.New("disk full")

	source.recentMarkets = []domain.Market{{ID: "m1", Question: "Market one"}}
	require.NoError(t, scanner.Scan(context.Background()))

	source.recentMarkets = append(source.recentMarkets,
		domain.Market{ID: "m2", Question: "Market two"})
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Len(t, notifier.sent, 1, "delta still delivered")
}

func TestListingScanner_NoSubscribersStillAdvancesBaseline(t *testing.T) {
	scanner, source, users, _, notifier := newListingFixture()
	users.marketSubs = nil
	users.eventSubs = nil

	source.recentMarkets = []domain.Market{{ID: "m1", Question: "Market one"}}
	require.NoError(t, scanner.Scan(context.Background()))

	source.recentMarkets = append(source.recentMarkets,
		domain.Market{ID: "m2", Question: "Market two"})
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Empty(t, notifier.sent)

	// Подписчик появился позже: m2 уже в базе, шторма нет
	users.marketSubs = []int64{10}
	require.NoError(t, scanner.Scan(context.Background()))
	assert.Empty(t, notifier.sent)
}
