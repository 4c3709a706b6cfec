package database

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// Переключение фильтров не имеет права трогать seen_markets: иначе смена
// min_volume обнулила бы накопленную историю рынков и бот снова слал бы
// "новые входы" по давно виденным рынкам.
func TestWalletRepository_UpdateSettingsLeavesSeenMarketsAlone(t *testing.T) {
	matcher := sqlmock.QueryMatcherFunc(func(expectedSQL, actualSQL string) error {
		if strings.Contains(actualSQL, "seen_markets") {
			return fmt.Errorf("settings update must not touch seen_markets: %s", actualSQL)
		}
		if !strings.Contains(actualSQL, "UPDATE tracked_wallets") {
			return fmt.Errorf("unexpected statement: %s", actualSQL)
		}
		return nil
	})
	mockDB, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(matcher))
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewWalletRepository(&DB{mockDB})

	mock.ExpectExec("").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), string(domain.ConditionAbove), true, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.UpdateSettings(context.Background(),
		7, decimal.NewFromInt(500), decimal.NewFromFloat(0.30), domain.ConditionAbove, true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletRepository_UpdateSeenMarketsRewritesSet(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewWalletRepository(&DB{mockDB})

	mock.ExpectExec(`UPDATE tracked_wallets SET seen_markets`).
		WithArgs(sqlmock.AnyArg(), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	seen := domain.NewStringSet()
	seen.Add("m1")
	seen.Add("m2")
	require.NoError(t, repo.UpdateSeenMarkets(context.Background(), 7, seen))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAlertRepository_DeleteReportsClaim(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	repo := NewAlertRepository(&DB{mockDB})

	mock.ExpectExec(`DELETE FROM price_alerts`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	claimed, err := repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, claimed)

	// Строку уже забрал параллельный путь - захват не наш
	mock.ExpectExec(`DELETE FROM price_alerts`).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	claimed, err = repo.Delete(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, claimed)
	assert.NoError(t, mock.ExpectationsWereMet())
}
