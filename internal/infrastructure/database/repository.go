package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/polarterminal/polar-bot/internal/domain"
)

// --- AlertRepository ---

type AlertRepository struct {
	db *DB
}

func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

const alertColumns = `id, user_id, market_id, market_slug, market_label, outcome, target_price, condition, created_at`

func (r *AlertRepository) GetAll(ctx context.Context) ([]domain.PriceAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM price_alerts ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (r *AlertRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.PriceAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM price_alerts WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user alerts: %w", err)
	}
	defer rows.Close()

	return scanAlerts(rows)
}

func (r *AlertRepository) GetByID(ctx context.Context, id int64) (*domain.PriceAlert, error) {
	query := `SELECT ` + alertColumns + ` FROM price_alerts WHERE id = $1`

	a := &domain.PriceAlert{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&a.ID, &a.UserID, &a.MarketID, &a.MarketSlug, &a.MarketLabel,
		&a.Outcome, &a.TargetPrice, &a.Condition, &a.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return a, nil
}

func (r *AlertRepository) Create(ctx context.Context, alert *domain.PriceAlert) error {
	query := `
		INSERT INTO price_alerts (user_id, market_id, market_slug, market_label, outcome, target_price, condition, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id
	`

	err := r.db.QueryRowContext(
		ctx, query,
		alert.UserID, alert.MarketID, alert.MarketSlug, alert.MarketLabel,
		alert.Outcome, alert.TargetPrice, alert.Condition,
	).Scan(&alert.ID)

	if err != nil {
		return fmt.Errorf("failed to create alert: %w", err)
	}
	return nil
}

func (r *AlertRepository) Update(ctx context.Context, id int64, target decimal.Decimal, cond domain.Condition, outcome domain.Outcome) error {
	query := `UPDATE price_alerts SET target_price = $1, condition = $2, outcome = $3 WHERE id = $4`

	_, err := r.db.ExecContext(ctx, query, target, cond, outcome, id)
	if err != nil {
		return fmt.Errorf("failed to update alert: %w", err)
	}
	return nil
}

// Delete возвращает true, если строка реально удалена. Сработавший алерт
// удаляется ровно один раз - кто удалил, тот и отправляет уведомление.
func (r *AlertRepository) Delete(ctx context.Context, id int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM price_alerts WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete alert: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func scanAlerts(rows *sql.Rows) ([]domain.PriceAlert, error) {
	var alerts []domain.PriceAlert
	for rows.Next() {
		var a domain.PriceAlert
		err := rows.Scan(
			&a.ID, &a.UserID, &a.MarketID, &a.MarketSlug, &a.MarketLabel,
			&a.Outcome, &a.TargetPrice, &a.Condition, &a.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alert error: %w", err)
		}
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

// --- WalletRepository ---

type WalletRepository struct {
	db *DB
}

func NewWalletRepository(db *DB) *WalletRepository {
	return &WalletRepository{db: db}
}

const walletColumns = `id, user_id, address, alias, last_trade_id, min_volume_usd, price_condition, price_target, only_new_markets, seen_markets`

func (r *WalletRepository) GetAll(ctx context.Context) ([]domain.TrackedWallet, error) {
	query := `SELECT ` + walletColumns + ` FROM tracked_wallets ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get wallets: %w", err)
	}
	defer rows.Close()

	return scanWallets(rows)
}

func (r *WalletRepository) GetByUserID(ctx context.Context, userID int64) ([]domain.TrackedWallet, error) {
	query := `SELECT ` + walletColumns + ` FROM tracked_wallets WHERE user_id = $1 ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user wallets: %w", err)
	}
	defer rows.Close()

	return scanWallets(rows)
}

func (r *WalletRepository) GetByID(ctx context.Context, id int64) (*domain.TrackedWallet, error) {
	query := `SELECT ` + walletColumns + ` FROM tracked_wallets WHERE id = $1`

	w := &domain.TrackedWallet{}
	var seen []string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&w.ID, &w.UserID, &w.Address, &w.Alias, &w.LastTradeID,
		&w.MinVolumeUSD, &w.PriceCondition, &w.PriceTarget, &w.OnlyNewMarkets,
		pq.Array(&seen),
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet: %w", err)
	}
	w.SeenMarkets = domain.NewStringSet(seen...)
	return w, nil
}

func (r *WalletRepository) Create(ctx context.Context, w *domain.TrackedWallet) error {
	query := `
		INSERT INTO tracked_wallets (user_id, address, alias, last_trade_id, min_volume_usd, price_condition, price_target, only_new_markets, seen_markets)
		VALUES ($1, $2, $3, '', 0, 'NONE', 0, TRUE, '{}')
		RETURNING id, min_volume_usd, price_condition, price_target, only_new_markets
	`

	err := r.db.QueryRowContext(ctx, query, w.UserID, w.Address, w.Alias).Scan(
		&w.ID, &w.MinVolumeUSD, &w.PriceCondition, &w.PriceTarget, &w.OnlyNewMarkets,
	)
	if err != nil {
		return fmt.Errorf("failed to create wallet: %w", err)
	}
	w.SeenMarkets = domain.NewStringSet()
	return nil
}

func (r *WalletRepository) UpdateCursor(ctx context.Context, id int64, tradeID string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE tracked_wallets SET last_trade_id = $1 WHERE id = $2`, tradeID, id)
	if err != nil {
		return fmt.Errorf("failed to update wallet cursor: %w", err)
	}
	return nil
}

func (r *WalletRepository) UpdateSeenMarkets(ctx context.Context, id int64, seen domain.StringSet) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tracked_wallets SET seen_markets = $1 WHERE id = $2`,
		pq.Array(seen.Values()), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update seen markets: %w", err)
	}
	return nil
}

// UpdateSettings меняет фильтры. Колонку seen_markets не трогает, поэтому
// переключение фильтров не теряет накопленную историю рынков.
func (r *WalletRepository) UpdateSettings(ctx context.Context, id int64, minVol, priceTarget decimal.Decimal, cond domain.Condition, onlyNew bool) error {
	query := `
		UPDATE tracked_wallets
		SET min_volume_usd = $1, price_target = $2, price_condition = $3, only_new_markets = $4
		WHERE id = $5
	`
	_, err := r.db.ExecContext(ctx, query, minVol, priceTarget, cond, onlyNew, id)
	if err != nil {
		return fmt.Errorf("failed to update wallet settings: %w", err)
	}
	return nil
}

func (r *WalletRepository) Delete(ctx context.Context, id, userID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM tracked_wallets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, fmt.Errorf("failed to delete wallet: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func scanWallets(rows *sql.Rows) ([]domain.TrackedWallet, error) {
	var wallets []domain.TrackedWallet
	for rows.Next() {
		var w domain.TrackedWallet
		var seen []string
		err := rows.Scan(
			&w.ID, &w.UserID, &w.Address, &w.Alias, &w.LastTradeID,
			&w.MinVolumeUSD, &w.PriceCondition, &w.PriceTarget, &w.OnlyNewMarkets,
			pq.Array(&seen),
		)
		if err != nil {
			return nil, fmt.Errorf("scan wallet error: %w", err)
		}
		w.SeenMarkets = domain.NewStringSet(seen...)
		wallets = append(wallets, w)
	}
	return wallets, rows.Err()
}
