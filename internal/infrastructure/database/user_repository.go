package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/polarterminal/polar-bot/internal/domain"
)

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert регистрирует пользователя при /start. Повторный /start
// существующие настройки не сбрасывает.
func (r *UserRepository) Upsert(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, username, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (id) DO UPDATE SET username = EXCLUDED.username
	`
	_, err := r.db.ExecContext(ctx, query, user.ID, user.Username)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func (r *UserRepository) Get(ctx context.Context, id int64) (*domain.User, error) {
	query := `
		SELECT id, username, arb_alerts, market_alerts, event_alerts, created_at
		FROM users
		WHERE id = $1
	`

	user := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID, &user.Username, &user.ArbAlerts, &user.MarketAlerts, &user.EventAlerts, &user.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) ToggleArbAlerts(ctx context.Context, id int64) (bool, error) {
	return r.toggle(ctx, id, "arb_alerts")
}

func (r *UserRepository) ToggleMarketAlerts(ctx context.Context, id int64) (bool, error) {
	return r.toggle(ctx, id, "market_alerts")
}

func (r *UserRepository) ToggleEventAlerts(ctx context.Context, id int64) (bool, error) {
	return r.toggle(ctx, id, "event_alerts")
}

func (r *UserRepository) toggle(ctx context.Context, id int64, column string) (bool, error) {
	// column всегда из фиксированного набора выше, инъекция невозможна
	query := fmt.Sprintf(`UPDATE users SET %s = NOT %s WHERE id = $1 RETURNING %s`, column, column, column)

	var val bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&val); err != nil {
		return false, fmt.Errorf("failed to toggle %s: %w", column, err)
	}
	return val, nil
}

func (r *UserRepository) ArbSubscribers(ctx context.Context) ([]int64, error) {
	return r.subscribers(ctx, "arb_alerts")
}

func (r *UserRepository) MarketSubscribers(ctx context.Context) ([]int64, error) {
	return r.subscribers(ctx, "market_alerts")
}

func (r *UserRepository) EventSubscribers(ctx context.Context) ([]int64, error) {
	return r.subscribers(ctx, "event_alerts")
}

func (r *UserRepository) subscribers(ctx context.Context, column string) ([]int64, error) {
	query := fmt.Sprintf(`SELECT id FROM users WHERE %s = TRUE`, column)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get subscribers: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subscriber error: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- SnapshotRepository ---

type SnapshotRepository struct {
	db *DB
}

func NewSnapshotRepository(db *DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// SaveListingSnapshot пишет полный слепок цикла сканера листингов.
// Вызывающий относится к ошибке как к некритичной.
func (r *SnapshotRepository) SaveListingSnapshot(ctx context.Context, snap *domain.ListingSnapshot) error {
	marketsJSON, err := json.Marshal(snap.Markets)
	if err != nil {
		return fmt.Errorf("failed to marshal markets: %w", err)
	}
	eventsJSON, err := json.Marshal(snap.Events)
	if err != nil {
		return fmt.Errorf("failed to marshal events: %w", err)
	}

	query := `
		INSERT INTO listing_snapshots (id, scanned_at, markets, events)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query, snap.ID, snap.ScannedAt, marketsJSON, eventsJSON); err != nil {
		return fmt.Errorf("failed to save listing snapshot: %w", err)
	}
	return nil
}
