package database

import "context"

// Схема создается на старте, как это делал и прошлый вариант бота.
// Никаких версионированных миграций - таблиц четыре и они стабильны.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            BIGINT PRIMARY KEY,
		username      TEXT NOT NULL DEFAULT '',
		arb_alerts    BOOLEAN NOT NULL DEFAULT FALSE,
		market_alerts BOOLEAN NOT NULL DEFAULT FALSE,
		event_alerts  BOOLEAN NOT NULL DEFAULT FALSE,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS price_alerts (
		id           BIGSERIAL PRIMARY KEY,
		user_id      BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		market_id    TEXT NOT NULL,
		market_slug  TEXT NOT NULL DEFAULT '',
		market_label TEXT NOT NULL DEFAULT '',
		outcome      TEXT NOT NULL DEFAULT 'YES',
		target_price NUMERIC NOT NULL,
		condition    TEXT NOT NULL,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS tracked_wallets (
		id               BIGSERIAL PRIMARY KEY,
		user_id          BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		address          TEXT NOT NULL,
		alias            TEXT NOT NULL DEFAULT '',
		last_trade_id    TEXT NOT NULL DEFAULT '',
		min_volume_usd   NUMERIC NOT NULL DEFAULT 0,
		price_condition  TEXT NOT NULL DEFAULT 'NONE',
		price_target     NUMERIC NOT NULL DEFAULT 0,
		only_new_markets BOOLEAN NOT NULL DEFAULT TRUE,
		seen_markets     TEXT[] NOT NULL DEFAULT '{}'
	)`,
	`CREATE TABLE IF NOT EXISTS listing_snapshots (
		id         UUID PRIMARY KEY,
		scanned_at TIMESTAMPTZ NOT NULL,
		markets    JSONB NOT NULL,
		events     JSONB NOT NULL
	)`,
}

// Migrate накатывает схему. Идемпотентно.
func Migrate(ctx context.Context, db *DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
