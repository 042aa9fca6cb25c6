package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// migrations are applied in order at startup. Each statement is
// idempotent so re-running is safe. Tests share the same schema.
var migrations = []struct {
	name string
	sql  string
}{
	{
		name: "registry",
		sql: `
		CREATE TABLE IF NOT EXISTS registry (
			id SMALLINT PRIMARY KEY CHECK (id = 1),
			owner BIGINT NOT NULL,
			platform_fee_percentage BIGINT NOT NULL CHECK (platform_fee_percentage BETWEEN 0 AND 100),
			game_id_counter BIGINT NOT NULL DEFAULT 0
		);`,
	},
	{
		name: "accounts",
		sql: `
		CREATE TABLE IF NOT EXISTS accounts (
			id BIGINT PRIMARY KEY CHECK (id <> 0),
			balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
	},
	{
		name: "games",
		sql: `
		CREATE TABLE IF NOT EXISTS games (
			id BIGINT PRIMARY KEY,
			creator BIGINT NOT NULL,
			min_players INT NOT NULL CHECK (min_players >= 1),
			max_players INT NOT NULL CHECK (max_players >= min_players),
			entry_fee BIGINT NOT NULL CHECK (entry_fee >= 0),
			pool BIGINT NOT NULL DEFAULT 0 CHECK (pool >= 0),
			status INT NOT NULL DEFAULT 0,
			player_count INT NOT NULL DEFAULT 0,
			winner BIGINT NOT NULL DEFAULT 0,
			result_hash BYTEA NOT NULL DEFAULT ''::BYTEA,
			collected_fee BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);`,
	},
	{
		name: "game_players",
		sql: `
		CREATE TABLE IF NOT EXISTS game_players (
			game_id BIGINT NOT NULL REFERENCES games(id),
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			seq INT NOT NULL,
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (game_id, account_id)
		);
		CREATE INDEX IF NOT EXISTS idx_game_players_game_seq ON game_players(game_id, seq);`,
	},
	{
		name: "ledger_entries",
		sql: `
		CREATE TABLE IF NOT EXISTS ledger_entries (
			id BIGSERIAL PRIMARY KEY,
			account_id BIGINT NOT NULL REFERENCES accounts(id),
			amount BIGINT NOT NULL,
			kind VARCHAR(50) NOT NULL,
			game_id BIGINT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_ledger_account_time ON ledger_entries(account_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_ledger_game ON ledger_entries(game_id);`,
	},
	{
		name: "ticket_catalog",
		sql: `
		CREATE TABLE IF NOT EXISTS ticket_classes (
			id BIGSERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL UNIQUE,
			price BIGINT NOT NULL CHECK (price >= 0),
			color VARCHAR(16) NOT NULL
		);
		CREATE TABLE IF NOT EXISTS tickets (
			id BIGSERIAL PRIMARY KEY,
			class_id BIGINT NOT NULL REFERENCES ticket_classes(id),
			owner BIGINT NOT NULL REFERENCES accounts(id),
			refunded BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_tickets_owner ON tickets(owner);`,
	},
}

// Migrate applies the database schema.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	log.Info().Msg("Running database migrations...")
	for _, m := range migrations {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return err
		}
		log.Info().Str("migration", m.name).Msg("Migration applied")
	}
	log.Info().Msg("All migrations completed successfully")
	return nil
}
