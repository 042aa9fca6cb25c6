package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/model"
)

// LedgerRepository handles the append-only fund-movement audit trail.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository instance.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// Record appends one fund movement. gameID may be nil for movements not
// tied to a game (funding, ticket sales).
func (r *LedgerRepository) Record(ctx context.Context, q Querier, accountID, amount int64, kind string, gameID *int64) (*model.LedgerEntry, error) {
	const query = `
		INSERT INTO ledger_entries (account_id, amount, kind, game_id, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, account_id, amount, kind, game_id, created_at
	`

	var e model.LedgerEntry
	err := q.QueryRow(ctx, query, accountID, amount, kind, gameID).Scan(
		&e.ID,
		&e.AccountID,
		&e.Amount,
		&e.Kind,
		&e.GameID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to record ledger entry: %w", err)
	}
	return &e, nil
}

// GetByAccount retrieves an account's entries, newest first.
func (r *LedgerRepository) GetByAccount(ctx context.Context, accountID int64, limit int) ([]*model.LedgerEntry, error) {
	const query = `
		SELECT id, account_id, amount, kind, game_id, created_at
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	return r.query(ctx, query, accountID, limit)
}

// GetByGame retrieves every entry attached to a game in insertion
// order. The sum of join entries for a game in Sale equals the negated
// pool; settlement and refund entries balance it back out.
func (r *LedgerRepository) GetByGame(ctx context.Context, gameID int64) ([]*model.LedgerEntry, error) {
	const query = `
		SELECT id, account_id, amount, kind, game_id, created_at
		FROM ledger_entries
		WHERE game_id = $1
		ORDER BY id
	`
	return r.query(ctx, query, gameID)
}

func (r *LedgerRepository) query(ctx context.Context, query string, args ...any) ([]*model.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*model.LedgerEntry
	for rows.Next() {
		var e model.LedgerEntry
		err := rows.Scan(&e.ID, &e.AccountID, &e.Amount, &e.Kind, &e.GameID, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ledger entries: %w", err)
	}
	return entries, nil
}
