package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/model"
)

// RegistryRepository handles the singleton registry row: the owner
// identity, the platform fee percentage and the game id counter.
type RegistryRepository struct {
	pool *pgxpool.Pool
}

// NewRegistryRepository creates a new RegistryRepository instance.
func NewRegistryRepository(pool *pgxpool.Pool) *RegistryRepository {
	return &RegistryRepository{pool: pool}
}

// Bootstrap inserts the registry row if it does not exist yet and
// returns the effective registry. An existing row wins; owner and fee
// percentage are immutable after first creation.
func (r *RegistryRepository) Bootstrap(ctx context.Context, owner, feePercentage int64) (*model.Registry, error) {
	const query = `
		INSERT INTO registry (id, owner, platform_fee_percentage, game_id_counter)
		VALUES (1, $1, $2, 0)
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := r.pool.Exec(ctx, query, owner, feePercentage); err != nil {
		return nil, fmt.Errorf("failed to bootstrap registry: %w", err)
	}
	return r.Get(ctx, r.pool)
}

// Get retrieves the registry row.
func (r *RegistryRepository) Get(ctx context.Context, q Querier) (*model.Registry, error) {
	const query = `
		SELECT owner, platform_fee_percentage, game_id_counter
		FROM registry
		WHERE id = 1
	`

	var reg model.Registry
	err := q.QueryRow(ctx, query).Scan(
		&reg.Owner,
		&reg.PlatformFeePercentage,
		&reg.GameIDCounter,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRegistryNotFound
		}
		return nil, fmt.Errorf("failed to get registry: %w", err)
	}

	return &reg, nil
}

// NextGameID advances the game id counter by exactly one and returns
// the id that was current before the increment; that id is the new
// game's identifier.
func (r *RegistryRepository) NextGameID(ctx context.Context, q Querier) (int64, error) {
	const query = `
		UPDATE registry
		SET game_id_counter = game_id_counter + 1
		WHERE id = 1
		RETURNING game_id_counter - 1
	`

	var id int64
	if err := q.QueryRow(ctx, query).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrRegistryNotFound
		}
		return 0, fmt.Errorf("failed to allocate game id: %w", err)
	}
	return id, nil
}
