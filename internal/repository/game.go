package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/escrow"
	"gamepass/internal/model"
)

const gameColumns = `id, creator, min_players, max_players, entry_fee, pool,
	status, player_count, winner, result_hash, collected_fee, created_at, updated_at`

// GameRepository handles game record persistence. Game rows are
// append-only at creation; only the lifecycle-mutable fields are ever
// updated, and never on a different row than the one addressed.
type GameRepository struct {
	pool *pgxpool.Pool
}

// NewGameRepository creates a new GameRepository instance.
func NewGameRepository(pool *pgxpool.Pool) *GameRepository {
	return &GameRepository{pool: pool}
}

func scanGame(row pgx.Row) (*model.Game, error) {
	var g model.Game
	var hash []byte
	err := row.Scan(
		&g.ID,
		&g.Creator,
		&g.MinPlayers,
		&g.MaxPlayers,
		&g.EntryFee,
		&g.Pool,
		&g.Status,
		&g.PlayerCount,
		&g.Winner,
		&hash,
		&g.CollectedFee,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	g.ResultHash = model.ResultHashFromBytes(hash)
	return &g, nil
}

// Insert stores a freshly created game record.
func (r *GameRepository) Insert(ctx context.Context, q Querier, g *model.Game) error {
	const query = `
		INSERT INTO games (id, creator, min_players, max_players, entry_fee, pool,
			status, player_count, winner, result_hash, collected_fee, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
	`
	_, err := q.Exec(ctx, query,
		g.ID, g.Creator, g.MinPlayers, g.MaxPlayers, g.EntryFee, g.Pool,
		g.Status, g.PlayerCount, g.Winner, g.ResultHash.Bytes(), g.CollectedFee,
	)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

// GetByID retrieves a game snapshot with its player set.
// Returns escrow.ErrGameNotFound for an unknown id.
func (r *GameRepository) GetByID(ctx context.Context, q Querier, id int64) (*model.Game, error) {
	g, err := r.getGame(ctx, q, id, false)
	if err != nil {
		return nil, err
	}
	if err := r.loadPlayers(ctx, q, g); err != nil {
		return nil, err
	}
	return g, nil
}

// GetForUpdate retrieves a game with its player set, locking the row
// for the duration of the surrounding transaction.
func (r *GameRepository) GetForUpdate(ctx context.Context, q Querier, id int64) (*model.Game, error) {
	g, err := r.getGame(ctx, q, id, true)
	if err != nil {
		return nil, err
	}
	if err := r.loadPlayers(ctx, q, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (r *GameRepository) getGame(ctx context.Context, q Querier, id int64, forUpdate bool) (*model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	g, err := scanGame(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, escrow.ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return g, nil
}

func (r *GameRepository) loadPlayers(ctx context.Context, q Querier, g *model.Game) error {
	const query = `
		SELECT account_id
		FROM game_players
		WHERE game_id = $1
		ORDER BY seq
	`

	rows, err := q.Query(ctx, query, g.ID)
	if err != nil {
		return fmt.Errorf("failed to load players: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var accountID int64
		if err := rows.Scan(&accountID); err != nil {
			return fmt.Errorf("failed to scan player: %w", err)
		}
		g.Players = append(g.Players, accountID)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating players: %w", err)
	}
	return nil
}

// AddPlayer appends an account to a game's player set. The primary key
// on (game_id, account_id) backs the no-duplicates invariant at the
// storage level as well.
func (r *GameRepository) AddPlayer(ctx context.Context, q Querier, gameID, accountID int64, seq uint32) error {
	const query = `
		INSERT INTO game_players (game_id, account_id, seq, joined_at)
		VALUES ($1, $2, $3, NOW())
	`
	if _, err := q.Exec(ctx, query, gameID, accountID, seq); err != nil {
		return fmt.Errorf("failed to add player: %w", err)
	}
	return nil
}

// Update writes the lifecycle-mutable fields of a game record.
func (r *GameRepository) Update(ctx context.Context, q Querier, g *model.Game) error {
	const query = `
		UPDATE games
		SET pool = $2, status = $3, player_count = $4, winner = $5,
			result_hash = $6, collected_fee = $7, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query,
		g.ID, g.Pool, g.Status, g.PlayerCount, g.Winner,
		g.ResultHash.Bytes(), g.CollectedFee,
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return escrow.ErrGameNotFound
	}
	return nil
}

// GetByStatus retrieves games in a given lifecycle state, oldest first.
func (r *GameRepository) GetByStatus(ctx context.Context, status model.GameStatus, limit int) ([]*model.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE status = $1 ORDER BY id LIMIT $2`

	rows, err := r.pool.Query(ctx, query, status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}
	return games, nil
}
