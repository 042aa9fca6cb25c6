// Package service provides business logic implementations.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/escrow"
	"gamepass/internal/events"
	"gamepass/internal/model"
	"gamepass/internal/pkg/lock"
	"gamepass/internal/repository"
)

// GameService exposes the public ledger operations. Every mutating
// operation holds the per-game lock and runs all of its reads and
// writes on a single database transaction: a guard violation or a
// failed fund transfer rolls the whole operation back, so callers only
// ever observe fully settled states.
type GameService struct {
	pool     *pgxpool.Pool
	registry *repository.RegistryRepository
	games    *repository.GameRepository
	accounts *repository.AccountRepository
	ledger   *repository.LedgerRepository
	gameLock *lock.GameLock
	policy   LifecyclePolicy
	emitter  events.Emitter
}

// NewGameService creates a new GameService instance.
func NewGameService(
	pool *pgxpool.Pool,
	registryRepo *repository.RegistryRepository,
	gameRepo *repository.GameRepository,
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	gameLock *lock.GameLock,
	policy LifecyclePolicy,
	emitter events.Emitter,
) *GameService {
	return &GameService{
		pool:     pool,
		registry: registryRepo,
		games:    gameRepo,
		accounts: accountRepo,
		ledger:   ledgerRepo,
		gameLock: gameLock,
		policy:   policy,
		emitter:  emitter,
	}
}

func (s *GameService) begin(ctx context.Context) (pgx.Tx, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateGame allocates the next game id and inserts a new game in Sale
// state. Only the registry owner may create games; no funds move here.
func (s *GameService) CreateGame(ctx context.Context, caller int64, minPlayers, maxPlayers uint32, entryFee int64) (*model.Game, error) {
	reg, err := s.registry.Get(ctx, s.pool)
	if err != nil {
		return nil, err
	}
	if caller != reg.Owner {
		return nil, escrow.ErrUnauthorized
	}
	if err := escrow.ValidateCreate(minPlayers, maxPlayers, entryFee); err != nil {
		return nil, err
	}

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	id, err := s.registry.NextGameID(ctx, tx)
	if err != nil {
		return nil, err
	}
	g := escrow.NewGame(id, caller, minPlayers, maxPlayers, entryFee, time.Now())
	if err := s.games.Insert(ctx, tx, g); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit game creation: %w", err)
	}

	s.emitter.GameCreated(g)
	return g, nil
}

// JoinGame admits the caller into a game in Sale state. The payment
// must equal the entry fee exactly and is debited from the caller's
// account into the pool in the same transaction, so the pool is never
// partially credited. When the join fills the game and the policy
// enables it, the game starts as part of the same operation.
func (s *GameService) JoinGame(ctx context.Context, caller, gameID, payment int64) (*model.Game, error) {
	s.gameLock.Lock(gameID)
	defer s.gameLock.Unlock(gameID)

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	g, err := s.games.GetForUpdate(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}

	if err := escrow.Join(g, caller, payment); err != nil {
		return nil, err
	}

	if _, err := s.accounts.Debit(ctx, tx, caller, payment); err != nil {
		return nil, err
	}
	if err := s.games.AddPlayer(ctx, tx, gameID, caller, g.PlayerCount); err != nil {
		return nil, err
	}

	started := false
	if s.policy.AutoStartWhenFull && escrow.Full(g) {
		if err := escrow.Start(g); err != nil {
			return nil, err
		}
		started = true
	}

	if err := s.games.Update(ctx, tx, g); err != nil {
		return nil, err
	}
	if _, err := s.ledger.Record(ctx, tx, caller, -payment, model.EntryJoin, &gameID); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit join: %w", err)
	}

	s.emitter.PlayerJoined(gameID, caller, payment, g.Pool)
	if started {
		s.emitter.GameStarted(gameID)
	}
	return g, nil
}

// StartGame freezes admission on a Sale game that reached its minimum
// player count. Gated by the lifecycle policy (owner or creator).
func (s *GameService) StartGame(ctx context.Context, caller, gameID int64) (*model.Game, error) {
	s.gameLock.Lock(gameID)
	defer s.gameLock.Unlock(gameID)

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	g, err := s.games.GetForUpdate(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	reg, err := s.registry.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanStart(caller, reg.Owner, g) {
		return nil, escrow.ErrUnauthorized
	}

	if err := escrow.Start(g); err != nil {
		return nil, err
	}
	if err := s.games.Update(ctx, tx, g); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit start: %w", err)
	}

	s.emitter.GameStarted(gameID)
	return g, nil
}

// CancelGame moves a Sale game to Cancelled and refunds every joined
// player exactly the entry fee. now is the externally supplied current
// time used by the expiry branch of the cancellation policy.
func (s *GameService) CancelGame(ctx context.Context, caller, gameID int64, now time.Time) (*model.Game, error) {
	s.gameLock.Lock(gameID)
	defer s.gameLock.Unlock(gameID)

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	g, err := s.games.GetForUpdate(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	reg, err := s.registry.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanCancel(caller, reg.Owner, g, now) {
		return nil, escrow.ErrUnauthorized
	}

	poolBefore := g.Pool
	refunds, err := escrow.Cancel(g)
	if err != nil {
		return nil, err
	}

	for _, refund := range refunds {
		if _, err := s.accounts.Credit(ctx, tx, refund.Player, refund.Amount); err != nil {
			return nil, err
		}
		if _, err := s.ledger.Record(ctx, tx, refund.Player, refund.Amount, model.EntryRefund, &gameID); err != nil {
			return nil, err
		}
	}
	if err := s.games.Update(ctx, tx, g); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit cancellation: %w", err)
	}

	s.emitter.GameCancelled(gameID, poolBefore)
	return g, nil
}

// SettleGame moves an Active game to Finished: the platform fee is
// accrued to the fee account, the remainder of the pool is paid to the
// winner and the result commitment is recorded. A failure in either
// transfer aborts the settlement, leaving the game Active with its pool
// intact for a retry.
func (s *GameService) SettleGame(ctx context.Context, caller, gameID, winner int64, resultHash model.ResultHash) (*model.Game, error) {
	s.gameLock.Lock(gameID)
	defer s.gameLock.Unlock(gameID)

	tx, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	g, err := s.games.GetForUpdate(ctx, tx, gameID)
	if err != nil {
		return nil, err
	}
	reg, err := s.registry.Get(ctx, tx)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanSettle(caller, reg.Owner) {
		return nil, escrow.ErrUnauthorized
	}

	settlement, err := escrow.Settle(g, winner, resultHash, reg.PlatformFeePercentage)
	if err != nil {
		return nil, err
	}

	if settlement.WinnerPayout > 0 {
		if _, err := s.accounts.Credit(ctx, tx, winner, settlement.WinnerPayout); err != nil {
			return nil, err
		}
		if _, err := s.ledger.Record(ctx, tx, winner, settlement.WinnerPayout, model.EntryPayout, &gameID); err != nil {
			return nil, err
		}
	}
	if settlement.CollectedFee > 0 {
		feeAccount := s.policy.FeeAccountOr(reg.Owner)
		if _, err := s.accounts.Credit(ctx, tx, feeAccount, settlement.CollectedFee); err != nil {
			return nil, err
		}
		if _, err := s.ledger.Record(ctx, tx, feeAccount, settlement.CollectedFee, model.EntryFee, &gameID); err != nil {
			return nil, err
		}
	}
	if err := s.games.Update(ctx, tx, g); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	s.emitter.GameSettled(gameID, winner, settlement.WinnerPayout, settlement.CollectedFee, resultHash)
	return g, nil
}

// GetGame returns the full snapshot of one game.
func (s *GameService) GetGame(ctx context.Context, gameID int64) (*model.Game, error) {
	return s.games.GetByID(ctx, s.pool, gameID)
}

// Registry returns the current registry snapshot.
func (s *GameService) Registry(ctx context.Context) (*model.Registry, error) {
	return s.registry.Get(ctx, s.pool)
}
