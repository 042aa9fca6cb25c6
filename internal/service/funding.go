package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/model"
	"gamepass/internal/repository"
)

// Funding errors.
var (
	ErrInvalidAccount = errors.New("invalid account id")
	ErrInvalidAmount  = errors.New("invalid amount: must not be negative")
)

// FundingService seeds account balances for test and local deployments.
// Funding sets a balance to an exact target rather than adding to it,
// so re-running the tool is idempotent.
type FundingService struct {
	pool     *pgxpool.Pool
	accounts *repository.AccountRepository
	ledger   *repository.LedgerRepository
}

// NewFundingService creates a new FundingService instance.
func NewFundingService(
	pool *pgxpool.Pool,
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
) *FundingService {
	return &FundingService{
		pool:     pool,
		accounts: accountRepo,
		ledger:   ledgerRepo,
	}
}

// Fund sets the account's balance to target, creating the account if it
// does not exist. The adjustment delta is recorded as a fund entry.
func (s *FundingService) Fund(ctx context.Context, accountID, target int64) (*model.Account, error) {
	if accountID == 0 {
		return nil, ErrInvalidAccount
	}
	if target < 0 {
		return nil, ErrInvalidAmount
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	account, err := s.accounts.GetOrCreate(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	delta := target - account.Balance
	if delta != 0 {
		account, err = s.accounts.Credit(ctx, tx, accountID, delta)
		if err != nil {
			return nil, err
		}
		if _, err := s.ledger.Record(ctx, tx, accountID, delta, model.EntryFund, nil); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit funding: %w", err)
	}
	return account, nil
}

// Balance returns the current balance of an account.
func (s *FundingService) Balance(ctx context.Context, accountID int64) (int64, error) {
	account, err := s.accounts.GetByID(ctx, s.pool, accountID)
	if err != nil {
		return 0, err
	}
	return account.Balance, nil
}
