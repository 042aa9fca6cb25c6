package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/model"
)

const accountColumns = `id, balance, created_at, updated_at`

// AccountRepository handles funded identity persistence.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository instance.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

func scanAccount(row pgx.Row) (*model.Account, error) {
	var a model.Account
	err := row.Scan(&a.ID, &a.Balance, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Create creates an account with a zero balance.
// Account id 0 is the zero-identity sentinel and is rejected by the
// schema.
func (r *AccountRepository) Create(ctx context.Context, q Querier, id int64) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (id, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		RETURNING ` + accountColumns

	a, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return a, nil
}

// GetByID retrieves an account.
func (r *AccountRepository) GetByID(ctx context.Context, q Querier, id int64) (*model.Account, error) {
	const query = `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`

	a, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return a, nil
}

// GetOrCreate retrieves an account, creating it with a zero balance if
// absent. Used by the funding tool; ledger operations never create
// accounts implicitly.
func (r *AccountRepository) GetOrCreate(ctx context.Context, q Querier, id int64) (*model.Account, error) {
	const query = `
		INSERT INTO accounts (id, balance, created_at, updated_at)
		VALUES ($1, 0, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET updated_at = accounts.updated_at
		RETURNING ` + accountColumns

	a, err := scanAccount(q.QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get or create account: %w", err)
	}
	return a, nil
}

// Credit adds amount to an account's balance.
func (r *AccountRepository) Credit(ctx context.Context, q Querier, id, amount int64) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET balance = balance + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + accountColumns

	a, err := scanAccount(q.QueryRow(ctx, query, id, amount))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to credit account: %w", err)
	}
	return a, nil
}

// Debit subtracts amount from an account's balance. The update is
// conditional on sufficient funds so a balance can never go negative.
func (r *AccountRepository) Debit(ctx context.Context, q Querier, id, amount int64) (*model.Account, error) {
	const query = `
		UPDATE accounts
		SET balance = balance - $2, updated_at = NOW()
		WHERE id = $1 AND balance >= $2
		RETURNING ` + accountColumns

	a, err := scanAccount(q.QueryRow(ctx, query, id, amount))
	if err == nil {
		return a, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("failed to debit account: %w", err)
	}

	// No row updated: distinguish a missing account from an underfunded
	// one.
	if _, getErr := r.GetByID(ctx, q, id); getErr != nil {
		return nil, getErr
	}
	return nil, ErrInsufficientFunds
}

// Exists checks if an account exists.
func (r *AccountRepository) Exists(ctx context.Context, q Querier, id int64) (bool, error) {
	const query = `SELECT EXISTS(SELECT 1 FROM accounts WHERE id = $1)`

	var exists bool
	if err := q.QueryRow(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}
