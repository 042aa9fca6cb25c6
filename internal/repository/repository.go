// Package repository provides data access layer implementations.
//
// Methods that participate in a multi-write ledger operation take an
// explicit Querier so the service layer can run the whole operation on
// one pgx transaction; reads outside an operation run on the pool.
package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgx satisfied by both *pgxpool.Pool and
// pgx.Tx.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Common errors for repository operations.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientFunds   = errors.New("insufficient funds")
	ErrRegistryNotFound    = errors.New("registry not bootstrapped")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrTicketClassNotFound = errors.New("ticket class not found")
)
