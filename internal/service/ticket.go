package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/events"
	"gamepass/internal/model"
	"gamepass/internal/repository"
)

// Ticket service errors.
var (
	ErrTicketNotOwned        = errors.New("ticket belongs to another account")
	ErrTicketAlreadyRefunded = errors.New("ticket already refunded")
)

// TicketService sells and refunds flat-priced catalog tickets. Tickets
// involve no pooling: a sale debits the class price, a refund credits
// it back exactly once.
type TicketService struct {
	pool     *pgxpool.Pool
	tickets  *repository.TicketRepository
	accounts *repository.AccountRepository
	ledger   *repository.LedgerRepository
	emitter  events.Emitter
}

// NewTicketService creates a new TicketService instance.
func NewTicketService(
	pool *pgxpool.Pool,
	ticketRepo *repository.TicketRepository,
	accountRepo *repository.AccountRepository,
	ledgerRepo *repository.LedgerRepository,
	emitter events.Emitter,
) *TicketService {
	return &TicketService{
		pool:     pool,
		tickets:  ticketRepo,
		accounts: accountRepo,
		ledger:   ledgerRepo,
		emitter:  emitter,
	}
}

// Catalog returns all ticket classes.
func (s *TicketService) Catalog(ctx context.Context) ([]*model.TicketClass, error) {
	return s.tickets.GetClasses(ctx)
}

// Buy sells one ticket of the given class to the caller, debiting the
// class price. Debit and ticket insert share one transaction.
func (s *TicketService) Buy(ctx context.Context, caller, classID int64) (*model.Ticket, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	class, err := s.tickets.GetClassByID(ctx, tx, classID)
	if err != nil {
		return nil, err
	}
	if _, err := s.accounts.Debit(ctx, tx, caller, class.Price); err != nil {
		return nil, err
	}
	ticket, err := s.tickets.Insert(ctx, tx, classID, caller)
	if err != nil {
		return nil, err
	}
	if _, err := s.ledger.Record(ctx, tx, caller, -class.Price, model.EntryTicketPurchase, nil); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit ticket purchase: %w", err)
	}

	s.emitter.TicketSold(ticket.ID, classID, caller, class.Price)
	return ticket, nil
}

// Refund returns the class price of a ticket to its owner and marks the
// ticket refunded. Only the owner may refund, and only once; the row
// lock makes a concurrent double refund impossible.
func (s *TicketService) Refund(ctx context.Context, caller, ticketID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	ticket, err := s.tickets.GetForUpdate(ctx, tx, ticketID)
	if err != nil {
		return err
	}
	if ticket.Owner != caller {
		return ErrTicketNotOwned
	}
	if ticket.Refunded {
		return ErrTicketAlreadyRefunded
	}

	class, err := s.tickets.GetClassByID(ctx, tx, ticket.ClassID)
	if err != nil {
		return err
	}
	if _, err := s.accounts.Credit(ctx, tx, caller, class.Price); err != nil {
		return err
	}
	if err := s.tickets.MarkRefunded(ctx, tx, ticketID); err != nil {
		return err
	}
	if _, err := s.ledger.Record(ctx, tx, caller, class.Price, model.EntryTicketRefund, nil); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit ticket refund: %w", err)
	}

	s.emitter.TicketRefunded(ticketID, caller, class.Price)
	return nil
}

// TicketsOf returns the caller's tickets, including refunded ones.
func (s *TicketService) TicketsOf(ctx context.Context, owner int64) ([]*model.Ticket, error) {
	return s.tickets.GetByOwner(ctx, owner)
}
