package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"gamepass/internal/model"
)

// TicketRepository handles the flat priced ticket catalog and sold
// tickets.
type TicketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository creates a new TicketRepository instance.
func NewTicketRepository(pool *pgxpool.Pool) *TicketRepository {
	return &TicketRepository{pool: pool}
}

// SeedClasses inserts catalog entries that are not present yet.
// Existing classes keep their price; the catalog is append-only.
func (r *TicketRepository) SeedClasses(ctx context.Context, classes []model.TicketClass) error {
	const query = `
		INSERT INTO ticket_classes (name, price, color)
		VALUES ($1, $2, $3)
		ON CONFLICT (name) DO NOTHING
	`
	for _, c := range classes {
		if _, err := r.pool.Exec(ctx, query, c.Name, c.Price, c.Color); err != nil {
			return fmt.Errorf("failed to seed ticket class %q: %w", c.Name, err)
		}
	}
	return nil
}

// GetClasses retrieves the full catalog.
func (r *TicketRepository) GetClasses(ctx context.Context) ([]*model.TicketClass, error) {
	const query = `SELECT id, name, price, color FROM ticket_classes ORDER BY id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticket classes: %w", err)
	}
	defer rows.Close()

	var classes []*model.TicketClass
	for rows.Next() {
		var c model.TicketClass
		if err := rows.Scan(&c.ID, &c.Name, &c.Price, &c.Color); err != nil {
			return nil, fmt.Errorf("failed to scan ticket class: %w", err)
		}
		classes = append(classes, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating ticket classes: %w", err)
	}
	return classes, nil
}

// GetClassByID retrieves one catalog entry.
func (r *TicketRepository) GetClassByID(ctx context.Context, q Querier, id int64) (*model.TicketClass, error) {
	const query = `SELECT id, name, price, color FROM ticket_classes WHERE id = $1`

	var c model.TicketClass
	err := q.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.Price, &c.Color)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketClassNotFound
		}
		return nil, fmt.Errorf("failed to get ticket class: %w", err)
	}
	return &c, nil
}

// Insert records a sold ticket.
func (r *TicketRepository) Insert(ctx context.Context, q Querier, classID, owner int64) (*model.Ticket, error) {
	const query = `
		INSERT INTO tickets (class_id, owner, refunded, created_at, updated_at)
		VALUES ($1, $2, FALSE, NOW(), NOW())
		RETURNING id, class_id, owner, refunded, created_at, updated_at
	`

	var t model.Ticket
	err := q.QueryRow(ctx, query, classID, owner).Scan(
		&t.ID, &t.ClassID, &t.Owner, &t.Refunded, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ticket: %w", err)
	}
	return &t, nil
}

// GetForUpdate retrieves a ticket, locking the row for the surrounding
// transaction so a refund can only happen once.
func (r *TicketRepository) GetForUpdate(ctx context.Context, q Querier, id int64) (*model.Ticket, error) {
	const query = `
		SELECT id, class_id, owner, refunded, created_at, updated_at
		FROM tickets
		WHERE id = $1
		FOR UPDATE
	`

	var t model.Ticket
	err := q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.ClassID, &t.Owner, &t.Refunded, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("failed to get ticket: %w", err)
	}
	return &t, nil
}

// MarkRefunded flags a ticket as refunded.
func (r *TicketRepository) MarkRefunded(ctx context.Context, q Querier, id int64) error {
	const query = `
		UPDATE tickets
		SET refunded = TRUE, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark ticket refunded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrTicketNotFound
	}
	return nil
}

// GetByOwner retrieves an account's tickets, newest first.
func (r *TicketRepository) GetByOwner(ctx context.Context, owner int64) ([]*model.Ticket, error) {
	const query = `
		SELECT id, class_id, owner, refunded, created_at, updated_at
		FROM tickets
		WHERE owner = $1
		ORDER BY id DESC
	`

	rows, err := r.pool.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get tickets: %w", err)
	}
	defer rows.Close()

	var tickets []*model.Ticket
	for rows.Next() {
		var t model.Ticket
		err := rows.Scan(&t.ID, &t.ClassID, &t.Owner, &t.Refunded, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ticket: %w", err)
		}
		tickets = append(tickets, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}
