package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists payment records and lifecycle transitions.
// Insertion of the initial pending payment happens inside the booking
// transaction (see bookings.Repository); this repository covers the
// later status transitions.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("payments: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock connection for tests.
func NewRepositoryWithDB(conn db) *Repository {
	return &Repository{db: conn}
}

// GetForProfessional fetches a payment scoped to the professional who
// owns its booking.
func (r *Repository) GetForProfessional(ctx context.Context, professionalID, id uuid.UUID) (*Payment, error) {
	query := `
		SELECT p.id, p.booking_id, p.method, p.amount_cents, p.status, p.created_at, p.updated_at
		FROM payments p
		JOIN bookings b ON b.id = p.booking_id
		WHERE p.id = $1 AND b.professional_id = $2
	`
	var pay Payment
	if err := r.db.QueryRow(ctx, query, id, professionalID).Scan(
		&pay.ID,
		&pay.BookingID,
		&pay.Method,
		&pay.AmountCents,
		&pay.Status,
		&pay.CreatedAt,
		&pay.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payments: select failed: %w", err)
	}
	return &pay, nil
}

// SetStatus transitions a payment. Marking a payment paid also
// confirms its pending booking, atomically.
func (r *Repository) SetStatus(ctx context.Context, professionalID, id uuid.UUID, status Status) (*Payment, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("payments: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		UPDATE payments p
		SET status = $1, updated_at = now()
		FROM bookings b
		WHERE p.id = $2 AND b.id = p.booking_id AND b.professional_id = $3
		RETURNING p.id, p.booking_id, p.method, p.amount_cents, p.status, p.created_at, p.updated_at
	`
	var pay Payment
	if err := tx.QueryRow(ctx, query, status, id, professionalID).Scan(
		&pay.ID,
		&pay.BookingID,
		&pay.Method,
		&pay.AmountCents,
		&pay.Status,
		&pay.CreatedAt,
		&pay.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("payments: update status: %w", err)
	}

	if status == StatusPaid {
		if _, err := tx.Exec(ctx, `
			UPDATE bookings SET status = 'confirmed' WHERE id = $1 AND status = 'pending'
		`, pay.BookingID); err != nil {
			return nil, fmt.Errorf("payments: confirm booking: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("payments: commit: %w", err)
	}
	return &pay, nil
}
