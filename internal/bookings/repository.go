package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilgner17/reservo-scheduler/internal/payments"
)

const bookingColumns = `id, professional_id, service_id, client_name, client_email, client_phone, start_at, end_at, price_cents, notes, status, booking_type, created_at`

type db interface {
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists bookings and their paired payment records.
//
// Admission and insertion run in one serializable transaction, and the
// bookings table additionally carries an exclusion constraint on
// overlapping non-cancelled windows, so two concurrent requests for
// the same slot cannot both commit.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("bookings: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock connection for tests.
func NewRepositoryWithDB(conn db) *Repository {
	return &Repository{db: conn}
}

const overlapQuery = `
	SELECT EXISTS (
		SELECT 1 FROM bookings
		WHERE professional_id = $1
		  AND status <> 'cancelled'
		  AND start_at < $3
		  AND $2 < end_at
	)
`

// SlotFree reports whether [start, end) is free for the professional
// under half-open interval semantics.
func (r *Repository) SlotFree(ctx context.Context, professionalID uuid.UUID, start, end time.Time) (bool, error) {
	var taken bool
	if err := r.db.QueryRow(ctx, overlapQuery, professionalID, start, end).Scan(&taken); err != nil {
		return false, fmt.Errorf("bookings: overlap check: %w", err)
	}
	return !taken, nil
}

// Create admits and persists a booking, plus its pending payment when
// pay is not nil. planLimit caps non-cancelled bookings in the month
// of the booking's start; nil means unlimited. On conflict nothing is
// written and ErrSlotConflict is returned.
func (r *Repository) Create(ctx context.Context, b *Booking, pay *payments.Payment, planLimit *int) error {
	// A serialization failure means a concurrent admission raced us;
	// one retry gives the loser a clean verdict instead of a 500.
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		err = r.createOnce(ctx, b, pay, planLimit)
		if !isSerializationFailure(err) {
			return err
		}
	}
	return err
}

func (r *Repository) createOnce(ctx context.Context, b *Booking, pay *payments.Payment, planLimit *int) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("bookings: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var taken bool
	if err := tx.QueryRow(ctx, overlapQuery, b.ProfessionalID, b.StartAt, b.EndAt).Scan(&taken); err != nil {
		return fmt.Errorf("bookings: overlap check: %w", err)
	}
	if taken {
		return ErrSlotConflict
	}

	if planLimit != nil {
		var count int
		if err := tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM bookings
			WHERE professional_id = $1
			  AND status <> 'cancelled'
			  AND date_trunc('month', start_at) = date_trunc('month', $2::timestamptz)
		`, b.ProfessionalID, b.StartAt).Scan(&count); err != nil {
			return fmt.Errorf("bookings: plan limit count: %w", err)
		}
		if count >= *planLimit {
			return ErrPlanLimitReached
		}
	}

	if err := tx.QueryRow(ctx, `
		INSERT INTO bookings (id, professional_id, service_id, client_name, client_email, client_phone,
			start_at, end_at, price_cents, notes, status, booking_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING created_at
	`,
		b.ID,
		b.ProfessionalID,
		b.ServiceID,
		b.ClientName,
		b.ClientEmail,
		b.ClientPhone,
		b.StartAt,
		b.EndAt,
		b.PriceCents,
		b.Notes,
		b.Status,
		b.BookingType,
	).Scan(&b.CreatedAt); err != nil {
		return mapInsertError(err)
	}

	if pay != nil {
		pay.BookingID = b.ID
		if err := tx.QueryRow(ctx, `
			INSERT INTO payments (id, booking_id, method, amount_cents, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING created_at, updated_at
		`,
			pay.ID,
			pay.BookingID,
			pay.Method,
			pay.AmountCents,
			pay.Status,
		).Scan(&pay.CreatedAt, &pay.UpdatedAt); err != nil {
			return fmt.Errorf("bookings: insert payment: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return mapInsertError(err)
	}
	return nil
}

// GetByID fetches a booking by id regardless of owner. The notification
// dispatcher uses it; HTTP paths go through GetForProfessional.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return scanBooking(r.db.QueryRow(ctx, query, id))
}

// GetForProfessional fetches a booking scoped to its owner.
func (r *Repository) GetForProfessional(ctx context.Context, professionalID, id uuid.UUID) (*Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1 AND professional_id = $2`
	return scanBooking(r.db.QueryRow(ctx, query, id, professionalID))
}

// ListByProfessional returns the professional's bookings, newest first,
// narrowed by the optional filter fields.
func (r *Repository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, filter ListFilter) ([]*Booking, error) {
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE professional_id = $1
		  AND ($2::timestamptz IS NULL OR start_at >= $2)
		  AND ($3::timestamptz IS NULL OR start_at < $3)
		  AND ($4::text = '' OR status = $4)
		ORDER BY start_at DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := r.db.Query(ctx, query,
		professionalID,
		filter.From,
		filter.To,
		string(filter.Status),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("bookings: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("bookings: rows failed: %w", err)
	}
	return out, nil
}

// SetStatus transitions a booking owned by the professional.
func (r *Repository) SetStatus(ctx context.Context, professionalID, id uuid.UUID, status Status) (*Booking, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	query := `
		UPDATE bookings SET status = $1
		WHERE id = $2 AND professional_id = $3
		RETURNING ` + bookingColumns
	return scanBooking(r.db.QueryRow(ctx, query, status, id, professionalID))
}

// AppendNote adds a line to the booking's free-text notes.
func (r *Repository) AppendNote(ctx context.Context, id uuid.UUID, note string) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE bookings
		SET notes = CASE WHEN notes = '' THEN $1 ELSE notes || E'\n' || $1 END
		WHERE id = $2
	`, note, id)
	if err != nil {
		return fmt.Errorf("bookings: append note: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrBookingNotFound
	}
	return nil
}

func scanBooking(row pgx.Row) (*Booking, error) {
	var b Booking
	if err := row.Scan(
		&b.ID,
		&b.ProfessionalID,
		&b.ServiceID,
		&b.ClientName,
		&b.ClientEmail,
		&b.ClientPhone,
		&b.StartAt,
		&b.EndAt,
		&b.PriceCents,
		&b.Notes,
		&b.Status,
		&b.BookingType,
		&b.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("bookings: select failed: %w", err)
	}
	return &b, nil
}

// mapInsertError translates the exclusion constraint violation raised
// by bookings_no_overlap into ErrSlotConflict.
func mapInsertError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23P01" {
		return ErrSlotConflict
	}
	return fmt.Errorf("bookings: insert failed: %w", err)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "40001"
}
