package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists the service catalog.
type Repository struct {
	db db
}

// NewRepository creates a repository backed by pgx pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("services: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock connection for tests.
func NewRepositoryWithDB(conn db) *Repository {
	return &Repository{db: conn}
}

// Create inserts a new service row.
func (r *Repository) Create(ctx context.Context, professionalID uuid.UUID, req *CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO services (id, professional_id, name, duration_minutes, price_cents, is_active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	var createdAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		professionalID,
		req.Name,
		req.DurationMinutes,
		req.PriceCents,
		req.Active(),
	).Scan(&createdAt); err != nil {
		return nil, fmt.Errorf("services: insert failed: %w", err)
	}

	return &Service{
		ID:              id,
		ProfessionalID:  professionalID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		IsActive:        req.Active(),
		CreatedAt:       createdAt,
	}, nil
}

// GetForProfessional fetches a service scoped to its owner.
func (r *Repository) GetForProfessional(ctx context.Context, professionalID, id uuid.UUID) (*Service, error) {
	query := `
		SELECT id, professional_id, name, duration_minutes, price_cents, is_active, created_at
		FROM services
		WHERE id = $1 AND professional_id = $2
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id, professionalID))
}

// GetActive fetches an active service by id regardless of owner. Used by
// the public booking flow, which knows the professional only via slug.
func (r *Repository) GetActive(ctx context.Context, id uuid.UUID) (*Service, error) {
	query := `
		SELECT id, professional_id, name, duration_minutes, price_cents, is_active, created_at
		FROM services
		WHERE id = $1 AND is_active
	`
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

// ListByProfessional returns the professional's catalog. When activeOnly
// is set, inactive services are filtered out.
func (r *Repository) ListByProfessional(ctx context.Context, professionalID uuid.UUID, activeOnly bool) ([]*Service, error) {
	query := `
		SELECT id, professional_id, name, duration_minutes, price_cents, is_active, created_at
		FROM services
		WHERE professional_id = $1 AND ($2 = FALSE OR is_active)
		ORDER BY created_at
	`
	rows, err := r.db.Query(ctx, query, professionalID, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("services: list failed: %w", err)
	}
	defer rows.Close()

	var out []*Service
	for rows.Next() {
		var svc Service
		if err := rows.Scan(
			&svc.ID,
			&svc.ProfessionalID,
			&svc.Name,
			&svc.DurationMinutes,
			&svc.PriceCents,
			&svc.IsActive,
			&svc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("services: scan failed: %w", err)
		}
		out = append(out, &svc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("services: rows failed: %w", err)
	}
	return out, nil
}

// Update replaces the mutable fields of a service owned by the professional.
func (r *Repository) Update(ctx context.Context, professionalID, id uuid.UUID, req *CreateServiceRequest) (*Service, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE services
		SET name = $1, duration_minutes = $2, price_cents = $3, is_active = $4
		WHERE id = $5 AND professional_id = $6
		RETURNING id, professional_id, name, duration_minutes, price_cents, is_active, created_at
	`
	return r.scanOne(r.db.QueryRow(ctx, query,
		req.Name,
		req.DurationMinutes,
		req.PriceCents,
		req.Active(),
		id,
		professionalID,
	))
}

// Delete removes a service owned by the professional.
func (r *Repository) Delete(ctx context.Context, professionalID, id uuid.UUID) error {
	ct, err := r.db.Exec(ctx, `DELETE FROM services WHERE id = $1 AND professional_id = $2`, id, professionalID)
	if err != nil {
		return fmt.Errorf("services: delete failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrServiceNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*Service, error) {
	var svc Service
	if err := row.Scan(
		&svc.ID,
		&svc.ProfessionalID,
		&svc.Name,
		&svc.DurationMinutes,
		&svc.PriceCents,
		&svc.IsActive,
		&svc.CreatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrServiceNotFound
		}
		return nil, fmt.Errorf("services: select failed: %w", err)
	}
	return &svc, nil
}
