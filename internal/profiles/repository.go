package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const profileColumns = `id, user_id, email, name, profession, bio, phone, pix_key, slug, plan, plan_limit, created_at, updated_at`

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores professional profiles in the relational database.
type Repository struct {
	db db
}

// NewRepository initializes a repo backed by pgxpool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("profiles: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB allows injecting a mock connection for tests.
func NewRepositoryWithDB(conn db) *Repository {
	return &Repository{db: conn}
}

// Create inserts a profile at signup on the free tier.
func (r *Repository) Create(ctx context.Context, userID uuid.UUID, req *CreateProfileRequest, freeLimit int) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	id := uuid.New()
	query := `
		INSERT INTO profiles (id, user_id, email, name, profession, slug, plan, plan_limit)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`
	var createdAt, updatedAt time.Time
	if err := r.db.QueryRow(ctx, query,
		id,
		userID,
		strings.ToLower(strings.TrimSpace(req.Email)),
		req.Name,
		req.Profession,
		req.Slug,
		PlanFree,
		freeLimit,
	).Scan(&createdAt, &updatedAt); err != nil {
		return nil, mapUniqueViolation(err, "profiles: insert failed")
	}

	limit := freeLimit
	return &Profile{
		ID:         id,
		UserID:     userID,
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Name:       req.Name,
		Profession: req.Profession,
		Slug:       req.Slug,
		Plan:       PlanFree,
		PlanLimit:  &limit,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

// GetByUserID fetches the profile owned by the given account.
func (r *Repository) GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE user_id = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, userID))
}

// GetBySlug fetches a profile by its public URL slug.
func (r *Repository) GetBySlug(ctx context.Context, slug string) (*Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE slug = $1`
	return r.scanOne(r.db.QueryRow(ctx, query, slug))
}

// FindUserIDByEmail resolves an account by billing email. The email
// column carries a unique index, so this is a keyed lookup rather than
// a scan over all accounts.
func (r *Repository) FindUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error) {
	var userID uuid.UUID
	query := `SELECT user_id FROM profiles WHERE email = $1`
	if err := r.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))).Scan(&userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrProfileNotFound
		}
		return uuid.Nil, fmt.Errorf("profiles: lookup by email failed: %w", err)
	}
	return userID, nil
}

// UpdateSettings replaces the professional-editable fields.
func (r *Repository) UpdateSettings(ctx context.Context, userID uuid.UUID, req *UpdateSettingsRequest) (*Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	query := `
		UPDATE profiles
		SET name = $1, profession = $2, bio = $3, phone = $4, pix_key = $5, slug = $6, updated_at = now()
		WHERE user_id = $7
		RETURNING ` + profileColumns
	profile, err := r.scanOne(r.db.QueryRow(ctx, query,
		req.Name,
		req.Profession,
		req.Bio,
		req.Phone,
		req.PixKey,
		req.Slug,
		userID,
	))
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			return nil, err
		}
		return nil, mapUniqueViolation(err, "profiles: update settings failed")
	}
	return profile, nil
}

// UpdatePlan sets the plan tier and booking limit. A nil limit means
// unlimited. Only the subscription reconciler calls this.
func (r *Repository) UpdatePlan(ctx context.Context, userID uuid.UUID, plan Plan, limit *int) error {
	ct, err := r.db.Exec(ctx, `
		UPDATE profiles SET plan = $1, plan_limit = $2, updated_at = now() WHERE user_id = $3
	`, plan, limit, userID)
	if err != nil {
		return fmt.Errorf("profiles: update plan failed: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrProfileNotFound
	}
	return nil
}

func (r *Repository) scanOne(row pgx.Row) (*Profile, error) {
	var p Profile
	if err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Email,
		&p.Name,
		&p.Profession,
		&p.Bio,
		&p.Phone,
		&p.PixKey,
		&p.Slug,
		&p.Plan,
		&p.PlanLimit,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("profiles: select failed: %w", err)
	}
	return &p, nil
}

// mapUniqueViolation translates 23505 errors on the slug and email
// indexes into domain sentinels.
func mapUniqueViolation(err error, msg string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		switch {
		case strings.Contains(pgErr.ConstraintName, "slug"):
			return ErrSlugTaken
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailTaken
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
