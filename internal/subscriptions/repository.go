package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ilgner17/reservo-scheduler/internal/profiles"
)

type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository persists subscriptions in Postgres.
type Repository struct {
	db db
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	if pool == nil {
		panic("subscriptions: pgx pool required")
	}
	return &Repository{db: pool}
}

// NewRepositoryWithDB injects an arbitrary querier, used by tests.
func NewRepositoryWithDB(db db) *Repository {
	if db == nil {
		panic("subscriptions: db required")
	}
	return &Repository{db: db}
}

const subscriptionColumns = `id, user_id, plan_id, provider_subscription_id, start_at, ends_at, status, updated_at`

// Upsert creates or replaces the subscription keyed by the provider
// subscription id. Redelivered checkout events land on the conflict arm,
// so exactly one row exists per provider id.
func (r *Repository) Upsert(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	query := `
		INSERT INTO subscriptions (id, user_id, plan_id, provider_subscription_id, start_at, ends_at, status, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (provider_subscription_id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			plan_id = EXCLUDED.plan_id,
			start_at = EXCLUDED.start_at,
			ends_at = EXCLUDED.ends_at,
			status = EXCLUDED.status,
			updated_at = now()
		RETURNING ` + subscriptionColumns
	row := r.db.QueryRow(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.ProviderSubscriptionID,
		sub.StartAt, sub.EndsAt, sub.Status,
	)
	return scanSubscription(row)
}

// SetStatus updates only the lifecycle state.
func (r *Repository) SetStatus(ctx context.Context, providerSubID string, status Status) (*Subscription, error) {
	query := `
		UPDATE subscriptions SET status = $2, updated_at = now()
		WHERE provider_subscription_id = $1
		RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, providerSubID, status))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// Renew reactivates the subscription and pushes its validity window out to
// endsAt.
func (r *Repository) Renew(ctx context.Context, providerSubID string, endsAt time.Time) (*Subscription, error) {
	query := `
		UPDATE subscriptions SET status = $2, ends_at = $3, updated_at = now()
		WHERE provider_subscription_id = $1
		RETURNING ` + subscriptionColumns
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, providerSubID, StatusActive, endsAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// GetForUser returns the most recently updated subscription of a user.
func (r *Repository) GetForUser(ctx context.Context, userID uuid.UUID) (*Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + ` FROM subscriptions
		WHERE user_id = $1
		ORDER BY updated_at DESC
		LIMIT 1`
	sub, err := scanSubscription(r.db.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

func scanSubscription(row pgx.Row) (*Subscription, error) {
	var sub Subscription
	var plan string
	var status string
	err := row.Scan(
		&sub.ID, &sub.UserID, &plan, &sub.ProviderSubscriptionID,
		&sub.StartAt, &sub.EndsAt, &status, &sub.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("subscriptions: scan row: %w", err)
	}
	sub.PlanID = profiles.Plan(plan)
	sub.Status = Status(status)
	return &sub, nil
}
