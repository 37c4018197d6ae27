package subscriptions

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilgner17/reservo-scheduler/internal/profiles"
)

func subRows(sub *Subscription) *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "user_id", "plan_id", "provider_subscription_id",
		"start_at", "ends_at", "status", "updated_at",
	}).AddRow(
		sub.ID, sub.UserID, string(sub.PlanID), sub.ProviderSubscriptionID,
		sub.StartAt, sub.EndsAt, string(sub.Status), sub.UpdatedAt,
	)
}

func TestUpsertGeneratesID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	now := time.Now().UTC()
	sub := &Subscription{
		UserID:                 uuid.New(),
		PlanID:                 profiles.PlanPremium,
		ProviderSubscriptionID: "sub_1",
		StartAt:                now,
		EndsAt:                 now.Add(30 * 24 * time.Hour),
		Status:                 StatusActive,
	}

	mock.ExpectQuery(`INSERT INTO subscriptions`).
		WithArgs(pgxmock.AnyArg(), sub.UserID, profiles.PlanPremium, "sub_1", sub.StartAt, sub.EndsAt, StatusActive).
		WillReturnRows(subRows(&Subscription{
			ID: uuid.New(), UserID: sub.UserID, PlanID: sub.PlanID,
			ProviderSubscriptionID: "sub_1", StartAt: now, EndsAt: sub.EndsAt,
			Status: StatusActive, UpdatedAt: now,
		}))

	got, err := repo.Upsert(context.Background(), sub)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.ID)
	assert.Equal(t, profiles.PlanPremium, got.PlanID)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUserReturnsLatest(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM subscriptions\s+WHERE user_id`).
		WithArgs(userID).
		WillReturnRows(subRows(&Subscription{
			ID: uuid.New(), UserID: userID, PlanID: profiles.PlanProfessional,
			ProviderSubscriptionID: "sub_1", StartAt: now, EndsAt: now.Add(30 * 24 * time.Hour),
			Status: StatusActive, UpdatedAt: now,
		}))

	got, err := repo.GetForUser(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, profiles.PlanProfessional, got.PlanID)
	assert.Equal(t, StatusActive, got.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetForUserNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewRepositoryWithDB(mock)
	userID := uuid.New()

	mock.ExpectQuery(`SELECT .+ FROM subscriptions\s+WHERE user_id`).
		WithArgs(userID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "plan_id", "provider_subscription_id",
			"start_at", "ends_at", "status", "updated_at",
		}))

	_, err = repo.GetForUser(context.Background(), userID)
	assert.ErrorIs(t, err, ErrSubscriptionNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
