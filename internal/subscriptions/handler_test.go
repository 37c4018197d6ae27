package subscriptions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilgner17/reservo-scheduler/internal/auth"
	"github.com/ilgner17/reservo-scheduler/internal/profiles"
)

type stubReader struct {
	sub *Subscription
}

func (s *stubReader) GetForUser(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	if s.sub == nil || s.sub.UserID != userID {
		return nil, ErrSubscriptionNotFound
	}
	return s.sub, nil
}

func TestGetMeReturnsSubscription(t *testing.T) {
	userID := uuid.New()
	now := time.Now().UTC()
	h := NewHandler(&stubReader{sub: &Subscription{
		ID: uuid.New(), UserID: userID, PlanID: profiles.PlanPremium,
		ProviderSubscriptionID: "sub_1", StartAt: now, EndsAt: now.Add(30 * 24 * time.Hour),
		Status: StatusActive, UpdatedAt: now,
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got Subscription
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, profiles.PlanPremium, got.PlanID)
	assert.Equal(t, StatusActive, got.Status)
}

func TestGetMeWithoutSubscription(t *testing.T) {
	h := NewHandler(&stubReader{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/subscriptions/me", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), uuid.New()))
	rec := httptest.NewRecorder()
	h.GetMe(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetMeRequiresAuth(t *testing.T) {
	h := NewHandler(&stubReader{}, nil)

	rec := httptest.NewRecorder()
	h.GetMe(rec, httptest.NewRequest(http.MethodGet, "/api/subscriptions/me", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
