package bookings

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilgner17/reservo-scheduler/internal/auth"
)

type stubLister struct {
	bookings  []*Booking
	statusErr error
}

func (s *stubLister) ListByProfessional(_ context.Context, _ uuid.UUID, _ ListFilter) ([]*Booking, error) {
	return s.bookings, nil
}

func (s *stubLister) GetForProfessional(_ context.Context, _, id uuid.UUID) (*Booking, error) {
	for _, b := range s.bookings {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, ErrBookingNotFound
}

func (s *stubLister) SetStatus(_ context.Context, _, id uuid.UUID, status Status) (*Booking, error) {
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	b, err := s.GetForProfessional(context.Background(), uuid.Nil, id)
	if err != nil {
		return nil, err
	}
	b.Status = status
	return b, nil
}

func publicRequest(slug, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/public/"+slug+"/bookings", strings.NewReader(body))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("slug", slug)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func publicBody(t *testing.T, svcID uuid.UUID) string {
	t.Helper()
	body, err := json.Marshal(validRequest(svcID))
	require.NoError(t, err)
	return string(body)
}

func TestCreatePublicHandler(t *testing.T) {
	profile, svc := fixtures()
	store := &stubStore{}
	service := NewService(store, &stubProfileStore{profile: profile}, &stubCatalog{service: svc}, nil, nil, nil)
	h := NewHandler(service, &stubLister{}, nil)

	rec := httptest.NewRecorder()
	h.CreatePublic(rec, publicRequest("dr-teste", publicBody(t, svc.ID)))

	require.Equal(t, http.StatusCreated, rec.Code)

	var booking Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &booking))
	assert.Equal(t, StatusPending, booking.Status)
}

func TestCreatePublicHandlerStatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		createErr  error
		wantStatus int
	}{
		{"slot conflict", ErrSlotConflict, http.StatusConflict},
		{"plan limit", ErrPlanLimitReached, http.StatusUnprocessableEntity},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			profile, svc := fixtures()
			store := &stubStore{createErr: tc.createErr}
			service := NewService(store, &stubProfileStore{profile: profile}, &stubCatalog{service: svc}, nil, nil, nil)
			h := NewHandler(service, &stubLister{}, nil)

			rec := httptest.NewRecorder()
			h.CreatePublic(rec, publicRequest("dr-teste", publicBody(t, svc.ID)))
			assert.Equal(t, tc.wantStatus, rec.Code)
		})
	}
}

func TestCreatePublicHandlerValidation(t *testing.T) {
	profile, svc := fixtures()
	service := NewService(&stubStore{}, &stubProfileStore{profile: profile}, &stubCatalog{service: svc}, nil, nil, nil)
	h := NewHandler(service, &stubLister{}, nil)

	req := validRequest(svc.ID)
	req.ClientName = ""
	body, err := json.Marshal(req)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.CreatePublic(rec, publicRequest("dr-teste", string(body)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreatePublicHandlerUnknownSlug(t *testing.T) {
	_, svc := fixtures()
	service := NewService(&stubStore{}, &stubProfileStore{}, &stubCatalog{service: svc}, nil, nil, nil)
	h := NewHandler(service, &stubLister{}, nil)

	rec := httptest.NewRecorder()
	h.CreatePublic(rec, publicRequest("ghost", publicBody(t, svc.ID)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListHandlerParsesFilters(t *testing.T) {
	lister := &stubLister{bookings: []*Booking{{ID: uuid.New(), Status: StatusConfirmed}}}
	h := NewHandler(nil, lister, nil)

	req := httptest.NewRequest(http.MethodGet,
		"/api/bookings?from=2026-09-01T00:00:00Z&to=2026-10-01T00:00:00Z&status=confirmed", nil)
	req = req.WithContext(auth.WithUserID(req.Context(), uuid.New()))

	rec := httptest.NewRecorder()
	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestListHandlerRejectsBadFilters(t *testing.T) {
	h := NewHandler(nil, &stubLister{}, nil)

	for _, target := range []string{
		"/api/bookings?from=yesterday",
		"/api/bookings?status=teleported",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req = req.WithContext(auth.WithUserID(req.Context(), uuid.New()))
		rec := httptest.NewRecorder()
		h.List(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target %s", target)
	}
}

func TestUpdateStatusHandler(t *testing.T) {
	booking := &Booking{ID: uuid.New(), Status: StatusPending, StartAt: time.Now()}
	lister := &stubLister{bookings: []*Booking{booking}}
	h := NewHandler(nil, lister, nil)

	req := httptest.NewRequest(http.MethodPatch,
		"/api/bookings/"+booking.ID.String()+"/status", strings.NewReader(`{"status":"cancelled"}`))
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("bookingID", booking.ID.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	req = req.WithContext(auth.WithUserID(req.Context(), uuid.New()))

	rec := httptest.NewRecorder()
	h.UpdateStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusCancelled, booking.Status)
}

func TestHandlerRequiresAuth(t *testing.T) {
	h := NewHandler(nil, &stubLister{}, nil)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/bookings", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/bookings", strings.NewReader("{}")))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
