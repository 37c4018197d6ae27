package bookings

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ilgner17/reservo-scheduler/internal/auth"
	"github.com/ilgner17/reservo-scheduler/internal/payments"
	"github.com/ilgner17/reservo-scheduler/internal/profiles"
	"github.com/ilgner17/reservo-scheduler/internal/services"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

// Lister is the read/update surface the handler needs beyond the service.
type Lister interface {
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, filter ListFilter) ([]*Booking, error)
	GetForProfessional(ctx context.Context, professionalID, id uuid.UUID) (*Booking, error)
	SetStatus(ctx context.Context, professionalID, id uuid.UUID, status Status) (*Booking, error)
}

// Handler handles HTTP requests for bookings.
type Handler struct {
	service *Service
	lister  Lister
	logger  *logging.Logger
}

// NewHandler creates a new bookings handler.
func NewHandler(service *Service, lister Lister, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{service: service, lister: lister, logger: logger}
}

// CreatePublic handles POST /api/public/{slug}/bookings.
func (h *Handler) CreatePublic(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		http.Error(w, "missing slug", http.StatusBadRequest)
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	booking, err := h.service.CreatePublicBooking(r.Context(), slug, &req)
	if err != nil {
		h.writeError(w, err, "public booking failed", "slug", slug)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// Create handles POST /api/bookings (dashboard, auto-confirmed).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	booking, err := h.service.CreateProfessionalBooking(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, err, "dashboard booking failed", "user_id", userID.String())
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// Availability handles GET /api/public/{slug}/availability?start=&end=.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		http.Error(w, "invalid end", http.StatusBadRequest)
		return
	}

	free, err := h.service.CheckAvailability(r.Context(), slug, start, end)
	if err != nil {
		h.writeError(w, err, "availability check failed", "slug", slug)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"available": free})
}

// List handles GET /api/bookings with optional from/to/status filters.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	filter := ListFilter{}
	q := r.URL.Query()
	if raw := q.Get("from"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		filter.From = &t
	}
	if raw := q.Get("to"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		filter.To = &t
	}
	if raw := q.Get("status"); raw != "" {
		status := Status(raw)
		if !status.Valid() {
			http.Error(w, ErrInvalidStatus.Error(), http.StatusBadRequest)
			return
		}
		filter.Status = status
	}

	list, err := h.lister.ListByProfessional(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("failed to list bookings", "error", err, "user_id", userID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"bookings": list, "count": len(list)})
}

// Get handles GET /api/bookings/{bookingID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	booking, err := h.lister.GetForProfessional(r.Context(), userID, id)
	if err != nil {
		h.writeError(w, err, "failed to load booking", "booking_id", id.String())
		return
	}

	writeJSON(w, http.StatusOK, booking)
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

// UpdateStatus handles PATCH /api/bookings/{bookingID}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "bookingID"))
	if err != nil {
		http.Error(w, "invalid booking id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	booking, err := h.lister.SetStatus(r.Context(), userID, id, req.Status)
	if err != nil {
		h.writeError(w, err, "failed to update booking status", "booking_id", id.String())
		return
	}

	h.logger.Info("booking status updated", "booking_id", booking.ID, "status", booking.Status)
	writeJSON(w, http.StatusOK, booking)
}

// writeError maps domain sentinels onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, err error, msg string, logArgs ...string) {
	switch {
	case errors.Is(err, ErrSlotConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, ErrPlanLimitReached):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case IsValidation(err), errors.Is(err, payments.ErrInvalidMethod):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrBookingNotFound),
		errors.Is(err, profiles.ErrProfileNotFound),
		errors.Is(err, services.ErrServiceNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		args := make([]any, 0, len(logArgs)+2)
		args = append(args, "error", err)
		for _, a := range logArgs {
			args = append(args, a)
		}
		h.logger.Error(msg, args...)
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
