package payments

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ilgner17/reservo-scheduler/internal/auth"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

// Store is the payment persistence surface the handler needs.
type Store interface {
	GetForProfessional(ctx context.Context, professionalID, id uuid.UUID) (*Payment, error)
	SetStatus(ctx context.Context, professionalID, id uuid.UUID, status Status) (*Payment, error)
}

// Handler handles HTTP requests for payment records.
type Handler struct {
	store  Store
	logger *logging.Logger
}

// NewHandler creates a new payments handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger}
}

type updateStatusRequest struct {
	Status Status `json:"status"`
}

// Get handles GET /api/payments/{paymentID}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)
		return
	}

	pay, err := h.store.GetForProfessional(r.Context(), userID, id)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load payment", "error", err, "payment_id", id)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, pay)
}

// UpdateStatus handles PATCH /api/payments/{paymentID}/status.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "paymentID"))
	if err != nil {
		http.Error(w, "invalid payment id", http.StatusBadRequest)
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	pay, err := h.store.SetStatus(r.Context(), userID, id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrPaymentNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrInvalidStatus):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update payment", "error", err, "payment_id", id)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("payment status updated", "payment_id", pay.ID, "status", pay.Status)
	writeJSON(w, http.StatusOK, pay)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
