package services

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

// PageInvalidator drops the owner's cached public page after a catalog
// write so the booking page never serves a stale service list.
type PageInvalidator interface {
	InvalidateForUser(ctx context.Context, userID uuid.UUID) error
}

// Handler handles HTTP requests for the service catalog.
type Handler struct {
	repo   *Repository
	pages  PageInvalidator
	logger *logging.Logger
}

// NewHandler creates a new services handler. pages may be nil when no
// cache is configured.
func NewHandler(repo *Repository, pages PageInvalidator, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{repo: repo, pages: pages, logger: logger}
}

// invalidatePage is best effort. A stale page expires with the TTL
// anyway, so failures are only logged.
func (h *Handler) invalidatePage(ctx context.Context, userID uuid.UUID) {
	if h.pages == nil {
		return
	}
	if err := h.pages.InvalidateForUser(ctx, userID); err != nil {
		h.logger.Warn("page cache invalidation failed", "error", err, "user_id", userID)
	}
}

// List handles GET /api/services.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	list, err := h.repo.ListByProfessional(r.Context(), userID, false)
	if err != nil {
		h.logger.Error("failed to list services", "error", err, "user_id", userID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"services": list, "count": len(list)})
}

// Create handles POST /api/services.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	svc, err := h.repo.Create(r.Context(), userID, &req)
	if err != nil {
		if isValidation(err) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("failed to create service", "error", err, "user_id", userID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.invalidatePage(r.Context(), userID)
	h.logger.Info("service created", "id", svc.ID, "user_id", userID, "name", svc.Name)
	writeJSON(w, http.StatusCreated, svc)
}

// Update handles PUT /api/services/{serviceID}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	var req CreateServiceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	svc, err := h.repo.Update(r.Context(), userID, id, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrServiceNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case isValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update service", "error", err, "service_id", id)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	h.invalidatePage(r.Context(), userID)
	writeJSON(w, http.StatusOK, svc)
}

// Delete handles DELETE /api/services/{serviceID}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "serviceID"))
	if err != nil {
		http.Error(w, "invalid service id", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), userID, id); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to delete service", "error", err, "service_id", id)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	h.invalidatePage(r.Context(), userID)
	w.WriteHeader(http.StatusNoContent)
}

func isValidation(err error) bool {
	return errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidDuration) ||
		errors.Is(err, ErrInvalidPrice)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
