package profiles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ilgner17/reservo-scheduler/internal/auth"
	"github.com/ilgner17/reservo-scheduler/internal/services"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

// Store is the profile persistence surface the handler needs.
type Store interface {
	Create(ctx context.Context, userID uuid.UUID, req *CreateProfileRequest, freeLimit int) (*Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	GetBySlug(ctx context.Context, slug string) (*Profile, error)
	UpdateSettings(ctx context.Context, userID uuid.UUID, req *UpdateSettingsRequest) (*Profile, error)
}

// CatalogLister lists a professional's services for the public page.
type CatalogLister interface {
	ListByProfessional(ctx context.Context, professionalID uuid.UUID, activeOnly bool) ([]*services.Service, error)
}

// Handler handles HTTP requests for profiles and the public page.
type Handler struct {
	store     Store
	catalog   CatalogLister
	cache     *PageCache
	freeLimit int
	logger    *logging.Logger
}

// NewHandler creates a new profiles handler.
func NewHandler(store Store, catalog CatalogLister, cache *PageCache, freeLimit int, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		store:     store,
		catalog:   catalog,
		cache:     cache,
		freeLimit: freeLimit,
		logger:    logger,
	}
}

// Create handles POST /api/profiles (called once after signup).
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req CreateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := h.store.Create(r.Context(), userID, &req, h.freeLimit)
	if err != nil {
		switch {
		case errors.Is(err, ErrSlugTaken), errors.Is(err, ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case isValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to create profile", "error", err, "user_id", userID)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	h.logger.Info("profile created", "user_id", userID, "slug", profile.Slug)
	writeJSON(w, http.StatusCreated, profile)
}

// GetMe handles GET /api/profiles/me.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	profile, err := h.store.GetByUserID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load profile", "error", err, "user_id", userID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UpdateMe handles PUT /api/profiles/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// Remember the current slug so a rename also drops the old cache key.
	var oldSlug string
	if current, err := h.store.GetByUserID(r.Context(), userID); err == nil {
		oldSlug = current.Slug
	}

	profile, err := h.store.UpdateSettings(r.Context(), userID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrProfileNotFound):
			http.Error(w, err.Error(), http.StatusNotFound)
		case errors.Is(err, ErrSlugTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case isValidation(err):
			http.Error(w, err.Error(), http.StatusBadRequest)
		default:
			h.logger.Error("failed to update profile", "error", err, "user_id", userID)
			http.Error(w, "server error", http.StatusInternalServerError)
		}
		return
	}

	if err := h.cache.Invalidate(r.Context(), profile.Slug); err != nil {
		h.logger.Warn("page cache invalidation failed", "error", err, "slug", profile.Slug)
	}
	if oldSlug != "" && oldSlug != profile.Slug {
		if err := h.cache.Invalidate(r.Context(), oldSlug); err != nil {
			h.logger.Warn("page cache invalidation failed", "error", err, "slug", oldSlug)
		}
	}

	writeJSON(w, http.StatusOK, profile)
}

// PublicPage handles GET /api/public/{slug}: the professional's public
// profile plus active services, served from cache when possible.
func (h *Handler) PublicPage(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if slug == "" {
		http.Error(w, "missing slug", http.StatusBadRequest)
		return
	}

	if page, err := h.cache.Get(r.Context(), slug); err != nil {
		h.logger.Warn("page cache read failed", "error", err, "slug", slug)
	} else if page != nil {
		writeJSON(w, http.StatusOK, page)
		return
	}

	profile, err := h.store.GetBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load public page", "error", err, "slug", slug)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	catalog, err := h.catalog.ListByProfessional(r.Context(), profile.UserID, true)
	if err != nil {
		h.logger.Error("failed to load public catalog", "error", err, "slug", slug)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	page := &PublicPage{Profile: profile.PublicView(), Services: catalog}
	if err := h.cache.Set(r.Context(), slug, page); err != nil {
		h.logger.Warn("page cache write failed", "error", err, "slug", slug)
	}

	writeJSON(w, http.StatusOK, page)
}

func isValidation(err error) bool {
	return errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrInvalidSlug)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
