package subscriptions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/ilgner17/reservo-scheduler/internal/auth"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

// Reader is the dashboard's read surface on subscriptions.
type Reader interface {
	GetForUser(ctx context.Context, userID uuid.UUID) (*Subscription, error)
}

// Handler serves the professional's own subscription state.
type Handler struct {
	reader Reader
	logger *logging.Logger
}

func NewHandler(reader Reader, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{reader: reader, logger: logger}
}

// GetMe handles GET /api/subscriptions/me. Professionals who never paid
// have no subscription row and get a 404.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	sub, err := h.reader.GetForUser(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrSubscriptionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("failed to load subscription", "error", err, "user_id", userID)
		http.Error(w, "server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(sub)
}
