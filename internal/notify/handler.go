package notify

import (
	"encoding/json"
	"net/http"

	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

// Handler exposes the manual test trigger for the automation endpoint.
type Handler struct {
	dispatcher *Dispatcher
	logger     *logging.Logger
}

func NewHandler(dispatcher *Dispatcher, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{dispatcher: dispatcher, logger: logger}
}

type testResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Upstream struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	} `json:"upstream"`
}

// SendTest handles POST /webhooks/test. It fires a synthetic payload and
// echoes the upstream status and body so the endpoint can be verified
// without creating a real booking.
func (h *Handler) SendTest(w http.ResponseWriter, r *http.Request) {
	status, body, err := h.dispatcher.SendTest(r.Context())
	if err != nil {
		h.logger.Error("test dispatch failed", "error", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	resp := testResponse{Success: true, Message: "test payload delivered"}
	resp.Upstream.Status = status
	resp.Upstream.Body = body

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
