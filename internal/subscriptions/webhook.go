package subscriptions

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ilgner17/reservo-scheduler/internal/observability/metrics"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

const webhookProvider = "billing"

// signatureTolerance bounds how stale a signed timestamp may be.
const signatureTolerance = 5 * time.Minute

type processedTracker interface {
	Seen(ctx context.Context, provider, eventID string) (bool, error)
	Mark(ctx context.Context, provider, eventID string) (bool, error)
}

// WebhookHandler receives billing provider events, verifies their
// signature and hands them to the reconciler.
type WebhookHandler struct {
	secret     string
	reconciler *Reconciler
	processed  processedTracker
	metrics    *metrics.BillingMetrics
	logger     *logging.Logger
	now        func() time.Time
}

func NewWebhookHandler(
	secret string,
	reconciler *Reconciler,
	processed processedTracker,
	billingMetrics *metrics.BillingMetrics,
	logger *logging.Logger,
) *WebhookHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		secret:     secret,
		reconciler: reconciler,
		processed:  processed,
		metrics:    billingMetrics,
		logger:     logger,
		now:        time.Now,
	}
}

// webhookEvent is the provider's signed event envelope.
type webhookEvent struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

// Handle processes POST /webhooks/billing.
func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	started := h.now()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	if !h.verifySignature(payload, r.Header.Get("Billing-Signature")) {
		h.logger.Warn("billing webhook signature rejected")
		http.Error(w, "invalid signature", http.StatusBadRequest)
		return
	}

	var evt webhookEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		h.logger.Error("failed to decode billing event", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	if evt.ID == "" || evt.Type == "" {
		http.Error(w, "missing event id or type", http.StatusBadRequest)
		return
	}

	result, status := h.process(r.Context(), &evt)
	h.metrics.ObserveEvent(evt.Type, result)
	h.metrics.ObserveEventDuration(evt.Type, h.now().Sub(started).Seconds())

	if status >= 400 {
		http.Error(w, result, status)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]bool{"received": true})
}

// process dispatches one event and reports a metric result plus HTTP
// status. Unknown event types are acknowledged so the provider never
// enters a retry storm over types we do not consume.
func (h *WebhookHandler) process(ctx context.Context, evt *webhookEvent) (string, int) {
	switch evt.Type {
	case EventCheckoutCompleted, EventInvoiceSucceeded, EventInvoiceFailed, EventSubscriptionDeleted:
	default:
		h.logger.Info("ignoring unhandled billing event", "event_type", evt.Type, "event_id", evt.ID)
		return "ignored", http.StatusOK
	}

	seen, err := h.processed.Seen(ctx, webhookProvider, evt.ID)
	if err != nil {
		h.logger.Error("processed lookup failed", "error", err, "event_id", evt.ID)
		return "error", http.StatusInternalServerError
	}
	if seen {
		h.logger.Info("duplicate billing event", "event_id", evt.ID, "event_type", evt.Type)
		return "duplicate", http.StatusOK
	}

	if err := h.apply(ctx, evt); err != nil {
		if errors.Is(err, ErrUnresolvedAccount) {
			// Not acknowledged: the provider retries after the account is
			// fixed up manually.
			h.logger.Warn("billing event unresolved", "event_id", evt.ID, "error", err)
			return "unresolved", http.StatusUnprocessableEntity
		}
		if errors.Is(err, ErrSubscriptionNotFound) {
			h.logger.Warn("billing event for unknown subscription", "event_id", evt.ID, "error", err)
			return "unknown_subscription", http.StatusUnprocessableEntity
		}
		h.logger.Error("billing event failed", "event_id", evt.ID, "event_type", evt.Type, "error", err)
		return "error", http.StatusInternalServerError
	}

	if _, err := h.processed.Mark(ctx, webhookProvider, evt.ID); err != nil {
		// The event already applied; a redelivery is idempotent anyway.
		h.logger.Error("failed to record processed event", "error", err, "event_id", evt.ID)
	}
	return "processed", http.StatusOK
}

func (h *WebhookHandler) apply(ctx context.Context, evt *webhookEvent) error {
	switch evt.Type {
	case EventCheckoutCompleted:
		var session CheckoutSession
		if err := json.Unmarshal(evt.Data.Object, &session); err != nil {
			return fmt.Errorf("subscriptions: decode checkout session: %w", err)
		}
		return h.reconciler.HandleCheckoutCompleted(ctx, &session)
	case EventInvoiceSucceeded:
		var invoice Invoice
		if err := json.Unmarshal(evt.Data.Object, &invoice); err != nil {
			return fmt.Errorf("subscriptions: decode invoice: %w", err)
		}
		return h.reconciler.HandleInvoiceSucceeded(ctx, &invoice)
	case EventInvoiceFailed:
		var invoice Invoice
		if err := json.Unmarshal(evt.Data.Object, &invoice); err != nil {
			return fmt.Errorf("subscriptions: decode invoice: %w", err)
		}
		return h.reconciler.HandleInvoiceFailed(ctx, &invoice)
	case EventSubscriptionDeleted:
		var sub ProviderSubscription
		if err := json.Unmarshal(evt.Data.Object, &sub); err != nil {
			return fmt.Errorf("subscriptions: decode subscription: %w", err)
		}
		return h.reconciler.HandleSubscriptionDeleted(ctx, &sub)
	}
	return nil
}

// verifySignature checks the HMAC-SHA256 signature header of the form
// t=<unix>,v1=<hex>[,v1=<hex>]. An empty secret bypasses verification for
// local development.
func (h *WebhookHandler) verifySignature(payload []byte, header string) bool {
	if h.secret == "" {
		return true
	}
	if header == "" {
		return false
	}

	var timestamp string
	var signatures []string
	for _, part := range strings.Split(header, ",") {
		kv := strings.SplitN(part, "=", 2)
		if len(kv) != 2 {
			continue
		}
		switch kv[0] {
		case "t":
			timestamp = kv[1]
		case "v1":
			signatures = append(signatures, kv[1])
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return false
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return false
	}
	if drift := h.now().Unix() - ts; drift > int64(signatureTolerance.Seconds()) || drift < -int64(signatureTolerance.Seconds()) {
		return false
	}

	mac := hmac.New(sha256.New, []byte(h.secret))
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range signatures {
		if hmac.Equal([]byte(sig), []byte(expected)) {
			return true
		}
	}
	return false
}
