package subscriptions

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memTracker struct {
	seen map[string]bool
}

func newMemTracker() *memTracker { return &memTracker{seen: map[string]bool{}} }

func (m *memTracker) Seen(_ context.Context, provider, eventID string) (bool, error) {
	return m.seen[provider+":"+eventID], nil
}

func (m *memTracker) Mark(_ context.Context, provider, eventID string) (bool, error) {
	key := provider + ":" + eventID
	if m.seen[key] {
		return false, nil
	}
	m.seen[key] = true
	return true, nil
}

func sign(secret, payload string, at time.Time) string {
	ts := fmt.Sprintf("%d", at.Unix())
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + payload))
	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func newTestHandler(t *testing.T, secret string) (*WebhookHandler, *stubStore, *stubDirectory, *memTracker) {
	t.Helper()
	store := newStubStore()
	dir := &stubDirectory{emails: map[string]uuid.UUID{}}
	rc := NewReconciler(testConfig(), store, dir, nil)
	tracker := newMemTracker()
	return NewWebhookHandler(secret, rc, tracker, nil, nil), store, dir, tracker
}

func deliver(h *WebhookHandler, body, sigHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/webhooks/billing", strings.NewReader(body))
	if sigHeader != "" {
		req.Header.Set("Billing-Signature", sigHeader)
	}
	rec := httptest.NewRecorder()
	h.Handle(rec, req)
	return rec
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	h, _, _, _ := newTestHandler(t, "whsec_test")

	body := `{"id":"evt_1","type":"checkout.session.completed","data":{"object":{}}}`

	rec := deliver(h, body, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = deliver(h, body, "t=123,v1=deadbeef")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookRejectsStaleTimestamp(t *testing.T) {
	h, _, _, _ := newTestHandler(t, "whsec_test")

	body := `{"id":"evt_1","type":"invoice.payment_failed","data":{"object":{"id":"in_1","subscription":"sub_1"}}}`
	stale := time.Now().Add(-10 * time.Minute)

	rec := deliver(h, body, sign("whsec_test", body, stale))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookUnknownEventTypeReturnsOK(t *testing.T) {
	h, store, _, tracker := newTestHandler(t, "whsec_test")

	body := `{"id":"evt_9","type":"charge.refunded","data":{"object":{}}}`
	rec := deliver(h, body, sign("whsec_test", body, time.Now()))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.upserted)
	assert.False(t, tracker.seen["billing:evt_9"], "ignored events are not recorded")
}

func TestWebhookCheckoutFlow(t *testing.T) {
	h, store, dir, _ := newTestHandler(t, "whsec_test")

	userID := uuid.New()
	body := fmt.Sprintf(
		`{"id":"evt_1","type":"checkout.session.completed","data":{"object":{"id":"cs_1","client_reference_id":%q,"subscription":"sub_1","amount_total":3790}}}`,
		userID.String(),
	)

	rec := deliver(h, body, sign("whsec_test", body, time.Now()))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, store.upserted, 1)
	require.Len(t, dir.planUpdates, 1)

	// redelivery is acknowledged without re-applying
	rec = deliver(h, body, sign("whsec_test", body, time.Now()))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.upserted, 1, "duplicate delivery must not apply twice")
}

func TestWebhookUnresolvedAccountNotAcknowledged(t *testing.T) {
	h, store, _, tracker := newTestHandler(t, "whsec_test")

	body := `{"id":"evt_2","type":"checkout.session.completed","data":{"object":{"id":"cs_2","subscription":"sub_2","amount_total":3790,"customer_details":{"email":"ghost@example.com"}}}}`
	rec := deliver(h, body, sign("whsec_test", body, time.Now()))

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, store.upserted)
	assert.False(t, tracker.seen["billing:evt_2"], "unapplied events stay retryable")
}

func TestWebhookMissingEventID(t *testing.T) {
	h, _, _, _ := newTestHandler(t, "")

	rec := deliver(h, `{"type":"invoice.payment_succeeded","data":{"object":{}}}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestWebhookEmptySecretBypassesVerification(t *testing.T) {
	h, store, _, _ := newTestHandler(t, "")
	store.byID["sub_1"] = &Subscription{ProviderSubscriptionID: "sub_1", Status: StatusActive}

	body := `{"id":"evt_3","type":"invoice.payment_failed","data":{"object":{"id":"in_1","subscription":"sub_1"}}}`
	rec := deliver(h, body, "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StatusPastDue, store.statuses["sub_1"])
}
