package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilgner17/reservo-scheduler/internal/bookings"
	"github.com/ilgner17/reservo-scheduler/internal/profiles"
)

type stubBookings struct {
	booking *bookings.Booking
	notes   []string
	err     error
}

func (s *stubBookings) GetByID(_ context.Context, id uuid.UUID) (*bookings.Booking, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.booking, nil
}

func (s *stubBookings) AppendNote(_ context.Context, _ uuid.UUID, note string) error {
	s.notes = append(s.notes, note)
	return nil
}

type stubProfiles struct {
	profile *profiles.Profile
}

func (s *stubProfiles) GetByUserID(_ context.Context, _ uuid.UUID) (*profiles.Profile, error) {
	return s.profile, nil
}

type stubEmails struct {
	sent []EmailMessage
	err  error
}

func (s *stubEmails) Send(_ context.Context, msg EmailMessage) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

func fixtureBooking(professionalID uuid.UUID) *bookings.Booking {
	return &bookings.Booking{
		ID:             uuid.New(),
		ProfessionalID: professionalID,
		ClientName:     "Maria Souza",
		ClientEmail:    "maria@example.com",
		ClientPhone:    "+5511999990000",
		StartAt:        time.Date(2026, 9, 3, 14, 30, 0, 0, time.UTC),
		EndAt:          time.Date(2026, 9, 3, 15, 30, 0, 0, time.UTC),
		PriceCents:     15000,
		BookingType:    "Consulta",
		Status:         bookings.StatusPending,
	}
}

func fixtureProfile(userID uuid.UUID) *profiles.Profile {
	return &profiles.Profile{
		UserID: userID,
		Email:  "dr.teste@example.com",
		Name:   "Dr. Teste",
		Phone:  "+5511888880000",
	}
}

func TestDispatchPostsPayloadAndMarksBooking(t *testing.T) {
	var received BookingPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	profID := uuid.New()
	store := &stubBookings{booking: fixtureBooking(profID)}
	d := NewDispatcher(
		Config{WebhookURL: server.URL, Timeout: time.Second},
		store, &stubProfiles{profile: fixtureProfile(profID)},
		nil, nil, nil,
	)

	require.NoError(t, d.Dispatch(context.Background(), store.booking.ID, ""))

	assert.Equal(t, "Maria Souza", received.ClienteNome)
	assert.Equal(t, "+5511999990000", received.ClienteTelefone)
	assert.Equal(t, "Dr. Teste", received.ProfissionalNome)
	assert.Equal(t, "03/09/2026", received.Data)
	assert.Equal(t, "14:30", received.Hora)
	assert.Equal(t, "Consulta", received.Tipo)
	assert.Equal(t, "R$ 150,00", received.Preco)
	assert.Equal(t, "novo_agendamento", received.Action)

	require.Len(t, store.notes, 1)
	assert.Equal(t, "[WhatsApp enviado]", store.notes[0])
}

func TestDispatchEmailsTheProfessional(t *testing.T) {
	profID := uuid.New()
	store := &stubBookings{booking: fixtureBooking(profID)}
	emails := &stubEmails{}
	d := NewDispatcher(
		Config{Timeout: time.Second},
		store, &stubProfiles{profile: fixtureProfile(profID)},
		emails, nil, nil,
	)

	require.NoError(t, d.Dispatch(context.Background(), store.booking.ID, ""))

	require.Len(t, emails.sent, 1)
	msg := emails.sent[0]
	assert.Equal(t, "dr.teste@example.com", msg.To, "email goes to the professional, not the client")
	assert.Equal(t, "Dr. Teste", msg.ToName)
	assert.Contains(t, msg.Subject, "Maria Souza")
	assert.Contains(t, msg.Body, "Maria Souza")
	assert.Contains(t, msg.Body, "03/09/2026")
}

func TestDispatchSkipsEmailWithoutProfessionalAddress(t *testing.T) {
	profID := uuid.New()
	profile := fixtureProfile(profID)
	profile.Email = ""
	store := &stubBookings{booking: fixtureBooking(profID)}
	emails := &stubEmails{}
	d := NewDispatcher(
		Config{Timeout: time.Second},
		store, &stubProfiles{profile: profile}, emails, nil, nil,
	)

	require.NoError(t, d.Dispatch(context.Background(), store.booking.ID, ""))
	assert.Empty(t, emails.sent)
}

func TestDispatchUpstreamFailureReturnsErrorWithoutNote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	profID := uuid.New()
	store := &stubBookings{booking: fixtureBooking(profID)}
	d := NewDispatcher(
		Config{WebhookURL: server.URL, Timeout: time.Second},
		store, &stubProfiles{profile: fixtureProfile(profID)},
		nil, nil, nil,
	)

	err := d.Dispatch(context.Background(), store.booking.ID, "")
	require.Error(t, err)
	assert.Empty(t, store.notes, "failed dispatch must not mark the booking")
}

func TestBookingCreatedSwallowsFailures(t *testing.T) {
	store := &stubBookings{err: errors.New("db down")}
	d := NewDispatcher(
		Config{WebhookURL: "http://127.0.0.1:1", Timeout: 100 * time.Millisecond},
		store, &stubProfiles{}, nil, nil, nil,
	)

	assert.NotPanics(t, func() {
		d.BookingCreated(uuid.New(), "")
		time.Sleep(50 * time.Millisecond)
	})
}

func TestDispatchNoWebhookConfiguredSkipsPost(t *testing.T) {
	profID := uuid.New()
	store := &stubBookings{booking: fixtureBooking(profID)}
	d := NewDispatcher(
		Config{Timeout: time.Second},
		store, &stubProfiles{profile: fixtureProfile(profID)},
		nil, nil, nil,
	)

	require.NoError(t, d.Dispatch(context.Background(), store.booking.ID, ""))
	assert.Empty(t, store.notes)
}

func TestSendTestReturnsUpstreamStatusAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload BookingPayload
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, ActionTest, payload.Action)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"flow":"ok"}`))
	}))
	defer server.Close()

	d := NewDispatcher(Config{WebhookURL: server.URL, Timeout: time.Second}, nil, nil, nil, nil, nil)

	status, body, err := d.SendTest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, status)
	assert.Equal(t, `{"flow":"ok"}`, body)
}

func TestSendTestWithoutURL(t *testing.T) {
	d := NewDispatcher(Config{}, nil, nil, nil, nil, nil)
	_, _, err := d.SendTest(context.Background())
	require.Error(t, err)
}

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "R$ 150,00", formatPrice(15000))
	assert.Equal(t, "R$ 37,90", formatPrice(3790))
	assert.Equal(t, "R$ 0,05", formatPrice(5))
}
