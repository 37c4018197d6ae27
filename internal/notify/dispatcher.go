// Package notify delivers booking notifications to the external automation
// endpoint. Dispatch failures are logged and swallowed: the booking caller
// never waits on, or fails because of, the messaging leg.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/ilgner17/reservo-scheduler/internal/bookings"
	"github.com/ilgner17/reservo-scheduler/internal/observability/metrics"
	"github.com/ilgner17/reservo-scheduler/internal/profiles"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

const (
	// ActionTest marks payloads fired from the manual test trigger.
	ActionTest = "teste_webhook"

	// sentNote is appended to a booking after a successful dispatch.
	sentNote = "[WhatsApp enviado]"
)

// BookingPayload is the automation endpoint's contract. Field names are
// fixed by the downstream flow and must not change.
type BookingPayload struct {
	ClienteNome          string `json:"clienteNome"`
	ClienteTelefone      string `json:"clienteTelefone"`
	ProfissionalNome     string `json:"profissionalNome"`
	ProfissionalTelefone string `json:"profissionalTelefone"`
	Data                 string `json:"data"`
	Hora                 string `json:"hora"`
	Tipo                 string `json:"tipo"`
	Preco                string `json:"preco"`
	Action               string `json:"action"`
}

// BookingReader loads the booking a dispatch refers to.
type BookingReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*bookings.Booking, error)
	AppendNote(ctx context.Context, id uuid.UUID, note string) error
}

// ProfileReader loads the professional behind a booking.
type ProfileReader interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profiles.Profile, error)
}

// Config holds the dispatcher's endpoint and timeout, passed explicitly at
// construction.
type Config struct {
	WebhookURL string
	Timeout    time.Duration
}

// Dispatcher posts booking payloads to the automation endpoint.
type Dispatcher struct {
	cfg      Config
	client   *http.Client
	bookings BookingReader
	profiles ProfileReader
	emails   EmailSender
	metrics  *metrics.NotifyMetrics
	logger   *logging.Logger
}

func NewDispatcher(
	cfg Config,
	bookingReader BookingReader,
	profileReader ProfileReader,
	emails EmailSender,
	notifyMetrics *metrics.NotifyMetrics,
	logger *logging.Logger,
) *Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Dispatcher{
		cfg:      cfg,
		client:   &http.Client{Timeout: cfg.Timeout},
		bookings: bookingReader,
		profiles: profileReader,
		emails:   emails,
		metrics:  notifyMetrics,
		logger:   logger,
	}
}

// BookingCreated dispatches asynchronously on a detached context so the
// booking response is never delayed by the messaging leg.
func (d *Dispatcher) BookingCreated(bookingID uuid.UUID, action string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.Timeout)
		defer cancel()
		if err := d.dispatch(ctx, bookingID, action); err != nil {
			d.logger.Error("booking notification failed", "error", err, "booking_id", bookingID)
		}
	}()
}

// Dispatch sends the booking notification synchronously. The error is
// reported to the caller; BookingCreated is the fire-and-forget wrapper.
func (d *Dispatcher) Dispatch(ctx context.Context, bookingID uuid.UUID, action string) error {
	return d.dispatch(ctx, bookingID, action)
}

func (d *Dispatcher) dispatch(ctx context.Context, bookingID uuid.UUID, action string) error {
	booking, err := d.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return fmt.Errorf("notify: load booking: %w", err)
	}
	profile, err := d.profiles.GetByUserID(ctx, booking.ProfessionalID)
	if err != nil {
		return fmt.Errorf("notify: load profile: %w", err)
	}

	payload := buildPayload(booking, profile, action)

	if d.cfg.WebhookURL != "" {
		status, _, err := d.post(ctx, payload)
		if err != nil {
			d.metrics.ObserveDispatch("webhook", "error")
			return err
		}
		if status >= 400 {
			d.metrics.ObserveDispatch("webhook", "error")
			return fmt.Errorf("notify: automation endpoint returned status %d", status)
		}
		d.metrics.ObserveDispatch("webhook", "ok")

		if err := d.bookings.AppendNote(ctx, bookingID, sentNote); err != nil {
			d.logger.Warn("failed to mark booking as notified", "error", err, "booking_id", bookingID)
		}
	}

	d.sendEmail(ctx, booking, profile)
	return nil
}

// SendTest fires a synthetic payload at the automation endpoint and returns
// the upstream status and body so the professional can see what the flow
// received.
func (d *Dispatcher) SendTest(ctx context.Context) (int, string, error) {
	if d.cfg.WebhookURL == "" {
		return 0, "", fmt.Errorf("notify: automation endpoint not configured")
	}

	now := time.Now()
	payload := &BookingPayload{
		ClienteNome:          "João Silva - TESTE",
		ClienteTelefone:      "+5511999999999",
		ProfissionalNome:     "Dr. Teste",
		ProfissionalTelefone: "+5511888888888",
		Data:                 formatDate(now),
		Hora:                 formatTime(now),
		Tipo:                 "Consulta de Teste",
		Preco:                formatPrice(15000),
		Action:               ActionTest,
	}

	status, body, err := d.post(ctx, payload)
	if err != nil {
		d.metrics.ObserveDispatch("webhook", "error")
		return 0, "", err
	}
	d.metrics.ObserveDispatch("webhook", "ok")
	return status, body, nil
}

func (d *Dispatcher) post(ctx context.Context, payload *BookingPayload) (int, string, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("notify: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.cfg.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("notify: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("notify: post to automation endpoint: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("notify: read upstream body: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}

// sendEmail tells the professional about the booking. Best effort: a
// missing sender or professional email just skips it.
func (d *Dispatcher) sendEmail(ctx context.Context, booking *bookings.Booking, profile *profiles.Profile) {
	if d.emails == nil || profile.Email == "" {
		return
	}

	msg := EmailMessage{
		To:      profile.Email,
		ToName:  profile.Name,
		Subject: fmt.Sprintf("Novo agendamento - %s", booking.ClientName),
		Body: fmt.Sprintf(
			"Olá %s,\n\nVocê recebeu um novo agendamento.\nCliente: %s\nContato: %s\nData: %s às %s\nTipo: %s\nValor: %s\n",
			profile.Name, booking.ClientName, booking.ClientPhone,
			formatDate(booking.StartAt), formatTime(booking.StartAt),
			booking.BookingType, formatPrice(booking.PriceCents),
		),
	}
	if err := d.emails.Send(ctx, msg); err != nil {
		d.metrics.ObserveDispatch("email", "error")
		d.logger.Warn("booking email failed", "error", err, "booking_id", booking.ID)
		return
	}
	d.metrics.ObserveDispatch("email", "ok")
}

func buildPayload(booking *bookings.Booking, profile *profiles.Profile, action string) *BookingPayload {
	if action == "" {
		action = bookings.ActionNewBooking
	}
	tipo := booking.BookingType
	if tipo == "" {
		tipo = "Consulta"
	}
	return &BookingPayload{
		ClienteNome:          booking.ClientName,
		ClienteTelefone:      booking.ClientPhone,
		ProfissionalNome:     profile.Name,
		ProfissionalTelefone: profile.Phone,
		Data:                 formatDate(booking.StartAt),
		Hora:                 formatTime(booking.StartAt),
		Tipo:                 tipo,
		Preco:                formatPrice(booking.PriceCents),
		Action:               action,
	}
}

// formatDate renders dd/mm/yyyy, the format the downstream flow expects.
func formatDate(t time.Time) string { return t.Format("02/01/2006") }

func formatTime(t time.Time) string { return t.Format("15:04") }

// formatPrice renders cents as currency, e.g. 15000 -> "R$ 150,00".
func formatPrice(cents int) string {
	return fmt.Sprintf("R$ %d,%02d", cents/100, cents%100)
}
