package bookings

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ilgner17/reservo-scheduler/internal/payments"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Booking is one scheduled appointment. The window is half-open:
// [StartAt, EndAt), so a booking ending at T does not conflict with
// one starting at T.
type Booking struct {
	ID             uuid.UUID  `json:"id"`
	ProfessionalID uuid.UUID  `json:"professional_id"`
	ServiceID      *uuid.UUID `json:"service_id,omitempty"`
	ClientName     string     `json:"client_name"`
	ClientEmail    string     `json:"client_email"`
	ClientPhone    string     `json:"client_phone"`
	StartAt        time.Time  `json:"start_at"`
	EndAt          time.Time  `json:"end_at"`
	PriceCents     int        `json:"price_cents"`
	Notes          string     `json:"notes"`
	Status         Status     `json:"status"`
	BookingType    string     `json:"booking_type"`
	CreatedAt      time.Time  `json:"created_at"`
}

// CreateBookingRequest carries the fields of a booking request. The
// public flow requires a payment method; the dashboard flow ignores it.
type CreateBookingRequest struct {
	ServiceID     uuid.UUID       `json:"service_id"`
	ClientName    string          `json:"client_name"`
	ClientEmail   string          `json:"client_email"`
	ClientPhone   string          `json:"client_phone"`
	StartAt       time.Time       `json:"start_at"`
	Notes         string          `json:"notes"`
	PaymentMethod payments.Method `json:"payment_method,omitempty"`
}

// Validate checks required booking fields.
func (r *CreateBookingRequest) Validate() error {
	if strings.TrimSpace(r.ClientName) == "" {
		return ErrMissingClientName
	}
	if strings.TrimSpace(r.ClientEmail) == "" && strings.TrimSpace(r.ClientPhone) == "" {
		return ErrMissingContact
	}
	if r.ServiceID == uuid.Nil {
		return ErrMissingService
	}
	if r.StartAt.IsZero() {
		return ErrMissingStart
	}
	return nil
}

// ListFilter narrows the dashboard booking listing.
type ListFilter struct {
	From   *time.Time
	To     *time.Time
	Status Status
	Limit  int
	Offset int
}
