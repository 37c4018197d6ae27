package payments

import (
	"time"

	"github.com/google/uuid"
)

// Method is how the client pays for a booking.
type Method string

const (
	MethodPix  Method = "pix"
	MethodCard Method = "card"
)

// Valid reports whether m is a supported method.
func (m Method) Valid() bool {
	return m == MethodPix || m == MethodCard
}

// Status is the payment lifecycle state. It starts pending and is
// settled by external confirmation.
type Status string

const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusFailed  Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed:
		return true
	}
	return false
}

// Payment is the payment record paired with a client-initiated booking.
type Payment struct {
	ID          uuid.UUID `json:"id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Method      Method    `json:"method"`
	AmountCents int       `json:"amount_cents"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
