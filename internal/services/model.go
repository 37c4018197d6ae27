package services

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Service is one bookable offering of a professional (name, duration,
// price). The public page lists only active services; bookings derive
// their end time and price from the chosen service.
type Service struct {
	ID              uuid.UUID `json:"id"`
	ProfessionalID  uuid.UUID `json:"professional_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int       `json:"price_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
}

// Duration returns the service duration as a time.Duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMinutes) * time.Minute
}

// CreateServiceRequest carries the fields to create or replace a service.
type CreateServiceRequest struct {
	Name            string `json:"name"`
	DurationMinutes int    `json:"duration_minutes"`
	PriceCents      int    `json:"price_cents"`
	IsActive        *bool  `json:"is_active,omitempty"`
}

// Validate checks required fields.
func (r *CreateServiceRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.DurationMinutes <= 0 {
		return ErrInvalidDuration
	}
	if r.PriceCents < 0 {
		return ErrInvalidPrice
	}
	return nil
}

// Active returns the requested active flag, defaulting to true.
func (r *CreateServiceRequest) Active() bool {
	if r.IsActive == nil {
		return true
	}
	return *r.IsActive
}
