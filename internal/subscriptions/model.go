// Package subscriptions reconciles payment-provider webhook events into
// subscription records and profile plan tiers.
package subscriptions

import (
	"time"

	"github.com/google/uuid"

	"github.com/ilgner17/reservo-scheduler/internal/profiles"
)

// Status is the subscription lifecycle state. past_due may return to
// active when a later invoice succeeds.
type Status string

const (
	StatusActive    Status = "active"
	StatusPastDue   Status = "past_due"
	StatusCancelled Status = "cancelled"
)

// Subscription is one billing agreement per provider subscription id.
type Subscription struct {
	ID                     uuid.UUID     `json:"id"`
	UserID                 uuid.UUID     `json:"user_id"`
	PlanID                 profiles.Plan `json:"plan_id"`
	ProviderSubscriptionID string        `json:"provider_subscription_id"`
	StartAt                time.Time     `json:"start_at"`
	EndsAt                 time.Time     `json:"ends_at"`
	Status                 Status        `json:"status"`
	UpdatedAt              time.Time     `json:"updated_at"`
}
