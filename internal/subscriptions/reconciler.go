package subscriptions

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/ilgner17/reservo-scheduler/internal/profiles"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

var tracer = otel.Tracer("reservo/subscriptions")

// Recognized provider event types. Anything else is acknowledged and ignored.
const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventInvoiceSucceeded    = "invoice.payment_succeeded"
	EventInvoiceFailed       = "invoice.payment_failed"
	EventSubscriptionDeleted = "customer.subscription.deleted"
)

// Store is the persistence surface the reconciler needs.
type Store interface {
	Upsert(ctx context.Context, sub *Subscription) (*Subscription, error)
	SetStatus(ctx context.Context, providerSubID string, status Status) (*Subscription, error)
	Renew(ctx context.Context, providerSubID string, endsAt time.Time) (*Subscription, error)
}

// ProfileDirectory resolves accounts and applies plan changes.
type ProfileDirectory interface {
	FindUserIDByEmail(ctx context.Context, email string) (uuid.UUID, error)
	UpdatePlan(ctx context.Context, userID uuid.UUID, plan profiles.Plan, limit *int) error
}

// Config carries the plan pricing rules. Passed explicitly so the handler
// never reaches into the environment.
type Config struct {
	// PremiumPriceCents is the single price boundary: a checkout at exactly
	// this amount grants the premium tier, any other amount grants
	// professional.
	PremiumPriceCents     int64
	ProfessionalPlanLimit int
	FreePlanLimit         int
	// Period is how long one paid cycle lasts.
	Period time.Duration
}

// CheckoutSession is the data.object of a completed checkout event.
type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerDetails   struct {
		Email string `json:"email"`
	} `json:"customer_details"`
	Subscription string `json:"subscription"`
	AmountTotal  int64  `json:"amount_total"`
}

// Invoice is the data.object of invoice payment events.
type Invoice struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}

// ProviderSubscription is the data.object of subscription lifecycle events.
type ProviderSubscription struct {
	ID string `json:"id"`
}

// Reconciler applies provider billing events to subscriptions and profiles.
type Reconciler struct {
	cfg      Config
	store    Store
	profiles ProfileDirectory
	logger   *logging.Logger
	now      func() time.Time
}

func NewReconciler(cfg Config, store Store, dir ProfileDirectory, logger *logging.Logger) *Reconciler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reconciler{
		cfg:      cfg,
		store:    store,
		profiles: dir,
		logger:   logger,
		now:      time.Now,
	}
}

// classifyPlan maps the paid amount onto a tier. The limit is nil for
// premium, which the plan gate treats as unlimited.
func (rc *Reconciler) classifyPlan(amountCents int64) (profiles.Plan, *int) {
	if amountCents == rc.cfg.PremiumPriceCents {
		return profiles.PlanPremium, nil
	}
	limit := rc.cfg.ProfessionalPlanLimit
	return profiles.PlanProfessional, &limit
}

// HandleCheckoutCompleted resolves the paying account, classifies the plan
// by amount, upserts the subscription and updates the profile tier.
func (rc *Reconciler) HandleCheckoutCompleted(ctx context.Context, session *CheckoutSession) error {
	ctx, span := tracer.Start(ctx, "subscriptions.checkout_completed", trace.WithAttributes(
		attribute.String("session.id", session.ID),
		attribute.Int64("session.amount_total", session.AmountTotal),
	))
	defer span.End()

	userID, err := rc.resolveAccount(ctx, session)
	if err != nil {
		return err
	}

	plan, limit := rc.classifyPlan(session.AmountTotal)
	now := rc.now().UTC()

	sub := &Subscription{
		UserID:                 userID,
		PlanID:                 plan,
		ProviderSubscriptionID: session.Subscription,
		StartAt:                now,
		EndsAt:                 now.Add(rc.cfg.Period),
		Status:                 StatusActive,
	}
	if _, err := rc.store.Upsert(ctx, sub); err != nil {
		return fmt.Errorf("subscriptions: upsert on checkout: %w", err)
	}

	if err := rc.profiles.UpdatePlan(ctx, userID, plan, limit); err != nil {
		return fmt.Errorf("subscriptions: update profile plan: %w", err)
	}

	rc.logger.Info("checkout reconciled",
		"user_id", userID,
		"plan", plan,
		"provider_subscription_id", session.Subscription,
	)
	return nil
}

// resolveAccount prefers the explicit client reference and falls back to
// matching the billing email against registered profiles.
func (rc *Reconciler) resolveAccount(ctx context.Context, session *CheckoutSession) (uuid.UUID, error) {
	if session.ClientReferenceID != "" {
		userID, err := uuid.Parse(session.ClientReferenceID)
		if err == nil && userID != uuid.Nil {
			return userID, nil
		}
		rc.logger.Warn("invalid client reference on checkout session",
			"session_id", session.ID, "client_reference_id", session.ClientReferenceID)
	}

	email := session.CustomerDetails.Email
	if email != "" {
		userID, err := rc.profiles.FindUserIDByEmail(ctx, email)
		if err == nil {
			return userID, nil
		}
		if !errors.Is(err, profiles.ErrProfileNotFound) {
			return uuid.Nil, fmt.Errorf("subscriptions: lookup account by email: %w", err)
		}
	}

	return uuid.Nil, fmt.Errorf("%w: session %s", ErrUnresolvedAccount, session.ID)
}

// HandleInvoiceSucceeded reactivates the subscription and extends its
// window by one period from now.
func (rc *Reconciler) HandleInvoiceSucceeded(ctx context.Context, invoice *Invoice) error {
	ctx, span := tracer.Start(ctx, "subscriptions.invoice_succeeded", trace.WithAttributes(
		attribute.String("invoice.id", invoice.ID),
	))
	defer span.End()

	if invoice.Subscription == "" {
		rc.logger.Warn("invoice succeeded without subscription reference", "invoice_id", invoice.ID)
		return nil
	}

	endsAt := rc.now().UTC().Add(rc.cfg.Period)
	if _, err := rc.store.Renew(ctx, invoice.Subscription, endsAt); err != nil {
		return fmt.Errorf("subscriptions: renew on invoice: %w", err)
	}
	rc.logger.Info("subscription renewed", "provider_subscription_id", invoice.Subscription, "ends_at", endsAt)
	return nil
}

// HandleInvoiceFailed marks the subscription past_due. The plan tier is
// untouched until the provider cancels.
func (rc *Reconciler) HandleInvoiceFailed(ctx context.Context, invoice *Invoice) error {
	ctx, span := tracer.Start(ctx, "subscriptions.invoice_failed", trace.WithAttributes(
		attribute.String("invoice.id", invoice.ID),
	))
	defer span.End()

	if invoice.Subscription == "" {
		rc.logger.Warn("invoice failed without subscription reference", "invoice_id", invoice.ID)
		return nil
	}

	if _, err := rc.store.SetStatus(ctx, invoice.Subscription, StatusPastDue); err != nil {
		return fmt.Errorf("subscriptions: mark past_due: %w", err)
	}
	rc.logger.Info("subscription past due", "provider_subscription_id", invoice.Subscription)
	return nil
}

// HandleSubscriptionDeleted cancels the subscription and reverts the owner
// to the free tier with its fixed limit, regardless of prior tier.
func (rc *Reconciler) HandleSubscriptionDeleted(ctx context.Context, provSub *ProviderSubscription) error {
	ctx, span := tracer.Start(ctx, "subscriptions.deleted", trace.WithAttributes(
		attribute.String("subscription.id", provSub.ID),
	))
	defer span.End()

	sub, err := rc.store.SetStatus(ctx, provSub.ID, StatusCancelled)
	if err != nil {
		return fmt.Errorf("subscriptions: cancel: %w", err)
	}

	freeLimit := rc.cfg.FreePlanLimit
	if err := rc.profiles.UpdatePlan(ctx, sub.UserID, profiles.PlanFree, &freeLimit); err != nil {
		return fmt.Errorf("subscriptions: revert profile to free: %w", err)
	}

	rc.logger.Info("subscription cancelled", "user_id", sub.UserID, "provider_subscription_id", provSub.ID)
	return nil
}
