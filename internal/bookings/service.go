package bookings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ilgner17/reservo-scheduler/internal/observability/metrics"
	"github.com/ilgner17/reservo-scheduler/internal/payments"
	"github.com/ilgner17/reservo-scheduler/internal/profiles"
	"github.com/ilgner17/reservo-scheduler/internal/services"
	"github.com/ilgner17/reservo-scheduler/pkg/logging"
)

var tracer = otel.Tracer("reservo/bookings")

// ActionNewBooking is the action label relayed to the automation
// endpoint when a booking is created.
const ActionNewBooking = "novo_agendamento"

// Store is the booking persistence surface the service needs.
type Store interface {
	Create(ctx context.Context, b *Booking, pay *payments.Payment, planLimit *int) error
	SlotFree(ctx context.Context, professionalID uuid.UUID, start, end time.Time) (bool, error)
}

// ProfileStore resolves professionals by slug or account id.
type ProfileStore interface {
	GetBySlug(ctx context.Context, slug string) (*profiles.Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*profiles.Profile, error)
}

// ServiceCatalog resolves the booked service.
type ServiceCatalog interface {
	GetActive(ctx context.Context, id uuid.UUID) (*services.Service, error)
	GetForProfessional(ctx context.Context, professionalID, id uuid.UUID) (*services.Service, error)
}

type noopNotifier struct{}

func (noopNotifier) BookingCreated(uuid.UUID, string) {}

// Notifier relays booking events to the automation endpoint.
// Implementations must be fire-and-forget: they never block booking
// creation and never surface delivery errors to the caller.
type Notifier interface {
	BookingCreated(bookingID uuid.UUID, action string)
}

// Service implements booking admission and the record writer.
type Service struct {
	store    Store
	profiles ProfileStore
	catalog  ServiceCatalog
	notifier Notifier
	metrics  *metrics.BookingMetrics
	logger   *logging.Logger
}

// NewService wires the booking flow.
func NewService(store Store, profileStore ProfileStore, catalog ServiceCatalog, notifier Notifier, m *metrics.BookingMetrics, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Service{
		store:    store,
		profiles: profileStore,
		catalog:  catalog,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// CreatePublicBooking handles a client booking from the public page:
// the booking starts pending with a pending payment row, both written
// atomically after admission.
func (s *Service) CreatePublicBooking(ctx context.Context, slug string, req *CreateBookingRequest) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "bookings.CreatePublicBooking")
	defer span.End()
	span.SetAttributes(attribute.String("slug", slug))

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !req.PaymentMethod.Valid() {
		return nil, payments.ErrInvalidMethod
	}

	profile, err := s.profiles.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	svc, err := s.catalog.GetActive(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}
	if svc.ProfessionalID != profile.UserID {
		return nil, services.ErrServiceNotFound
	}

	booking := buildBooking(profile.UserID, svc, req, StatusPending)
	pay := &payments.Payment{
		ID:          uuid.New(),
		Method:      req.PaymentMethod,
		AmountCents: svc.PriceCents,
		Status:      payments.StatusPending,
	}

	if err := s.admitAndWrite(ctx, "public", booking, pay, profile.PlanLimit); err != nil {
		return nil, err
	}

	s.logger.Info("public booking created",
		"booking_id", booking.ID,
		"professional_id", booking.ProfessionalID,
		"start_at", booking.StartAt,
	)
	s.notifier.BookingCreated(booking.ID, ActionNewBooking)
	return booking, nil
}

// CreateProfessionalBooking handles a dashboard booking: it is
// confirmed immediately and no payment row is created.
func (s *Service) CreateProfessionalBooking(ctx context.Context, userID uuid.UUID, req *CreateBookingRequest) (*Booking, error) {
	ctx, span := tracer.Start(ctx, "bookings.CreateProfessionalBooking")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	svc, err := s.catalog.GetForProfessional(ctx, userID, req.ServiceID)
	if err != nil {
		return nil, err
	}

	booking := buildBooking(userID, svc, req, StatusConfirmed)
	if err := s.admitAndWrite(ctx, "dashboard", booking, nil, profile.PlanLimit); err != nil {
		return nil, err
	}

	s.logger.Info("dashboard booking created",
		"booking_id", booking.ID,
		"professional_id", booking.ProfessionalID,
		"start_at", booking.StartAt,
	)
	s.notifier.BookingCreated(booking.ID, ActionNewBooking)
	return booking, nil
}

// CheckAvailability reports whether [start, end) is free for the
// professional behind the slug.
func (s *Service) CheckAvailability(ctx context.Context, slug string, start, end time.Time) (bool, error) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return false, ErrMissingStart
	}
	profile, err := s.profiles.GetBySlug(ctx, slug)
	if err != nil {
		return false, err
	}
	return s.store.SlotFree(ctx, profile.UserID, start, end)
}

func (s *Service) admitAndWrite(ctx context.Context, origin string, booking *Booking, pay *payments.Payment, planLimit *int) error {
	ctx, span := tracer.Start(ctx, "bookings.admitAndWrite")
	defer span.End()
	span.SetAttributes(
		attribute.String("booking_id", booking.ID.String()),
		attribute.Bool("with_payment", pay != nil),
	)

	started := time.Now()
	err := s.store.Create(ctx, booking, pay, planLimit)
	s.metrics.ObserveCreateDuration(origin, time.Since(started).Seconds())
	switch {
	case err == nil:
		s.metrics.ObserveAdmission("admitted")
		return nil
	case isAdmissionReject(err):
		s.metrics.ObserveAdmission("rejected")
		return err
	default:
		s.metrics.ObserveAdmission("error")
		return fmt.Errorf("bookings: create: %w", err)
	}
}

func isAdmissionReject(err error) bool {
	return errors.Is(err, ErrSlotConflict) || errors.Is(err, ErrPlanLimitReached)
}

func buildBooking(professionalID uuid.UUID, svc *services.Service, req *CreateBookingRequest, status Status) *Booking {
	serviceID := svc.ID
	bookingType := svc.Name
	if bookingType == "" {
		bookingType = "Consulta"
	}
	return &Booking{
		ID:             uuid.New(),
		ProfessionalID: professionalID,
		ServiceID:      &serviceID,
		ClientName:     req.ClientName,
		ClientEmail:    req.ClientEmail,
		ClientPhone:    req.ClientPhone,
		StartAt:        req.StartAt.UTC(),
		EndAt:          req.StartAt.UTC().Add(svc.Duration()),
		PriceCents:     svc.PriceCents,
		Notes:          req.Notes,
		Status:         status,
		BookingType:    bookingType,
	}
}
