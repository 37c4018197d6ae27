package bookings

import "errors"

var (
	// ErrSlotConflict is returned when the requested window overlaps a
	// non-cancelled booking of the same professional
	ErrSlotConflict = errors.New("requested time slot is already booked")

	// ErrMissingClientName is returned when the client name is missing
	ErrMissingClientName = errors.New("client name is required")

	// ErrMissingContact is returned when both client email and phone are missing
	ErrMissingContact = errors.New("either client email or phone is required")

	// ErrMissingService is returned when no service is referenced
	ErrMissingService = errors.New("service is required")

	// ErrMissingStart is returned when the start timestamp is missing
	ErrMissingStart = errors.New("start time is required")

	// ErrInvalidStatus is returned for an unknown booking status
	ErrInvalidStatus = errors.New("booking status must be pending, confirmed or cancelled")

	// ErrBookingNotFound is returned when no booking matches the lookup
	ErrBookingNotFound = errors.New("booking not found")

	// ErrPlanLimitReached is returned when the professional's plan does
	// not allow another booking this month
	ErrPlanLimitReached = errors.New("monthly booking limit reached for current plan")
)

// IsValidation reports whether err is a booking field validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingClientName) ||
		errors.Is(err, ErrMissingContact) ||
		errors.Is(err, ErrMissingService) ||
		errors.Is(err, ErrMissingStart) ||
		errors.Is(err, ErrInvalidStatus)
}
