package services

import "errors"

var (
	// ErrInvalidName is returned when the service name is missing
	ErrInvalidName = errors.New("service name is required")

	// ErrInvalidDuration is returned when the duration is not positive
	ErrInvalidDuration = errors.New("duration must be positive")

	// ErrInvalidPrice is returned when the price is negative
	ErrInvalidPrice = errors.New("price must not be negative")

	// ErrServiceNotFound is returned when a service does not exist or
	// belongs to another professional
	ErrServiceNotFound = errors.New("service not found")
)
