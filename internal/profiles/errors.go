package profiles

import "errors"

var (
	// ErrInvalidEmail is returned when the email is missing
	ErrInvalidEmail = errors.New("email is required")

	// ErrInvalidName is returned when the name is missing
	ErrInvalidName = errors.New("name is required")

	// ErrInvalidSlug is returned when the slug is empty or malformed
	ErrInvalidSlug = errors.New("slug must contain only lowercase letters, digits and hyphens")

	// ErrSlugTaken is returned when another profile already owns the slug
	ErrSlugTaken = errors.New("slug is already taken")

	// ErrEmailTaken is returned when another profile already owns the email
	ErrEmailTaken = errors.New("email is already registered")

	// ErrProfileNotFound is returned when no profile matches the lookup
	ErrProfileNotFound = errors.New("profile not found")
)
