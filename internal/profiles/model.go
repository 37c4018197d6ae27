package profiles

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan is a subscription tier controlling booking volume.
type Plan string

const (
	PlanFree         Plan = "free"
	PlanProfessional Plan = "professional"
	PlanPremium      Plan = "premium"
)

// Valid reports whether p is a known tier.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanProfessional, PlanPremium:
		return true
	}
	return false
}

// Profile is the professional's account record. PlanLimit is the
// maximum number of non-cancelled bookings per month; nil means
// unlimited.
type Profile struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Profession string    `json:"profession"`
	Bio        string    `json:"bio"`
	Phone      string    `json:"phone"`
	PixKey     string    `json:"pix_key"`
	Slug       string    `json:"slug"`
	Plan       Plan      `json:"plan"`
	PlanLimit  *int      `json:"plan_limit"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// PublicView strips the fields that must not leak to the public
// booking page.
func (p *Profile) PublicView() *PublicProfile {
	return &PublicProfile{
		Name:       p.Name,
		Profession: p.Profession,
		Bio:        p.Bio,
		Slug:       p.Slug,
	}
}

// PublicProfile is the shape served on the public booking page.
type PublicProfile struct {
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Bio        string `json:"bio"`
	Slug       string `json:"slug"`
}

// CreateProfileRequest carries the signup fields.
type CreateProfileRequest struct {
	Email      string `json:"email"`
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Slug       string `json:"slug"`
}

// Validate checks required signup fields.
func (r *CreateProfileRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return ErrInvalidEmail
	}
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if !validSlug(r.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

// UpdateSettingsRequest carries the dashboard settings fields.
type UpdateSettingsRequest struct {
	Name       string `json:"name"`
	Profession string `json:"profession"`
	Bio        string `json:"bio"`
	Phone      string `json:"phone"`
	PixKey     string `json:"pix_key"`
	Slug       string `json:"slug"`
}

// Validate checks required settings fields.
func (r *UpdateSettingsRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if !validSlug(r.Slug) {
		return ErrInvalidSlug
	}
	return nil
}

// validSlug accepts lowercase letters, digits and hyphens, no leading
// or trailing hyphen.
func validSlug(slug string) bool {
	if slug == "" || strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return false
	}
	for _, c := range slug {
		switch {
		case c >= 'a' && c <= 'z':
		case c >= '0' && c <= '9':
		case c == '-':
		default:
			return false
		}
	}
	return true
}
