package app

import (
	"context"
	"errors"
	"time"

	"github.com/me-cbr/por-onde-andei/internal/geo"
)

var (
	ErrValidation         = errors.New("app: validation failed")
	ErrDuplicateEmail     = errors.New("app: email already registered")
	ErrInvalidCredentials = errors.New("app: invalid credentials")
	ErrNotLoggedIn        = errors.New("app: not logged in")
)

// maxTitleLength mirrors the cap the capture form applies; the storage
// layer does not enforce it.
const maxTitleLength = 50

type RegisterRequest struct {
	Email    string
	Name     string
	Password string
}

type UpdateProfileRequest struct {
	Name string
	// ImageURI replaces the stored profile image only when non-empty.
	ImageURI string
}

type CreatePlaceRequest struct {
	Title    string
	PhotoURI string
	Address  string
	// Latitude and Longitude are independent because callers receive
	// them separately from the capture flow; a lone value is discarded.
	Latitude     *float64
	Longitude    *float64
	PhotoTakenAt time.Time
}

type UpdatePlaceRequest struct {
	ID      string
	Title   string
	Address string
}

// AddressLookup resolves coordinates to a formatted address. Lookups
// are best effort: any failure degrades to a placeholder and never
// blocks saving a place.
type AddressLookup interface {
	FormattedAddress(ctx context.Context, point geo.Point) (string, error)
}
