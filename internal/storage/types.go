package storage

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound      = errors.New("storage: not found")
	ErrRebuildNeeded = errors.New("storage: schema reconcile failed and rebuild recovery is disabled")
)

// Account is a registered user identity. PasswordHash holds a bcrypt
// digest; the storage layer never sees plaintext credentials.
type Account struct {
	ID               int64
	Email            string
	Name             string
	PasswordHash     string
	ImageURI         string
	BiometricEnabled bool
	CreatedAt        time.Time
}

// Coordinates is a latitude/longitude pair in floating-point degrees.
// A place carries either both values or neither.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Place is a user-captured record of a visited location. Date is when
// the record was created; PhotoDate is when the underlying photo was
// taken and defaults to Date when unknown.
type Place struct {
	ID         string
	Title      string
	PhotoURI   string
	Address    string
	Location   *Coordinates
	Date       time.Time
	PhotoDate  time.Time
	IsFavorite bool
	OwnerID    int64
	CreatedAt  time.Time
}

// Session marks which account is currently treated as logged in. The
// table may hold several rows; Current resolves to the most recently
// logged-in one.
type Session struct {
	ID        int64
	OwnerID   int64
	LoggedIn  bool
	LastLogin time.Time
}

type AccountRepository interface {
	Create(ctx context.Context, account *Account) error
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByID(ctx context.Context, id int64) (*Account, error)
	UpdateProfile(ctx context.Context, id int64, name, imageURI string) error
	SetBiometric(ctx context.Context, id int64, enabled bool) error
	BiometricEnabled(ctx context.Context, id int64) (bool, error)
}

type PlaceRepository interface {
	Create(ctx context.Context, place *Place) error
	Get(ctx context.Context, id string, ownerID int64) (*Place, error)
	Update(ctx context.Context, id string, title, address string, ownerID int64) error
	ToggleFavorite(ctx context.Context, id string, ownerID int64) (bool, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Place, error)
	ListFavoritesByOwner(ctx context.Context, ownerID int64) ([]Place, error)
	Delete(ctx context.Context, id string, ownerID int64) error
}

type SessionRepository interface {
	Start(ctx context.Context, ownerID int64) error
	Current(ctx context.Context) (*Account, error)
	End(ctx context.Context) error
	IsLoggedIn(ctx context.Context) (bool, error)
}

// ActivityEvent is one row of the append-only activity history.
// OwnerID is zero for events without a logged-in account.
type ActivityEvent struct {
	ID        int64
	OwnerID   int64
	Action    string
	TargetID  string
	Details   string
	CreatedAt time.Time
}

type ActivityFilter struct {
	OwnerID int64
	Action  string
	Limit   int
}

type ActivityRepository interface {
	Append(ctx context.Context, event *ActivityEvent) error
	List(ctx context.Context, filter ActivityFilter) ([]ActivityEvent, error)
}
