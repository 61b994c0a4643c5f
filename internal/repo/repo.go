package repo

import (
	"context"
	"time"

	"github.com/imagebox/imagebox/internal/domain"
)

// UsersRepo persists user identities. Email uniqueness is enforced by the
// store and is the race-safety mechanism for concurrent verification.
type UsersRepo interface {
	Create(ctx context.Context, email, passwordHash, phone string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	// UpdatePasswordByEmail reports whether a row was actually updated.
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) (bool, error)
}

// OtpRepo persists pending one-time-passcode records keyed by email, one per
// email. Records older than their TTL are treated as absent by Get.
type OtpRepo interface {
	// Store upserts the record for record.Email, fully overwriting any prior
	// fields and resetting the expiry clock.
	Store(ctx context.Context, record *domain.OtpRecord) error
	// Get returns the live record matching email and, when non-empty, code
	// and purpose. Returns nil when nothing matches.
	Get(ctx context.Context, email, code string, purpose domain.Purpose) (*domain.OtpRecord, error)
	// Delete is idempotent; deleting an absent record is a no-op.
	Delete(ctx context.Context, email string) error
}

type ImagesRepo interface {
	Create(ctx context.Context, userID int64, title, url, storageKey string) (*domain.Image, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.Image, error)
	FindByID(ctx context.Context, id int64) (*domain.Image, error)
	Update(ctx context.Context, id int64, title, url, storageKey string) (*domain.Image, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Reorder(ctx context.Context, userID int64, orderedIDs []int64) error
}

type RateLimitRepo interface {
	// CheckRateLimit reports whether another request under key is allowed
	// within the fixed window.
	CheckRateLimit(ctx context.Context, key string, requests int, window time.Duration) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}
