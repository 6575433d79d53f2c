package port

import (
	"context"
	"time"

	"github.com/cleanops/backoffice-core/internal/core/domain"
)

// AccountRepository persists administrator and moderator login accounts.
//
// The failed-attempt counter mutations are required to be atomic at the
// storage layer: concurrent logins for the same account must not lose an
// increment, so the implementation may not split read-modify-write across
// two round trips without a version check.
type AccountRepository interface {
	// Create inserts a new account and returns the storage-assigned id.
	// Returns repository.ErrDuplicate when the username is already taken.
	Create(ctx context.Context, account domain.Account) (string, error)

	// GetByUsername retrieves an account by its unique username.
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)

	// GetByNationalID retrieves an account by national id within the
	// administrator/moderator role space.
	GetByNationalID(ctx context.Context, nationalID string) (*domain.Account, error)

	// IncrementFailedAttempts atomically bumps the failed-attempt counter
	// and returns its new value.
	IncrementFailedAttempts(ctx context.Context, id string) (int, error)

	// Lock sets the lockout expiry on the account.
	Lock(ctx context.Context, id string, until time.Time) error

	// ResetLockout zeroes the failed-attempt counter and clears any
	// lockout expiry.
	ResetLockout(ctx context.Context, id string) error

	// RecordLoginSuccess zeroes the counter, clears the lockout and stamps
	// the last successful login.
	RecordLoginSuccess(ctx context.Context, id string, at time.Time) error
}
