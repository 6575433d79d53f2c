package domain

import "time"

// Role enumerates the three fixed role kinds the platform knows about.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleModerator     Role = "moderator"
	RoleWorker        Role = "worker"
)

// Valid reports whether the role is one of the three supported kinds.
func (r Role) Valid() bool {
	switch r {
	case RoleAdministrator, RoleModerator, RoleWorker:
		return true
	}
	return false
}

// Account mirrors the persisted representation of an administrator or
// moderator login. Workers are never stored here; their account is
// synthesized from the directory at login time.
type Account struct {
	ID             string
	Username       string
	PasswordHash   string
	DisplayName    string
	NationalID     string
	Role           Role
	IsActive       bool
	FailedAttempts int
	LockedUntil    *time.Time
	LastLogin      *time.Time
	CreatedAt      time.Time
}

// LockedAt reports whether the account lockout is still in force at the
// supplied instant.
func (a *Account) LockedAt(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// LockRemaining returns how long the lockout still lasts at the supplied
// instant, or zero when the account is not locked.
func (a *Account) LockRemaining(now time.Time) time.Duration {
	if a.LockedUntil == nil {
		return 0
	}
	remaining := a.LockedUntil.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
