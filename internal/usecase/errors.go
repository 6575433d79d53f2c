package usecase

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrAccountNotFound indicates no active account matches the username.
	ErrAccountNotFound = errors.New("account not found")
	// ErrWorkerNotFound indicates no active worker matches the national id.
	ErrWorkerNotFound = errors.New("worker not found")
	// ErrCrewNotFound indicates the crew does not exist or is deleted.
	ErrCrewNotFound = errors.New("crew not found")
	// ErrTokenExpired indicates the session token's expiry has passed.
	ErrTokenExpired = errors.New("session token expired")
	// ErrTokenInvalid indicates the token signature or structure failed validation.
	ErrTokenInvalid = errors.New("session token invalid")
)

// ValidationError reports malformed input. It is surfaced to the caller
// verbatim and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// InvalidPasswordError reports a failed password check along with how many
// attempts remain before the account locks. The attempted password itself
// is never echoed.
type InvalidPasswordError struct {
	AttemptsRemaining int
}

func (e *InvalidPasswordError) Error() string {
	return fmt.Sprintf("invalid password, %d attempts remaining", e.AttemptsRemaining)
}

// AccountLockedError reports a lockout in force and how long it lasts.
type AccountLockedError struct {
	Remaining time.Duration
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked, retry in %s", e.Remaining.Round(time.Second))
}

// PersonNotFoundError names the person lookup that missed during crew
// assembly.
type PersonNotFoundError struct {
	Kind string
	ID   string
}

func (e *PersonNotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// WorkerConflict names one worker already embedded in another active crew.
type WorkerConflict struct {
	WorkerID   string
	Name       string
	Surname    string
	CrewNumber string
}

// ConflictError aggregates every double-booking found in one availability
// scan so the caller sees the complete list, not just the first.
type ConflictError struct {
	Conflicts []WorkerConflict
}

func (e *ConflictError) Error() string {
	parts := make([]string, 0, len(e.Conflicts))
	for _, c := range e.Conflicts {
		parts = append(parts, fmt.Sprintf("%s %s (%s) already assigned to %s", c.Name, c.Surname, c.WorkerID, c.CrewNumber))
	}
	return "worker conflicts: " + strings.Join(parts, "; ")
}
