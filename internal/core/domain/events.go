package domain

import "time"

// SecurityEventKind enumerates the audited authentication outcomes.
type SecurityEventKind string

const (
	EventLoginSuccess       SecurityEventKind = "login_success"
	EventLoginFailed        SecurityEventKind = "login_failed"
	EventAccountLocked      SecurityEventKind = "account_locked"
	EventAccountProvisioned SecurityEventKind = "account_provisioned"
)

// SecurityEvent is a write-once audit record for an authentication attempt
// or account provisioning action. Persisting it is best-effort; a failed
// write must never fail the operation that produced it.
type SecurityEvent struct {
	ID         string
	Kind       SecurityEventKind
	OccurredAt time.Time
	AccountID  string
	Username   string
	Role       Role
	IP         string
	UserAgent  string
	Detail     string
}
