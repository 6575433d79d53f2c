package port

import (
	"context"

	"github.com/cleanops/backoffice-core/internal/core/domain"
)

// SecurityLog is the append-only audit sink for authentication events.
// Callers treat writes as fire-and-forget: a returned error is logged and
// swallowed, never propagated.
type SecurityLog interface {
	Record(ctx context.Context, event domain.SecurityEvent) error
}
