package port

import (
	"context"

	"github.com/cleanops/backoffice-core/internal/core/domain"
)

// PersonDirectory is a read-only accessor over the moderator and worker
// collections. Global uniqueness of national-id and contact fields across
// both stores is enforced by the directory service that owns the data, not
// re-validated here.
type PersonDirectory interface {
	FindModerator(ctx context.Context, id string) (*domain.Person, error)
	FindWorker(ctx context.Context, id string) (*domain.Person, error)

	// FindActiveWorkerByNationalID resolves an active worker by national
	// id. Moderator and administrator records are never consulted.
	FindActiveWorkerByNationalID(ctx context.Context, nationalID string) (*domain.Person, error)

	// ListModerators returns every moderator record, for the account
	// provisioning sync pass.
	ListModerators(ctx context.Context) ([]domain.Person, error)
}
