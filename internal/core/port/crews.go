package port

import (
	"context"
	"time"

	"github.com/cleanops/backoffice-core/internal/core/domain"
)

// CrewRepository persists crews. The backing store must enforce a
// uniqueness constraint on the crew number so that concurrent allocations
// surface as repository.ErrDuplicate instead of silently colliding.
type CrewRepository interface {
	// Insert persists a new crew and returns its storage id. Returns
	// repository.ErrDuplicate when the crew number is already taken.
	Insert(ctx context.Context, crew domain.Crew) (string, error)

	// GetByID retrieves a crew regardless of its lifecycle state.
	GetByID(ctx context.Context, id string) (*domain.Crew, error)

	// Update replaces the mutable fields of an existing crew. The crew
	// number and sequence are never changed by an update.
	Update(ctx context.Context, crew domain.Crew) error

	// SoftDelete flips an active crew to the deleted state and stamps the
	// modification metadata. Returns repository.ErrNotFound when no active
	// crew matches.
	SoftDelete(ctx context.Context, id, by string, at time.Time) error

	// ListActive returns every crew currently in the active state, ordered
	// by sequence.
	ListActive(ctx context.Context) ([]domain.Crew, error)

	// HighestSequence returns the largest sequence value ever allocated,
	// including deleted crews, or zero when no crew exists.
	HighestSequence(ctx context.Context) (int, error)
}
