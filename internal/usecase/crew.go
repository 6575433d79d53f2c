package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/core/port"
	"github.com/cleanops/backoffice-core/internal/infra/config"
	"github.com/cleanops/backoffice-core/internal/repository"
)

const (
	defaultMinWorkers        = 4
	defaultMaxWorkers        = 40
	defaultAllocationRetries = 3
)

// CrewService assigns personnel to numbered crews while holding the
// no-double-booking invariant: a worker belongs to at most one active crew
// at a time.
type CrewService struct {
	crews     port.CrewRepository
	directory port.PersonDirectory
	clock     port.Clock
	log       *zap.Logger

	minWorkers        int
	maxWorkers        int
	allocationRetries int
}

// NewCrewService constructs a CrewService instance.
func NewCrewService(
	cfg *config.AppConfig,
	crews port.CrewRepository,
	directory port.PersonDirectory,
	clock port.Clock,
	log *zap.Logger,
) *CrewService {
	minWorkers := defaultMinWorkers
	maxWorkers := defaultMaxWorkers
	retries := defaultAllocationRetries
	if cfg != nil {
		if cfg.Crew.MinWorkers > 0 {
			minWorkers = cfg.Crew.MinWorkers
		}
		if cfg.Crew.MaxWorkers > 0 {
			maxWorkers = cfg.Crew.MaxWorkers
		}
		if cfg.Crew.AllocationRetries > 0 {
			retries = cfg.Crew.AllocationRetries
		}
	}
	if clock == nil {
		clock = port.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &CrewService{
		crews:             crews,
		directory:         directory,
		clock:             clock,
		log:               log,
		minWorkers:        minWorkers,
		maxWorkers:        maxWorkers,
		allocationRetries: retries,
	}
}

// CreateCrewInput carries the fields of a crew creation request.
type CreateCrewInput struct {
	Activity    string
	ModeratorID string
	WorkerIDs   []string
	ActorID     string
}

// UpdateCrewInput carries the fields of a crew update request. The full
// member set is supplied each time; the crew number never changes.
type UpdateCrewInput struct {
	CrewID      string
	Activity    string
	ModeratorID string
	WorkerIDs   []string
	ActorID     string
}

// Create validates the member set, checks every worker's availability
// against all other active crews, allocates the next crew number and
// persists the crew. Number allocation retries on a uniqueness collision
// so that concurrent creations each end up with a distinct number.
func (s *CrewService) Create(ctx context.Context, input CreateCrewInput) (*domain.Crew, error) {
	activity, workerIDs, err := s.validateInput(input.Activity, input.ModeratorID, input.WorkerIDs)
	if err != nil {
		return nil, err
	}

	if err := s.checkAvailability(ctx, workerIDs, ""); err != nil {
		return nil, err
	}

	moderator, workers, err := s.resolveMembers(ctx, input.ModeratorID, workerIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	crew := domain.Crew{
		Activity:        activity,
		State:           domain.CrewStateActive,
		Moderator:       moderator.Snapshot(),
		Workers:         snapshots(workers),
		NumberOfWorkers: len(workers),
		CreatedAt:       now,
		CreatedBy:       input.ActorID,
	}

	for attempt := 0; attempt < s.allocationRetries; attempt++ {
		seq, err := s.crews.HighestSequence(ctx)
		if err != nil {
			return nil, fmt.Errorf("read highest crew sequence: %w", err)
		}

		crew.Sequence = seq + 1
		crew.Number = domain.FormatCrewNumber(crew.Sequence)

		id, err := s.crews.Insert(ctx, crew)
		if err == nil {
			crew.ID = id
			s.log.Info("crew created",
				zap.String("crew_id", id),
				zap.String("number", crew.Number),
				zap.Int("workers", crew.NumberOfWorkers),
			)
			return &crew, nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("insert crew: %w", err)
		}
		// Another creation took this number first; re-read and retry.
	}

	return nil, fmt.Errorf("allocate crew number: retries exhausted")
}

// Update replaces a crew's activity and member set. The existing crew is
// excluded from the availability scan so workers staying on the crew do
// not conflict with themselves. The crew number and sequence are kept.
func (s *CrewService) Update(ctx context.Context, input UpdateCrewInput) (*domain.Crew, error) {
	if strings.TrimSpace(input.CrewID) == "" {
		return nil, &ValidationError{Field: "crew_id", Reason: "is required"}
	}

	activity, workerIDs, err := s.validateInput(input.Activity, input.ModeratorID, input.WorkerIDs)
	if err != nil {
		return nil, err
	}

	existing, err := s.crews.GetByID(ctx, input.CrewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCrewNotFound
		}
		return nil, fmt.Errorf("load crew: %w", err)
	}
	if !existing.IsActive() {
		return nil, ErrCrewNotFound
	}

	if err := s.checkAvailability(ctx, workerIDs, existing.ID); err != nil {
		return nil, err
	}

	moderator, workers, err := s.resolveMembers(ctx, input.ModeratorID, workerIDs)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	updated := *existing
	updated.Activity = activity
	updated.Moderator = moderator.Snapshot()
	updated.Workers = snapshots(workers)
	updated.NumberOfWorkers = len(workers)
	updated.ModifiedAt = &now
	updated.ModifiedBy = input.ActorID

	if err := s.crews.Update(ctx, updated); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCrewNotFound
		}
		return nil, fmt.Errorf("update crew: %w", err)
	}

	s.log.Info("crew updated",
		zap.String("crew_id", updated.ID),
		zap.String("number", updated.Number),
		zap.Int("workers", updated.NumberOfWorkers),
	)
	return &updated, nil
}

// Delete flips an active crew to the deleted state, releasing its workers
// for reassignment. The crew number is never reused.
func (s *CrewService) Delete(ctx context.Context, crewID, actorID string) error {
	if strings.TrimSpace(crewID) == "" {
		return &ValidationError{Field: "crew_id", Reason: "is required"}
	}

	if err := s.crews.SoftDelete(ctx, crewID, actorID, s.clock.Now()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCrewNotFound
		}
		return fmt.Errorf("delete crew: %w", err)
	}

	s.log.Info("crew deleted", zap.String("crew_id", crewID))
	return nil
}

// Get retrieves a crew by id, active or deleted.
func (s *CrewService) Get(ctx context.Context, crewID string) (*domain.Crew, error) {
	crew, err := s.crews.GetByID(ctx, crewID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrCrewNotFound
		}
		return nil, fmt.Errorf("load crew: %w", err)
	}
	return crew, nil
}

// ListActive returns every active crew ordered by sequence.
func (s *CrewService) ListActive(ctx context.Context) ([]domain.Crew, error) {
	crews, err := s.crews.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list crews: %w", err)
	}
	return crews, nil
}

// NextNumber previews the display number the next created crew would get.
// Purely informational; creation re-reads the sequence under the unique
// index, so a stale preview is harmless.
func (s *CrewService) NextNumber(ctx context.Context) (string, error) {
	seq, err := s.crews.HighestSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("read highest crew sequence: %w", err)
	}
	return domain.FormatCrewNumber(seq + 1), nil
}

// validateInput normalizes the activity and worker id set and applies the
// structural rules before anything touches persistence.
func (s *CrewService) validateInput(activity, moderatorID string, workerIDs []string) (string, []string, error) {
	activity = strings.TrimSpace(activity)
	if activity == "" {
		return "", nil, &ValidationError{Field: "activity", Reason: "is required"}
	}
	if strings.TrimSpace(moderatorID) == "" {
		return "", nil, &ValidationError{Field: "moderator_id", Reason: "is required"}
	}

	seen := make(map[string]struct{}, len(workerIDs))
	distinct := make([]string, 0, len(workerIDs))
	for _, id := range workerIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			return "", nil, &ValidationError{Field: "worker_ids", Reason: "contains an empty id"}
		}
		if _, dup := seen[id]; dup {
			return "", nil, &ValidationError{Field: "worker_ids", Reason: fmt.Sprintf("worker %s listed more than once", id)}
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	if len(distinct) < s.minWorkers || len(distinct) > s.maxWorkers {
		return "", nil, &ValidationError{
			Field:  "worker_ids",
			Reason: fmt.Sprintf("crew needs between %d and %d workers, got %d", s.minWorkers, s.maxWorkers, len(distinct)),
		}
	}

	return activity, distinct, nil
}

// resolveMembers loads the moderator and every worker from the directory.
func (s *CrewService) resolveMembers(ctx context.Context, moderatorID string, workerIDs []string) (*domain.Person, []domain.Person, error) {
	moderator, err := s.directory.FindModerator(ctx, moderatorID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil, &PersonNotFoundError{Kind: "moderator", ID: moderatorID}
		}
		return nil, nil, fmt.Errorf("resolve moderator: %w", err)
	}

	workers := make([]domain.Person, 0, len(workerIDs))
	for _, id := range workerIDs {
		worker, err := s.directory.FindWorker(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, nil, &PersonNotFoundError{Kind: "worker", ID: id}
			}
			return nil, nil, fmt.Errorf("resolve worker %s: %w", id, err)
		}
		workers = append(workers, *worker)
	}

	return moderator, workers, nil
}

// checkAvailability scans every active crew except excludeCrewID and
// collects every requested worker already assigned elsewhere. All
// conflicts are reported at once so the caller can fix the whole request
// in a single pass. Conflict names come from the holding crew's snapshot.
func (s *CrewService) checkAvailability(ctx context.Context, workerIDs []string, excludeCrewID string) error {
	active, err := s.crews.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active crews: %w", err)
	}

	var conflicts []WorkerConflict
	for _, id := range workerIDs {
		for i := range active {
			if active[i].ID == excludeCrewID {
				continue
			}
			if !active[i].HasWorker(id) {
				continue
			}
			conflict := WorkerConflict{WorkerID: id, CrewNumber: active[i].Number}
			for _, snap := range active[i].Workers {
				if snap.SourceID == id {
					conflict.Name = snap.Name
					conflict.Surname = snap.Surname
					break
				}
			}
			conflicts = append(conflicts, conflict)
			break
		}
	}

	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

func snapshots(people []domain.Person) []domain.PersonSnapshot {
	out := make([]domain.PersonSnapshot, 0, len(people))
	for _, p := range people {
		out = append(out, p.Snapshot())
	}
	return out
}
