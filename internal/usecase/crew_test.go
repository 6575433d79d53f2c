package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cleanops/backoffice-core/internal/core/domain"
)

type crewFixture struct {
	service *CrewService
	crews   *fakeCrewRepo
	dir     *fakeDirectory
	clock   *fakeClock
}

func newCrewFixture(t *testing.T, workerCount int) *crewFixture {
	t.Helper()

	clock := newFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	crews := newFakeCrewRepo()
	dir := newFakeDirectory()

	dir.addModerator(domain.Person{
		ID: "m-1", Name: "Diego", Surname: "Martinez", NationalID: "31510033", Active: true,
	})
	dir.addModerator(domain.Person{
		ID: "m-2", Name: "Laura", Surname: "Gomez", NationalID: "28411702", Active: true,
	})
	for i := 1; i <= workerCount; i++ {
		dir.addWorker(domain.Person{
			ID:         fmt.Sprintf("w-%d", i),
			Name:       fmt.Sprintf("Worker%d", i),
			Surname:    "Perez",
			NationalID: fmt.Sprintf("2290%04d", i),
			Active:     true,
		})
	}

	service := NewCrewService(testConfig(), crews, dir, clock, nil)
	return &crewFixture{service: service, crews: crews, dir: dir, clock: clock}
}

func workerIDs(ids ...int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, fmt.Sprintf("w-%d", id))
	}
	return out
}

func TestCreateCrewAssignsSequentialNumbers(t *testing.T) {
	fx := newCrewFixture(t, 12)
	ctx := context.Background()

	for i, ids := range [][]string{workerIDs(1, 2, 3, 4), workerIDs(5, 6, 7, 8), workerIDs(9, 10, 11, 12)} {
		crew, err := fx.service.Create(ctx, CreateCrewInput{
			Activity:    "Office cleaning",
			ModeratorID: "m-1",
			WorkerIDs:   ids,
			ActorID:     "admin",
		})
		if err != nil {
			t.Fatalf("create crew %d: %v", i+1, err)
		}
		want := fmt.Sprintf("Crew-N°%d", i+1)
		if crew.Number != want {
			t.Fatalf("crew number = %q, want %q", crew.Number, want)
		}
		if crew.Sequence != i+1 {
			t.Fatalf("crew sequence = %d, want %d", crew.Sequence, i+1)
		}
	}
}

func TestCreateCrewSnapshotsMembers(t *testing.T) {
	fx := newCrewFixture(t, 4)

	crew, err := fx.service.Create(context.Background(), CreateCrewInput{
		Activity:    "Window washing",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
		ActorID:     "admin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if crew.Moderator.SourceID != "m-1" || crew.Moderator.Name != "Diego" {
		t.Fatalf("moderator snapshot = %+v", crew.Moderator)
	}
	if crew.NumberOfWorkers != 4 || len(crew.Workers) != 4 {
		t.Fatalf("worker count = %d/%d, want 4", crew.NumberOfWorkers, len(crew.Workers))
	}
	if crew.Workers[0].NationalID == "" {
		t.Fatal("worker snapshot missing national id")
	}
	if crew.CreatedBy != "admin" || !crew.CreatedAt.Equal(fx.clock.Now()) {
		t.Fatalf("audit fields = %q/%v", crew.CreatedBy, crew.CreatedAt)
	}
}

func TestCreateCrewReportsAllConflictsAtOnce(t *testing.T) {
	fx := newCrewFixture(t, 8)
	ctx := context.Background()

	if _, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Office cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
		ActorID:     "admin",
	}); err != nil {
		t.Fatalf("seed crew: %v", err)
	}

	_, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Warehouse sweep",
		ModeratorID: "m-2",
		WorkerIDs:   workerIDs(1, 2, 5, 6),
		ActorID:     "admin",
	})

	var conflict *ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if len(conflict.Conflicts) != 2 {
		t.Fatalf("conflicts = %d, want 2", len(conflict.Conflicts))
	}
	for _, c := range conflict.Conflicts {
		if c.CrewNumber != "Crew-N°1" {
			t.Fatalf("conflict crew = %q, want Crew-N°1", c.CrewNumber)
		}
	}

	// The rejected request must leave no partial state behind.
	active, err := fx.service.ListActive(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("active crews = %d, want 1", len(active))
	}
}

func TestUpdateCrewExcludesItselfFromConflictScan(t *testing.T) {
	fx := newCrewFixture(t, 6)
	ctx := context.Background()

	crew, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Office cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
		ActorID:     "admin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Keep workers 1-3, swap 4 for 5. The retained workers must not
	// collide with their own crew.
	updated, err := fx.service.Update(ctx, UpdateCrewInput{
		CrewID:      crew.ID,
		Activity:    "Office cleaning, night shift",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 5),
		ActorID:     "admin",
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Number != crew.Number {
		t.Fatalf("number changed on update: %q -> %q", crew.Number, updated.Number)
	}
	if !updated.HasWorker("w-5") || updated.HasWorker("w-4") {
		t.Fatalf("membership not replaced: %+v", updated.Workers)
	}
	if updated.ModifiedAt == nil || updated.ModifiedBy != "admin" {
		t.Fatalf("modification audit = %v/%q", updated.ModifiedAt, updated.ModifiedBy)
	}
}

func TestUpdateDeletedCrewReturnsNotFound(t *testing.T) {
	fx := newCrewFixture(t, 4)
	ctx := context.Background()

	crew, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Office cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
		ActorID:     "admin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := fx.service.Delete(ctx, crew.ID, "admin"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := fx.service.Update(ctx, UpdateCrewInput{
		CrewID:      crew.ID,
		Activity:    "Anything",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
	}); !errors.Is(err, ErrCrewNotFound) {
		t.Fatalf("update deleted: err = %v, want ErrCrewNotFound", err)
	}

	if err := fx.service.Delete(ctx, crew.ID, "admin"); !errors.Is(err, ErrCrewNotFound) {
		t.Fatalf("double delete: err = %v, want ErrCrewNotFound", err)
	}
}

func TestDeleteReleasesWorkersAndNumberIsNotReused(t *testing.T) {
	fx := newCrewFixture(t, 4)
	ctx := context.Background()

	first, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Office cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
		ActorID:     "admin",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := fx.service.Delete(ctx, first.ID, "admin"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	// Same workers are free again, but the number advances.
	second, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Office cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
		ActorID:     "admin",
	})
	if err != nil {
		t.Fatalf("re-create with released workers: %v", err)
	}
	if second.Number != "Crew-N°2" {
		t.Fatalf("number = %q, want Crew-N°2", second.Number)
	}
}

func TestCreateCrewValidation(t *testing.T) {
	fx := newCrewFixture(t, 4)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateCrewInput
	}{
		{"blank activity", CreateCrewInput{Activity: "  ", ModeratorID: "m-1", WorkerIDs: workerIDs(1, 2, 3, 4)}},
		{"missing moderator id", CreateCrewInput{Activity: "Cleaning", WorkerIDs: workerIDs(1, 2, 3, 4)}},
		{"too few workers", CreateCrewInput{Activity: "Cleaning", ModeratorID: "m-1", WorkerIDs: workerIDs(1, 2, 3)}},
		{"duplicate worker", CreateCrewInput{Activity: "Cleaning", ModeratorID: "m-1", WorkerIDs: []string{"w-1", "w-2", "w-3", "w-1"}}},
	}

	for _, tc := range cases {
		_, err := fx.service.Create(ctx, tc.input)
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("%s: err = %v, want ValidationError", tc.name, err)
		}
	}
}

func TestCreateCrewTooManyWorkers(t *testing.T) {
	fx := newCrewFixture(t, 41)

	_, err := fx.service.Create(context.Background(), CreateCrewInput{
		Activity:    "Mass deployment",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDsRange(1, 41),
		ActorID:     "admin",
	})
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
}

func workerIDsRange(from, to int) []string {
	var out []string
	for i := from; i <= to; i++ {
		out = append(out, fmt.Sprintf("w-%d", i))
	}
	return out
}

func TestCreateCrewUnknownMember(t *testing.T) {
	fx := newCrewFixture(t, 4)
	ctx := context.Background()

	_, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Cleaning",
		ModeratorID: "m-404",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
	})
	var missing *PersonNotFoundError
	if !errors.As(err, &missing) || missing.Kind != "moderator" {
		t.Fatalf("err = %v, want moderator PersonNotFoundError", err)
	}

	_, err = fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   []string{"w-1", "w-2", "w-3", "w-404"},
	})
	if !errors.As(err, &missing) || missing.Kind != "worker" || missing.ID != "w-404" {
		t.Fatalf("err = %v, want worker w-404 PersonNotFoundError", err)
	}
}

func TestCreateCrewRetriesNumberCollision(t *testing.T) {
	fx := newCrewFixture(t, 8)
	ctx := context.Background()

	// First insert attempt races a concurrent creation that takes the
	// same number; the retry must land on the next one.
	raced := false
	fx.crews.insertHook = func() {
		if raced {
			return
		}
		raced = true
		fx.crews.nextID++
		id := fmt.Sprintf("crew-%d", fx.crews.nextID)
		fx.crews.crews[id] = &domain.Crew{
			ID:       id,
			Sequence: 1,
			Number:   domain.FormatCrewNumber(1),
			State:    domain.CrewStateActive,
		}
	}

	crew, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Office cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
		ActorID:     "admin",
	})
	if err != nil {
		t.Fatalf("create with collision: %v", err)
	}
	if crew.Number != "Crew-N°2" {
		t.Fatalf("number = %q, want Crew-N°2 after retry", crew.Number)
	}
}

func TestNextNumberPreview(t *testing.T) {
	fx := newCrewFixture(t, 4)
	ctx := context.Background()

	number, err := fx.service.NextNumber(ctx)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	if number != "Crew-N°1" {
		t.Fatalf("number = %q, want Crew-N°1", number)
	}

	if _, err := fx.service.Create(ctx, CreateCrewInput{
		Activity:    "Office cleaning",
		ModeratorID: "m-1",
		WorkerIDs:   workerIDs(1, 2, 3, 4),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	number, err = fx.service.NextNumber(ctx)
	if err != nil {
		t.Fatalf("next number: %v", err)
	}
	if number != "Crew-N°2" {
		t.Fatalf("number = %q, want Crew-N°2", number)
	}
}
