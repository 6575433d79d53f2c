package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/repository"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(at time.Time) *fakeClock {
	return &fakeClock{now: at}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeAccountRepo struct {
	mu       sync.Mutex
	nextID   int
	accounts map[string]*domain.Account
}

func newFakeAccountRepo(accounts ...*domain.Account) *fakeAccountRepo {
	repo := &fakeAccountRepo{accounts: make(map[string]*domain.Account)}
	for _, a := range accounts {
		cp := *a
		repo.accounts[a.ID] = &cp
	}
	return repo
}

// Create assigns its own id and discards any caller-set one, mirroring
// the storage layer.
func (r *fakeAccountRepo) Create(_ context.Context, account domain.Account) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.Username == account.Username {
			return "", repository.ErrDuplicate
		}
	}
	r.nextID++
	id := fmt.Sprintf("account-%d", r.nextID)
	account.ID = id
	r.accounts[id] = &account
	return id, nil
}

func (r *fakeAccountRepo) GetByUsername(_ context.Context, username string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) GetByNationalID(_ context.Context, nationalID string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.accounts {
		if a.NationalID == nationalID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeAccountRepo) IncrementFailedAttempts(_ context.Context, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return 0, repository.ErrNotFound
	}
	a.FailedAttempts++
	return a.FailedAttempts, nil
}

func (r *fakeAccountRepo) Lock(_ context.Context, id string, until time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	u := until
	a.LockedUntil = &u
	return nil
}

func (r *fakeAccountRepo) ResetLockout(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.FailedAttempts = 0
	a.LockedUntil = nil
	return nil
}

func (r *fakeAccountRepo) RecordLoginSuccess(_ context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return repository.ErrNotFound
	}
	a.FailedAttempts = 0
	a.LockedUntil = nil
	t := at
	a.LastLogin = &t
	return nil
}

func (r *fakeAccountRepo) get(id string) *domain.Account {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.accounts[id]
	if !ok {
		return nil
	}
	cp := *a
	return &cp
}

type fakeDirectory struct {
	moderators map[string]domain.Person
	workers    map[string]domain.Person
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		moderators: make(map[string]domain.Person),
		workers:    make(map[string]domain.Person),
	}
}

func (d *fakeDirectory) addModerator(p domain.Person) { d.moderators[p.ID] = p }
func (d *fakeDirectory) addWorker(p domain.Person)    { d.workers[p.ID] = p }

func (d *fakeDirectory) FindModerator(_ context.Context, id string) (*domain.Person, error) {
	p, ok := d.moderators[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (d *fakeDirectory) FindWorker(_ context.Context, id string) (*domain.Person, error) {
	p, ok := d.workers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (d *fakeDirectory) FindActiveWorkerByNationalID(_ context.Context, nationalID string) (*domain.Person, error) {
	for _, p := range d.workers {
		if p.NationalID == nationalID && p.Active {
			cp := p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (d *fakeDirectory) ListModerators(_ context.Context) ([]domain.Person, error) {
	out := make([]domain.Person, 0, len(d.moderators))
	for _, p := range d.moderators {
		out = append(out, p)
	}
	return out, nil
}

type fakeCrewRepo struct {
	mu     sync.Mutex
	nextID int
	crews  map[string]*domain.Crew

	// insertHook runs before each Insert under the lock, letting a test
	// simulate a concurrent allocation racing the caller.
	insertHook func()
}

func newFakeCrewRepo() *fakeCrewRepo {
	return &fakeCrewRepo{crews: make(map[string]*domain.Crew)}
}

func (r *fakeCrewRepo) Insert(_ context.Context, crew domain.Crew) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertHook != nil {
		r.insertHook()
	}
	for _, existing := range r.crews {
		if existing.Number == crew.Number {
			return "", repository.ErrDuplicate
		}
	}
	r.nextID++
	id := fmt.Sprintf("crew-%d", r.nextID)
	crew.ID = id
	r.crews[id] = &crew
	return id, nil
}

func (r *fakeCrewRepo) GetByID(_ context.Context, id string) (*domain.Crew, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.crews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCrewRepo) Update(_ context.Context, crew domain.Crew) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.crews[crew.ID]
	if !ok || existing.State != domain.CrewStateActive {
		return repository.ErrNotFound
	}
	crew.Number = existing.Number
	crew.Sequence = existing.Sequence
	r.crews[crew.ID] = &crew
	return nil
}

func (r *fakeCrewRepo) SoftDelete(_ context.Context, id, by string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.crews[id]
	if !ok || c.State != domain.CrewStateActive {
		return repository.ErrNotFound
	}
	c.State = domain.CrewStateDeleted
	t := at
	c.ModifiedAt = &t
	c.ModifiedBy = by
	return nil
}

func (r *fakeCrewRepo) ListActive(_ context.Context) ([]domain.Crew, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Crew
	for _, c := range r.crews {
		if c.State == domain.CrewStateActive {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (r *fakeCrewRepo) HighestSequence(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.highestSequenceLocked(), nil
}

func (r *fakeCrewRepo) highestSequenceLocked() int {
	highest := 0
	for _, c := range r.crews {
		if c.Sequence > highest {
			highest = c.Sequence
		}
	}
	return highest
}

type fakeSecurityLog struct {
	mu     sync.Mutex
	events []domain.SecurityEvent
	fail   error
}

func (l *fakeSecurityLog) Record(_ context.Context, event domain.SecurityEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fail != nil {
		return l.fail
	}
	l.events = append(l.events, event)
	return nil
}

func (l *fakeSecurityLog) byKind(kind domain.SecurityEventKind) []domain.SecurityEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []domain.SecurityEvent
	for _, e := range l.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

func (l *fakeSecurityLog) count() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}
