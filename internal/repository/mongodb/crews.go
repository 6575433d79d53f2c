package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/repository"
)

type snapshotDoc struct {
	SourceID   string `bson:"source_id"`
	Name       string `bson:"name"`
	Surname    string `bson:"surname"`
	NationalID string `bson:"national_id"`
}

type crewDoc struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Sequence        int                `bson:"sequence"`
	Number          string             `bson:"number"`
	Activity        string             `bson:"activity"`
	State           string             `bson:"state"`
	Moderator       snapshotDoc        `bson:"moderator"`
	Workers         []snapshotDoc      `bson:"workers"`
	NumberOfWorkers int                `bson:"number_of_workers"`
	CreatedAt       time.Time          `bson:"created_at"`
	CreatedBy       string             `bson:"created_by"`
	ModifiedAt      *time.Time         `bson:"modified_at,omitempty"`
	ModifiedBy      string             `bson:"modified_by,omitempty"`
}

func snapshotToDoc(s domain.PersonSnapshot) snapshotDoc {
	return snapshotDoc{
		SourceID:   s.SourceID,
		Name:       s.Name,
		Surname:    s.Surname,
		NationalID: s.NationalID,
	}
}

func (d snapshotDoc) toDomain() domain.PersonSnapshot {
	return domain.PersonSnapshot{
		SourceID:   d.SourceID,
		Name:       d.Name,
		Surname:    d.Surname,
		NationalID: d.NationalID,
	}
}

func (d crewDoc) toDomain() *domain.Crew {
	workers := make([]domain.PersonSnapshot, 0, len(d.Workers))
	for _, w := range d.Workers {
		workers = append(workers, w.toDomain())
	}

	return &domain.Crew{
		ID:              d.ID.Hex(),
		Sequence:        d.Sequence,
		Number:          d.Number,
		Activity:        d.Activity,
		State:           domain.CrewState(d.State),
		Moderator:       d.Moderator.toDomain(),
		Workers:         workers,
		NumberOfWorkers: d.NumberOfWorkers,
		CreatedAt:       d.CreatedAt,
		CreatedBy:       d.CreatedBy,
		ModifiedAt:      d.ModifiedAt,
		ModifiedBy:      d.ModifiedBy,
	}
}

// CrewRepository implements port.CrewRepository on a MongoDB collection.
// The unique index on the crew number is the backstop for concurrent
// allocation: a losing writer sees repository.ErrDuplicate and retries.
type CrewRepository struct {
	col *mongo.Collection
}

// NewCrewRepository wires a MongoDB-backed crew repository.
func NewCrewRepository(col *mongo.Collection) *CrewRepository {
	return &CrewRepository{col: col}
}

// Insert persists a new crew and returns its storage id.
func (r *CrewRepository) Insert(ctx context.Context, crew domain.Crew) (string, error) {
	workers := make([]snapshotDoc, 0, len(crew.Workers))
	for _, w := range crew.Workers {
		workers = append(workers, snapshotToDoc(w))
	}

	doc := crewDoc{
		Sequence:        crew.Sequence,
		Number:          crew.Number,
		Activity:        crew.Activity,
		State:           string(crew.State),
		Moderator:       snapshotToDoc(crew.Moderator),
		Workers:         workers,
		NumberOfWorkers: crew.NumberOfWorkers,
		CreatedAt:       crew.CreatedAt,
		CreatedBy:       crew.CreatedBy,
	}

	result, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrDuplicate
		}
		return "", fmt.Errorf("insert crew: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", result.InsertedID)
	}

	return oid.Hex(), nil
}

// GetByID retrieves a crew regardless of state.
func (r *CrewRepository) GetByID(ctx context.Context, id string) (*domain.Crew, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var doc crewDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find crew: %w", err)
	}

	return doc.toDomain(), nil
}

// Update replaces the mutable fields of an existing crew. The number and
// sequence are left untouched.
func (r *CrewRepository) Update(ctx context.Context, crew domain.Crew) error {
	oid, err := primitive.ObjectIDFromHex(crew.ID)
	if err != nil {
		return repository.ErrNotFound
	}

	workers := make([]snapshotDoc, 0, len(crew.Workers))
	for _, w := range crew.Workers {
		workers = append(workers, snapshotToDoc(w))
	}

	update := bson.M{"$set": bson.M{
		"activity":          crew.Activity,
		"moderator":         snapshotToDoc(crew.Moderator),
		"workers":           workers,
		"number_of_workers": crew.NumberOfWorkers,
		"modified_at":       crew.ModifiedAt,
		"modified_by":       crew.ModifiedBy,
	}}

	result, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update crew: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// SoftDelete flips an active crew to the deleted state. The filter keys on
// the active state so the flip is atomic and idempotence violations show
// up as ErrNotFound.
func (r *CrewRepository) SoftDelete(ctx context.Context, id, by string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return repository.ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"state":       string(domain.CrewStateDeleted),
		"modified_at": at,
		"modified_by": by,
	}}

	result, err := r.col.UpdateOne(ctx,
		bson.M{"_id": oid, "state": string(domain.CrewStateActive)},
		update,
	)
	if err != nil {
		return fmt.Errorf("soft delete crew: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// ListActive returns every active crew ordered by sequence.
func (r *CrewRepository) ListActive(ctx context.Context) ([]domain.Crew, error) {
	opts := options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}})
	cursor, err := r.col.Find(ctx, bson.M{"state": string(domain.CrewStateActive)}, opts)
	if err != nil {
		return nil, fmt.Errorf("list active crews: %w", err)
	}
	defer cursor.Close(ctx)

	var crews []domain.Crew
	for cursor.Next(ctx) {
		var doc crewDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode crew: %w", err)
		}
		crews = append(crews, *doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate crews: %w", err)
	}

	return crews, nil
}

// HighestSequence returns the largest sequence ever allocated, deleted
// crews included, or zero when the collection is empty.
func (r *CrewRepository) HighestSequence(ctx context.Context) (int, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "sequence", Value: -1}})

	var doc crewDoc
	if err := r.col.FindOne(ctx, bson.M{}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, fmt.Errorf("find highest crew sequence: %w", err)
	}

	return doc.Sequence, nil
}
