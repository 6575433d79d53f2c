package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cleanops/backoffice-core/internal/core/domain"
	"github.com/cleanops/backoffice-core/internal/repository"
)

type personDoc struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	Surname    string             `bson:"surname"`
	NationalID string             `bson:"national_id"`
	Active     bool               `bson:"active"`
}

func (d personDoc) toDomain() *domain.Person {
	return &domain.Person{
		ID:         d.ID.Hex(),
		Name:       d.Name,
		Surname:    d.Surname,
		NationalID: d.NationalID,
		Active:     d.Active,
	}
}

// PersonDirectory implements port.PersonDirectory over the moderator and
// worker collections. It never writes; the directory service owns the data
// and its uniqueness rules.
type PersonDirectory struct {
	moderators *mongo.Collection
	workers    *mongo.Collection
}

// NewPersonDirectory wires the read-only directory accessor.
func NewPersonDirectory(moderators, workers *mongo.Collection) *PersonDirectory {
	return &PersonDirectory{moderators: moderators, workers: workers}
}

func (d *PersonDirectory) FindModerator(ctx context.Context, id string) (*domain.Person, error) {
	return findPersonByID(ctx, d.moderators, id)
}

func (d *PersonDirectory) FindWorker(ctx context.Context, id string) (*domain.Person, error) {
	return findPersonByID(ctx, d.workers, id)
}

// FindActiveWorkerByNationalID resolves an active worker by national id.
// The account store is never consulted on this path.
func (d *PersonDirectory) FindActiveWorkerByNationalID(ctx context.Context, nationalID string) (*domain.Person, error) {
	var doc personDoc
	err := d.workers.FindOne(ctx, bson.M{"national_id": nationalID, "active": true}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find worker by national id: %w", err)
	}
	return doc.toDomain(), nil
}

// ListModerators returns every moderator record for the provisioning sync.
func (d *PersonDirectory) ListModerators(ctx context.Context) ([]domain.Person, error) {
	cursor, err := d.moderators.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("list moderators: %w", err)
	}
	defer cursor.Close(ctx)

	var persons []domain.Person
	for cursor.Next(ctx) {
		var doc personDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode moderator: %w", err)
		}
		persons = append(persons, *doc.toDomain())
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate moderators: %w", err)
	}

	return persons, nil
}

func findPersonByID(ctx context.Context, col *mongo.Collection, id string) (*domain.Person, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, repository.ErrNotFound
	}

	var doc personDoc
	if err := col.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find person: %w", err)
	}
	return doc.toDomain(), nil
}
