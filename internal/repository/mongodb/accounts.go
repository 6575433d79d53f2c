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

type accountDoc struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"`
	Username       string             `bson:"username"`
	PasswordHash   string             `bson:"password_hash"`
	DisplayName    string             `bson:"display_name"`
	NationalID     string             `bson:"national_id"`
	Role           string             `bson:"role"`
	Active         bool               `bson:"active"`
	FailedAttempts int                `bson:"failed_attempts"`
	LockedUntil    *time.Time         `bson:"locked_until,omitempty"`
	LastLogin      *time.Time         `bson:"last_login,omitempty"`
	CreatedAt      time.Time          `bson:"created_at"`
}

func (d accountDoc) toDomain() *domain.Account {
	return &domain.Account{
		ID:             d.ID.Hex(),
		Username:       d.Username,
		PasswordHash:   d.PasswordHash,
		DisplayName:    d.DisplayName,
		NationalID:     d.NationalID,
		Role:           domain.Role(d.Role),
		IsActive:       d.Active,
		FailedAttempts: d.FailedAttempts,
		LockedUntil:    d.LockedUntil,
		LastLogin:      d.LastLogin,
		CreatedAt:      d.CreatedAt,
	}
}

// AccountRepository implements port.AccountRepository on a MongoDB
// collection. All counter mutations go through single-document atomic
// updates so concurrent logins never lose a failed-attempt increment.
type AccountRepository struct {
	col *mongo.Collection
}

// NewAccountRepository wires a MongoDB-backed account repository.
func NewAccountRepository(col *mongo.Collection) *AccountRepository {
	return &AccountRepository{col: col}
}

// Create inserts a new account row and returns the generated id. A
// unique-index violation on the username surfaces as
// repository.ErrDuplicate.
func (r *AccountRepository) Create(ctx context.Context, account domain.Account) (string, error) {
	doc := accountDoc{
		Username:       account.Username,
		PasswordHash:   account.PasswordHash,
		DisplayName:    account.DisplayName,
		NationalID:     account.NationalID,
		Role:           string(account.Role),
		Active:         account.IsActive,
		FailedAttempts: account.FailedAttempts,
		LockedUntil:    account.LockedUntil,
		LastLogin:      account.LastLogin,
		CreatedAt:      account.CreatedAt,
	}

	result, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", repository.ErrDuplicate
		}
		return "", fmt.Errorf("insert account: %w", err)
	}

	oid, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert account: unexpected inserted id type %T", result.InsertedID)
	}

	return oid.Hex(), nil
}

// GetByUsername retrieves an account by its unique username.
func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

// GetByNationalID retrieves an account by national id.
func (r *AccountRepository) GetByNationalID(ctx context.Context, nationalID string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"national_id": nationalID})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var doc accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return doc.toDomain(), nil
}

// IncrementFailedAttempts bumps the counter in a single atomic update and
// returns the post-increment value.
func (r *AccountRepository) IncrementFailedAttempts(ctx context.Context, id string) (int, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, fmt.Errorf("parse account id: %w", err)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc accountDoc
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$inc": bson.M{"failed_attempts": 1}},
		opts,
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, fmt.Errorf("increment failed attempts: %w", err)
	}

	return doc.FailedAttempts, nil
}

// Lock stamps the lockout expiry on the account.
func (r *AccountRepository) Lock(ctx context.Context, id string, until time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{"locked_until": until},
	})
}

// ResetLockout zeroes the counter and clears any lockout expiry.
func (r *AccountRepository) ResetLockout(ctx context.Context, id string) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"failed_attempts": 0},
		"$unset": bson.M{"locked_until": ""},
	})
}

// RecordLoginSuccess clears the lockout state and stamps the last login.
func (r *AccountRepository) RecordLoginSuccess(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set":   bson.M{"failed_attempts": 0, "last_login": at},
		"$unset": bson.M{"locked_until": ""},
	})
}

func (r *AccountRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("parse account id: %w", err)
	}

	result, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}

	return nil
}
