package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/cleanops/backoffice-core/internal/core/domain"
)

type securityEventDoc struct {
	EventID    string    `bson:"event_id"`
	Kind       string    `bson:"kind"`
	OccurredAt time.Time `bson:"occurred_at"`
	AccountID  string    `bson:"account_id,omitempty"`
	Username   string    `bson:"username,omitempty"`
	Role       string    `bson:"role,omitempty"`
	IP         string    `bson:"ip,omitempty"`
	UserAgent  string    `bson:"user_agent,omitempty"`
	Detail     string    `bson:"detail,omitempty"`
}

// SecurityEventRepository implements port.SecurityLog as an append-only
// MongoDB collection. Retention is handled operationally (a scheduled
// purge on occurred_at), not by this repository.
type SecurityEventRepository struct {
	col *mongo.Collection
}

// NewSecurityEventRepository wires the audit sink.
func NewSecurityEventRepository(col *mongo.Collection) *SecurityEventRepository {
	return &SecurityEventRepository{col: col}
}

// Record appends a single event. Callers treat failures as best-effort.
func (r *SecurityEventRepository) Record(ctx context.Context, event domain.SecurityEvent) error {
	doc := securityEventDoc{
		EventID:    event.ID,
		Kind:       string(event.Kind),
		OccurredAt: event.OccurredAt,
		AccountID:  event.AccountID,
		Username:   event.Username,
		Role:       string(event.Role),
		IP:         event.IP,
		UserAgent:  event.UserAgent,
		Detail:     event.Detail,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert security event: %w", err)
	}

	return nil
}
