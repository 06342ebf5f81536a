package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dukerupert/mailinglist/internal/domain"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// DBTX is the subset of *pgxpool.Pool, *pgx.Conn and pgx.Tx the store needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// SubscriptionStore persists subscribers in the subscriptions table.
type SubscriptionStore struct {
	db  DBTX
	now func() time.Time
}

// NewSubscriptionStore creates a store backed by db.
func NewSubscriptionStore(db DBTX) *SubscriptionStore {
	return &SubscriptionStore{db: db, now: time.Now}
}

const insertSubscription = `
INSERT INTO subscriptions (id, email, name, subscribed_at)
VALUES ($1, $2, $3, $4)
`

// Insert stores a validated subscriber and returns the new row id.
// A duplicate email yields a domain.ECONFLICT error.
func (s *SubscriptionStore) Insert(ctx context.Context, sub *domain.Subscriber) (uuid.UUID, error) {
	const op = "subscription.insert"

	id := uuid.New()
	_, err := s.db.Exec(ctx, insertSubscription, id, sub.Email(), sub.Name(), s.now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return uuid.Nil, domain.Conflict(op, "This email address is already subscribed.")
		}
		return uuid.Nil, domain.Internal(err, op, "failed to insert subscription")
	}

	return id, nil
}
