package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mailinglist/internal/domain"
)

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	calls []execCall
	err   error
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func newSubscriber(t *testing.T) *domain.Subscriber {
	t.Helper()
	sub, err := domain.NewSubscriber("le guin", "ursula_le_guin@gmail.com")
	require.NoError(t, err)
	return sub
}

func TestSubscriptionStore_Insert(t *testing.T) {
	db := &fakeDB{}
	store := NewSubscriptionStore(db)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	store.now = func() time.Time { return fixed }

	id, err := store.Insert(context.Background(), newSubscriber(t))
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	require.Len(t, db.calls, 1)
	args := db.calls[0].args
	require.Len(t, args, 4)
	assert.Equal(t, id, args[0])
	assert.Equal(t, "ursula_le_guin@gmail.com", args[1])
	assert.Equal(t, "le guin", args[2])
	assert.Equal(t, fixed.UTC(), args[3])
	assert.Contains(t, db.calls[0].sql, "INSERT INTO subscriptions")
}

func TestSubscriptionStore_InsertErrors(t *testing.T) {
	tests := []struct {
		name     string
		dbErr    error
		wantCode string
	}{
		{
			name:     "duplicate email",
			dbErr:    &pgconn.PgError{Code: "23505", ConstraintName: "subscriptions_email_key"},
			wantCode: domain.ECONFLICT,
		},
		{
			name:     "wrapped duplicate email",
			dbErr:    errors.Join(errors.New("exec"), &pgconn.PgError{Code: "23505"}),
			wantCode: domain.ECONFLICT,
		},
		{
			name:     "other constraint",
			dbErr:    &pgconn.PgError{Code: "23502"},
			wantCode: domain.EINTERNAL,
		},
		{
			name:     "connection failure",
			dbErr:    errors.New("connection reset by peer"),
			wantCode: domain.EINTERNAL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewSubscriptionStore(&fakeDB{err: tt.dbErr})

			id, err := store.Insert(context.Background(), newSubscriber(t))

			require.Error(t, err)
			assert.Equal(t, uuid.Nil, id)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			assert.Equal(t, "subscription.insert", domain.ErrorOp(err))
		})
	}
}
