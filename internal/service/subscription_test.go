package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mailinglist/internal/domain"
	"github.com/dukerupert/mailinglist/internal/jobs"
	"github.com/dukerupert/mailinglist/internal/telemetry"
)

// =============================================================================
// FAKES
// =============================================================================

type mockSubscriptionStore struct {
	insertID  uuid.UUID
	insertErr error

	inserted []*domain.Subscriber
}

func (m *mockSubscriptionStore) Insert(ctx context.Context, sub *domain.Subscriber) (uuid.UUID, error) {
	m.inserted = append(m.inserted, sub)
	if m.insertErr != nil {
		return uuid.Nil, m.insertErr
	}
	return m.insertID, nil
}

type enqueued struct {
	jobType string
	payload any
}

type mockQueue struct {
	err   error
	calls []enqueued
}

func (m *mockQueue) Enqueue(ctx context.Context, jobType string, payload any) error {
	m.calls = append(m.calls, enqueued{jobType: jobType, payload: payload})
	return m.err
}

func newTestService(store SubscriptionStore, q *mockQueue) (SubscriptionService, *telemetry.BusinessMetrics) {
	metrics := telemetry.NewBusinessMetrics("test", prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewSubscriptionService(store, q, metrics, logger), metrics
}

// =============================================================================
// TESTS
// =============================================================================

func TestSubscriptionService_Subscribe(t *testing.T) {
	id := uuid.New()
	store := &mockSubscriptionStore{insertID: id}
	q := &mockQueue{}
	svc, metrics := newTestService(store, q)

	got, err := svc.Subscribe(context.Background(), "le guin", "ursula_le_guin@gmail.com")

	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "le guin", got.Subscriber.Name())
	assert.Equal(t, "ursula_le_guin@gmail.com", got.Subscriber.Email())

	require.Len(t, store.inserted, 1)
	require.Len(t, q.calls, 1)
	assert.Equal(t, jobs.JobTypeWelcome, q.calls[0].jobType)

	data, err := json.Marshal(q.calls[0].payload)
	require.NoError(t, err)
	assert.JSONEq(t, `{"email":"ursula_le_guin@gmail.com","name":"le guin"}`, string(data))

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubscriptionAttempts.WithLabelValues(telemetry.OutcomeCreated)))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.JobsEnqueued.WithLabelValues(jobs.JobTypeWelcome)))
}

func TestSubscriptionService_SubscribeRejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name       string
		inName     string
		inEmail    string
		wantField  string
		wantReason domain.Reason
	}{
		{"blank name", " ", "a@example.com", "name", domain.ReasonEmptyOrWhitespace},
		{"forbidden name", "{ann}", "a@example.com", "name", domain.ReasonForbiddenCharacter},
		{"bad email", "Ann", "ann.example.com", "email", domain.ReasonMalformedEmail},
		{"both invalid", "", "", "name", domain.ReasonEmptyOrWhitespace},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockSubscriptionStore{}
			q := &mockQueue{}
			svc, metrics := newTestService(store, q)

			got, err := svc.Subscribe(context.Background(), tt.inName, tt.inEmail)

			require.Error(t, err)
			assert.Nil(t, got)

			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.wantField, ve.Field)
			assert.Equal(t, tt.wantReason, ve.Reason)

			assert.Empty(t, store.inserted, "invalid input must never reach the store")
			assert.Empty(t, q.calls)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationFailures.WithLabelValues(tt.wantField, string(tt.wantReason))))
		})
	}
}

func TestSubscriptionService_SubscribeStoreErrors(t *testing.T) {
	tests := []struct {
		name        string
		storeErr    error
		wantCode    string
		wantOutcome string
	}{
		{"duplicate", domain.Conflict("subscription.insert", "already subscribed"), domain.ECONFLICT, telemetry.OutcomeDuplicate},
		{"database down", domain.Internal(errors.New("conn refused"), "subscription.insert", "insert failed"), domain.EINTERNAL, telemetry.OutcomeError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &mockQueue{}
			svc, metrics := newTestService(&mockSubscriptionStore{insertErr: tt.storeErr}, q)

			_, err := svc.Subscribe(context.Background(), "Ann", "ann@example.com")

			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			assert.Empty(t, q.calls)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.SubscriptionAttempts.WithLabelValues(tt.wantOutcome)))
		})
	}
}

func TestSubscriptionService_EnqueueFailureIsNotReturned(t *testing.T) {
	q := &mockQueue{err: errors.New("nats: connection closed")}
	svc, metrics := newTestService(&mockSubscriptionStore{insertID: uuid.New()}, q)

	got, err := svc.Subscribe(context.Background(), "Ann", "ann@example.com")

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, q.calls, 1)
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.JobsEnqueued.WithLabelValues(jobs.JobTypeWelcome)))
}
