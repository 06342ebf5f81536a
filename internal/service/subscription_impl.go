package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dukerupert/mailinglist/internal/domain"
	"github.com/dukerupert/mailinglist/internal/jobs"
	"github.com/dukerupert/mailinglist/internal/queue"
	"github.com/dukerupert/mailinglist/internal/telemetry"
)

type subscriptionService struct {
	store   SubscriptionStore
	queue   queue.Queue
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// Compile-time check
var _ SubscriptionService = (*subscriptionService)(nil)

// NewSubscriptionService creates a SubscriptionService. metrics may be nil.
func NewSubscriptionService(store SubscriptionStore, q queue.Queue, metrics *telemetry.BusinessMetrics, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		store:   store,
		queue:   q,
		metrics: metrics,
		logger:  logger,
	}
}

func (s *subscriptionService) Subscribe(ctx context.Context, name, email string) (*Subscription, error) {
	sub, err := domain.NewSubscriber(name, email)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) && s.metrics != nil {
			s.metrics.ValidationFailures.WithLabelValues(ve.Field, string(ve.Reason)).Inc()
		}
		s.record(telemetry.OutcomeInvalid)
		return nil, err
	}

	id, err := s.store.Insert(ctx, sub)
	if err != nil {
		if domain.IsCode(err, domain.ECONFLICT) {
			s.record(telemetry.OutcomeDuplicate)
		} else {
			s.record(telemetry.OutcomeError)
		}
		return nil, err
	}
	s.record(telemetry.OutcomeCreated)

	if err := s.queue.Enqueue(ctx, jobs.JobTypeWelcome, jobs.NewWelcomePayload(sub)); err != nil {
		s.logger.Error("failed to enqueue welcome email",
			"subscription_id", id,
			"job_type", jobs.JobTypeWelcome,
			"error", err,
		)
	} else if s.metrics != nil {
		s.metrics.JobsEnqueued.WithLabelValues(jobs.JobTypeWelcome).Inc()
	}

	return &Subscription{ID: id, Subscriber: sub}, nil
}

func (s *subscriptionService) record(outcome string) {
	if s.metrics != nil {
		s.metrics.SubscriptionAttempts.WithLabelValues(outcome).Inc()
	}
}
