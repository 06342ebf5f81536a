package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/dukerupert/mailinglist/internal/domain"
)

// SubscriptionService provides business logic for subscription operations.
type SubscriptionService interface {
	// Subscribe adds a subscriber to the list.
	//
	// Flow:
	//  1. Validates name and email (name first)
	//  2. Stores the subscription
	//  3. Enqueues the welcome email job
	//
	// Returns a *domain.ValidationError for rejected input and a
	// domain.ECONFLICT error when the email is already subscribed.
	// A failure to enqueue the welcome email is logged, not returned.
	Subscribe(ctx context.Context, name, email string) (*Subscription, error)
}

// Subscription is a stored subscriber.
type Subscription struct {
	ID         uuid.UUID
	Subscriber *domain.Subscriber
}

// SubscriptionStore persists subscribers. Implemented by postgres.SubscriptionStore.
type SubscriptionStore interface {
	Insert(ctx context.Context, sub *domain.Subscriber) (uuid.UUID, error)
}
