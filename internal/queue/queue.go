// Package queue carries background jobs from request handlers to workers.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrHandlerRequired is returned when a consumer is started without a handler.
var ErrHandlerRequired = errors.New("queue: handler is required")

// Job is the envelope published for every background job.
type Job struct {
	ID         uuid.UUID       `json:"id"`
	Type       string          `json:"type"`
	Payload    json.RawMessage `json:"payload"`
	EnqueuedAt time.Time       `json:"enqueued_at"`
}

// Queue accepts jobs for asynchronous processing.
type Queue interface {
	Enqueue(ctx context.Context, jobType string, payload any) error
}

// Handler consumes a single job.
type Handler func(ctx context.Context, job *Job) error

// NewJob wraps payload in a Job envelope.
func NewJob(jobType string, payload any) (*Job, error) {
	if jobType == "" {
		return nil, errors.New("queue: job type is required")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal %s payload: %w", jobType, err)
	}

	return &Job{
		ID:         uuid.New(),
		Type:       jobType,
		Payload:    data,
		EnqueuedAt: time.Now().UTC(),
	}, nil
}
