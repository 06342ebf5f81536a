package queue

import "context"

// Inline hands jobs straight to an in-process handler. Used when no broker is
// configured.
type Inline struct {
	handler Handler
}

// NewInline creates an Inline queue delivering to handler.
func NewInline(handler Handler) (*Inline, error) {
	if handler == nil {
		return nil, ErrHandlerRequired
	}
	return &Inline{handler: handler}, nil
}

// Enqueue builds the job envelope and passes it to the handler.
func (q *Inline) Enqueue(ctx context.Context, jobType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	job, err := NewJob(jobType, payload)
	if err != nil {
		return err
	}

	return q.handler(ctx, job)
}
