package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dukerupert/mailinglist/internal/domain"
	"github.com/dukerupert/mailinglist/internal/email"
	"github.com/dukerupert/mailinglist/internal/queue"
	"github.com/dukerupert/mailinglist/internal/telemetry"
)

// Job type constants for email jobs
const (
	JobTypeWelcome = "email:welcome"
)

// Email job payloads (JSON-serializable)

// WelcomePayload represents the payload for a welcome email job
type WelcomePayload struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// NewWelcomePayload builds the job payload from a stored subscriber.
func NewWelcomePayload(sub *domain.Subscriber) WelcomePayload {
	return WelcomePayload{Email: sub.Email(), Name: sub.Name()}
}

// WelcomeSender sends the welcome email. Satisfied by *email.Service.
type WelcomeSender interface {
	SendWelcome(ctx context.Context, to domain.SubscriberEmail, name domain.SubscriberName) error
}

// EmailHandler processes email jobs.
type EmailHandler struct {
	sender  WelcomeSender
	metrics *telemetry.BusinessMetrics
}

// NewEmailHandler creates an EmailHandler. metrics may be nil.
func NewEmailHandler(sender WelcomeSender, metrics *telemetry.BusinessMetrics) *EmailHandler {
	return &EmailHandler{sender: sender, metrics: metrics}
}

// HandleWelcome sends the welcome email for a welcome job. Payload fields are
// validated again since they crossed a process boundary.
func (h *EmailHandler) HandleWelcome(ctx context.Context, job *queue.Job) error {
	var payload WelcomePayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		h.failed("invalid_payload")
		return fmt.Errorf("failed to unmarshal welcome payload: %w", err)
	}

	name, err := domain.ParseSubscriberName(payload.Name)
	if err != nil {
		h.failed("invalid_payload")
		return fmt.Errorf("welcome payload rejected: %w", err)
	}
	to, err := domain.ParseSubscriberEmail(payload.Email)
	if err != nil {
		h.failed("invalid_payload")
		return fmt.Errorf("welcome payload rejected: %w", err)
	}

	if err := h.sender.SendWelcome(ctx, to, name); err != nil {
		errorType := "unknown"
		var ee *email.EmailError
		if de, ok := email.AsDeliveryError(err); ok {
			errorType = string(de.Kind)
		} else if errors.As(err, &ee) {
			errorType = ee.Code
		}
		h.failed(errorType)
		return err
	}

	if h.metrics != nil {
		h.metrics.EmailSent.WithLabelValues("welcome").Inc()
	}
	return nil
}

func (h *EmailHandler) failed(errorType string) {
	if h.metrics != nil {
		h.metrics.EmailFailed.WithLabelValues("welcome", errorType).Inc()
	}
}
