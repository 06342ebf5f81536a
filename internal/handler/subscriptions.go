package handler

import (
	"errors"
	"net/http"

	"github.com/dukerupert/mailinglist/internal/domain"
	"github.com/dukerupert/mailinglist/internal/middleware"
	"github.com/dukerupert/mailinglist/internal/service"
)

// SubscribeHandler handles POST /subscriptions.
type SubscribeHandler struct {
	subscriptions service.SubscriptionService
}

// NewSubscribeHandler creates a new subscribe handler
func NewSubscribeHandler(subscriptions service.SubscriptionService) *SubscribeHandler {
	return &SubscribeHandler{subscriptions: subscriptions}
}

type subscribeResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// ServeHTTP reads the url-encoded name and email fields and subscribes them.
func (h *SubscribeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "subscription.create"

	if err := r.ParseForm(); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			http.Error(w, "Request body too large", http.StatusRequestEntityTooLarge)
			return
		}
		ErrorResponse(w, r, domain.Invalid(op, "The form could not be read."))
		return
	}

	name, hasName := formValue(r, "name")
	email, hasEmail := formValue(r, "email")
	if !hasName || !hasEmail {
		ErrorResponse(w, r, domain.Invalid(op, "Both name and email are required."))
		return
	}

	sub, err := h.subscriptions.Subscribe(r.Context(), name, email)
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	middleware.GetLogger(r.Context()).Info("subscriber added", "subscription_id", sub.ID)

	if acceptsJSON(r) {
		writeJSON(w, http.StatusOK, subscribeResponse{
			ID:    sub.ID.String(),
			Name:  sub.Subscriber.Name(),
			Email: sub.Subscriber.Email(),
		})
		return
	}

	w.WriteHeader(http.StatusOK)
}

// formValue reports the body field and whether it was sent at all. An empty
// value is still present and left to the validators.
func formValue(r *http.Request, key string) (string, bool) {
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
