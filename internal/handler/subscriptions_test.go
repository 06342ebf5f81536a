package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/mailinglist/internal/domain"
	"github.com/dukerupert/mailinglist/internal/service"
)

// fakeSubscriptionService validates like the real service but stores nothing.
type fakeSubscriptionService struct {
	storeErr error
	calls    int
}

func (f *fakeSubscriptionService) Subscribe(ctx context.Context, name, email string) (*service.Subscription, error) {
	f.calls++
	sub, err := domain.NewSubscriber(name, email)
	if err != nil {
		return nil, err
	}
	if f.storeErr != nil {
		return nil, f.storeErr
	}
	return &service.Subscription{ID: uuid.MustParse("6f1c2f0e-8a51-4a4e-9a53-1b7b6c1f0d2a"), Subscriber: sub}, nil
}

func postForm(t *testing.T, h http.Handler, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/subscriptions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestSubscribeHandler_ValidForm(t *testing.T) {
	svc := &fakeSubscriptionService{}
	h := NewSubscribeHandler(svc)

	form := url.Values{"name": {"le guin"}, "email": {"ursula_le_guin@gmail.com"}}
	rec := postForm(t, h, form.Encode(), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, svc.calls)
}

func TestSubscribeHandler_ValidFormJSONResponse(t *testing.T) {
	h := NewSubscribeHandler(&fakeSubscriptionService{})

	form := url.Values{"name": {"le guin"}, "email": {"ursula_le_guin@gmail.com"}}
	rec := postForm(t, h, form.Encode(), map[string]string{"Accept": "application/json"})

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, map[string]string{
		"id":    "6f1c2f0e-8a51-4a4e-9a53-1b7b6c1f0d2a",
		"name":  "le guin",
		"email": "ursula_le_guin@gmail.com",
	}, body)
}

func TestSubscribeHandler_Returns400(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantReached bool
	}{
		{"missing email", "name=le%20guin", false},
		{"missing name", "email=ursula_le_guin%40gmail.com", false},
		{"missing both", "", false},
		{"empty name", "name=&email=ursula_le_guin%40gmail.com", true},
		{"empty email", "name=Ursula&email=", true},
		{"invalid email", "name=Ursula&email=definitely-not-an-email", true},
		{"forbidden character", "name=%3Cscript%3E&email=ursula_le_guin%40gmail.com", true},
		{"invalid utf-8 name", "name=%FF%FE&email=ursula_le_guin%40gmail.com", true},
		{"local part over 64 characters", "name=Ursula&email=" + strings.Repeat("a", 65) + "%40gmail.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeSubscriptionService{}
			h := NewSubscribeHandler(svc)

			rec := postForm(t, h, tt.body, nil)

			assert.Equal(t, http.StatusBadRequest, rec.Code, "body: %s", tt.body)
			assert.Equal(t, tt.wantReached, svc.calls == 1)
		})
	}
}

func TestSubscribeHandler_StoreErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"duplicate", domain.Conflict("subscription.insert", "This email address is already subscribed."), http.StatusConflict},
		{"database", domain.Internal(errors.New("boom"), "subscription.insert", "failed"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewSubscribeHandler(&fakeSubscriptionService{storeErr: tt.err})

			rec := postForm(t, h, "name=Ursula&email=ursula%40example.com", nil)

			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestSubscribeHandler_ValidationReasonInJSON(t *testing.T) {
	h := NewSubscribeHandler(&fakeSubscriptionService{})

	long := strings.Repeat("a", 257)
	rec := postForm(t, h, "name="+long+"&email=ursula%40example.com", map[string]string{"Accept": "application/json"})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body jsonError
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, domain.EINVALID, body.Error.Code)
	assert.Equal(t, "name", body.Error.Field)
	assert.Equal(t, "too_long", body.Error.Reason)
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}
