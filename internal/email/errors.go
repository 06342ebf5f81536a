package email

import (
	"errors"
	"fmt"
)

// ============================================================================
// EMAIL ERROR CODES
// ============================================================================
// These constants mirror domain error codes to avoid circular imports.

const (
	codeInternal = "internal"
	codeInvalid  = "invalid"
)

// EmailError is a configuration or usage error raised before any network call.
type EmailError struct {
	Code    string
	Message string
}

func (e *EmailError) Error() string {
	return e.Message
}

func newEmailError(code, message string) *EmailError {
	return &EmailError{Code: code, Message: message}
}

var (
	// ErrInvalidFromAddress is returned when the client has no sender address.
	ErrInvalidFromAddress = newEmailError(codeInvalid, "Invalid from email address")

	// ErrInvalidToAddress is returned when the recipient was never validated.
	ErrInvalidToAddress = newEmailError(codeInvalid, "Invalid to email address")

	// ErrNoTransport is returned when a client is built without a Sender.
	ErrNoTransport = newEmailError(codeInternal, "Email transport not configured")
)

// ============================================================================
// DELIVERY ERRORS
// ============================================================================

// DeliveryKind classifies a failed delivery attempt.
type DeliveryKind string

const (
	// KindTransport covers connection refused, DNS failures and cancelled requests.
	KindTransport DeliveryKind = "transport"

	// KindTimeout means no response arrived within the configured timeout.
	KindTimeout DeliveryKind = "timeout"

	// KindStatus means the provider answered with a non-2xx status.
	KindStatus DeliveryKind = "status"
)

// DeliveryError reports a failed send. It is always returned to the caller.
type DeliveryError struct {
	Kind       DeliveryKind
	Provider   string
	StatusCode int    // set for KindStatus
	Detail     string // provider message, if any
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.Kind == KindStatus && e.Detail != "":
		return fmt.Sprintf("%s: delivery rejected (status %d): %s", e.Provider, e.StatusCode, e.Detail)
	case e.Kind == KindStatus:
		return fmt.Sprintf("%s: delivery rejected (status %d)", e.Provider, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: delivery failed (%s): %v", e.Provider, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: delivery failed (%s)", e.Provider, e.Kind)
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// AsDeliveryError returns the DeliveryError in err's chain, if any.
func AsDeliveryError(err error) (*DeliveryError, bool) {
	var de *DeliveryError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}
