package domain

import (
	"net/netip"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is safe for concurrent use and caches parsed rules.
var validate = validator.New(validator.WithRequiredStructEnabled())

// maxLocalPartLength is the RFC 5321 limit on the part before the @.
const maxLocalPartLength = 64

// SubscriberEmail is an address that passed ParseSubscriberEmail.
// Only the syntax is checked; deliverability is not.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates raw form input into a SubscriberEmail.
// Bracketed IP literal domains such as user@[127.0.0.1] are accepted.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if !isValidEmail(raw) {
		return SubscriberEmail{}, &ValidationError{Field: "email", Reason: ReasonMalformedEmail}
	}
	return SubscriberEmail{value: raw}, nil
}

func isValidEmail(raw string) bool {
	at := strings.LastIndexByte(raw, '@')
	if at < 0 {
		return false
	}
	local, host := raw[:at], raw[at+1:]
	if len(local) > maxLocalPartLength {
		return false
	}

	if literal, ok := strings.CutPrefix(host, "["); ok {
		literal, ok = strings.CutSuffix(literal, "]")
		if !ok {
			return false
		}
		if _, err := netip.ParseAddr(literal); err != nil {
			return false
		}
		// The validator has no IP literal support, so check the local part
		// against a placeholder domain.
		raw = local + "@example.com"
	}

	return validate.Var(raw, "required,email") == nil
}

// String returns the validated address.
func (e SubscriberEmail) String() string {
	return e.value
}

// IsZero reports whether e was never produced by ParseSubscriberEmail.
func (e SubscriberEmail) IsZero() bool {
	return e.value == ""
}
