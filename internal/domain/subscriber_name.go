package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// MaxNameLength is the longest accepted name, counted in grapheme clusters.
const MaxNameLength = 256

const forbiddenNameCharacters = `/()"<>{}\`

// SubscriberName is a display name that passed ParseSubscriberName.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates raw form input into a SubscriberName.
// The original string is kept as submitted, surrounding whitespace included.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	isEmpty := strings.TrimSpace(raw) == ""
	isTooLong := uniseg.GraphemeClusterCount(raw) > MaxNameLength
	// Invalid UTF-8 and NUL bytes cannot be stored in a text column.
	hasForbidden := strings.ContainsAny(raw, forbiddenNameCharacters) ||
		!utf8.ValidString(raw) || strings.ContainsRune(raw, 0)

	switch {
	case isEmpty:
		return SubscriberName{}, &ValidationError{Field: "name", Reason: ReasonEmptyOrWhitespace}
	case isTooLong:
		return SubscriberName{}, &ValidationError{Field: "name", Reason: ReasonTooLong}
	case hasForbidden:
		return SubscriberName{}, &ValidationError{Field: "name", Reason: ReasonForbiddenCharacter}
	}

	return SubscriberName{value: raw}, nil
}

// String returns the validated name.
func (n SubscriberName) String() string {
	return n.value
}
