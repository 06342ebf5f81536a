// Package secret holds credentials that must never reach logs or serialized diagnostics.
package secret

import (
	"fmt"
	"log/slog"
)

const redacted = "[REDACTED]"

// String is an opaque credential such as an API token or a database URL.
// Every formatting path renders it as [REDACTED]; Expose is the only way to read it.
type String struct {
	value string
}

// New wraps a cleartext value.
func New(value string) String {
	return String{value: value}
}

// Expose returns the cleartext value for a single outbound use.
func (s String) Expose() string {
	return s.value
}

// IsEmpty reports whether no value was configured.
func (s String) IsEmpty() bool {
	return s.value == ""
}

func (s String) String() string {
	return redacted
}

func (s String) GoString() string {
	return "secret.String(" + redacted + ")"
}

// Format covers %v, %+v, %#v, %s and %q.
func (s String) Format(f fmt.State, verb rune) {
	switch verb {
	case 'v':
		if f.Flag('#') {
			fmt.Fprint(f, s.GoString())
			return
		}
		fmt.Fprint(f, redacted)
	case 'q':
		fmt.Fprintf(f, "%q", redacted)
	default:
		fmt.Fprint(f, redacted)
	}
}

// LogValue implements slog.LogValuer.
func (s String) LogValue() slog.Value {
	return slog.StringValue(redacted)
}

func (s String) MarshalJSON() ([]byte, error) {
	return []byte(`"` + redacted + `"`), nil
}

func (s String) MarshalText() ([]byte, error) {
	return []byte(redacted), nil
}
