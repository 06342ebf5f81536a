package domain

import (
	"strings"
	"testing"
)

func TestParseSubscriberName_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"simple", "Marie"},
		{"with space", "le guin"},
		{"256 ascii graphemes", strings.Repeat("e", 256)},
		{"256 combining graphemes", strings.Repeat("e\u0301", 256)},
		{"256 emoji sequences", strings.Repeat("\U0001F469\u200D\U0001F469\u200D\U0001F467", 256)},
		{"surrounding whitespace kept", "  Ursula  "},
		{"unicode letters", "Ἀριστοτέλης"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubscriberName(tt.input)
			if err != nil {
				t.Fatalf("ParseSubscriberName() error = %v", err)
			}
			if got.String() != tt.input {
				t.Errorf("String() = %q, want %q", got.String(), tt.input)
			}
		})
	}
}

func TestParseSubscriberName_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		reason Reason
	}{
		{"empty", "", ReasonEmptyOrWhitespace},
		{"single space", " ", ReasonEmptyOrWhitespace},
		{"mixed whitespace", " \t\n\r ", ReasonEmptyOrWhitespace},
		{"257 graphemes", strings.Repeat("e", 257), ReasonTooLong},
		{"257 combining graphemes", strings.Repeat("e\u0301", 257), ReasonTooLong},
		{"long and forbidden", strings.Repeat("(", 300), ReasonTooLong},
		{"forbidden inside", "Ursula <script>", ReasonForbiddenCharacter},
		{"invalid utf-8", "\xff\xfe", ReasonForbiddenCharacter},
		{"truncated utf-8 after letters", "Ursula \xe2\x82", ReasonForbiddenCharacter},
		{"nul byte", "a\x00b", ReasonForbiddenCharacter},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSubscriberName(tt.input)
			if err == nil {
				t.Fatal("ParseSubscriberName() expected error, got nil")
			}
			if got := ValidationReason(err); got != tt.reason {
				t.Errorf("reason = %q, want %q", got, tt.reason)
			}
		})
	}
}

func TestParseSubscriberName_ForbiddenCharacters(t *testing.T) {
	for _, c := range []string{"/", "(", ")", `"`, "<", ">", "\\", "{", "}"} {
		t.Run(c, func(t *testing.T) {
			_, err := ParseSubscriberName(c)
			if got := ValidationReason(err); got != ReasonForbiddenCharacter {
				t.Errorf("ParseSubscriberName(%q) reason = %q, want %q", c, got, ReasonForbiddenCharacter)
			}
		})
	}
}

func TestParseSubscriberName_LongInputAlwaysRejected(t *testing.T) {
	for _, n := range []int{257, 300, 1024} {
		if _, err := ParseSubscriberName(strings.Repeat("a", n)); err == nil {
			t.Errorf("name of %d graphemes accepted", n)
		}
	}
}
