package domain

import (
	"math/rand/v2"
	"strings"
	"testing"
)

const localAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789_"

// safeEmail mimics the usual faker output: word[.word]@example.{com,net,org}.
func safeEmail(r *rand.Rand) string {
	word := func() string {
		n := 1 + r.IntN(12)
		var b strings.Builder
		for range n {
			b.WriteByte(localAlphabet[r.IntN(len(localAlphabet))])
		}
		return b.String()
	}

	local := word()
	if r.IntN(2) == 0 {
		local += "." + word()
	}
	tld := []string{"com", "net", "org"}[r.IntN(3)]
	return local + "@example." + tld
}

func TestParseSubscriberEmail_GeneratedAddresses(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 1024))
	for range 1000 {
		addr := safeEmail(r)
		got, err := ParseSubscriberEmail(addr)
		if err != nil {
			t.Fatalf("ParseSubscriberEmail(%q) error = %v", addr, err)
		}
		if got.String() != addr {
			t.Fatalf("String() = %q, want %q", got.String(), addr)
		}
	}
}

func TestParseSubscriberEmail_Accepts(t *testing.T) {
	for _, addr := range []string{
		"ursula_le_guin@gmail.com",
		"first.last+tag@sub.example.co.uk",
		"x@example.io",
		strings.Repeat("a", 64) + "@example.com",
		"user@[127.0.0.1]",
		"user@[::1]",
	} {
		t.Run(addr, func(t *testing.T) {
			if _, err := ParseSubscriberEmail(addr); err != nil {
				t.Errorf("ParseSubscriberEmail(%q) error = %v", addr, err)
			}
		})
	}
}

func TestParseSubscriberEmail_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace", "   "},
		{"missing at symbol", "mariegmail.com"},
		{"missing local part", "@gmail.com"},
		{"missing domain", "marie@"},
		{"double at", "marie@@gmail.com"},
		{"domain without dot", "marie@localhost"},
		{"not an email", "Not-An-Email"},
		{"65 character local part", strings.Repeat("a", 65) + "@example.com"},
		{"bad ip literal", "user@[999.0.0.1]"},
		{"unclosed ip literal", "user@[127.0.0.1"},
		{"empty local with ip literal", "@[127.0.0.1]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSubscriberEmail(tt.input)
			if err == nil {
				t.Fatalf("ParseSubscriberEmail(%q) = %q, want error", tt.input, got)
			}
			if reason := ValidationReason(err); reason != ReasonMalformedEmail {
				t.Errorf("reason = %q, want %q", reason, ReasonMalformedEmail)
			}
			if !got.IsZero() {
				t.Error("rejected email should be the zero value")
			}
		})
	}
}
