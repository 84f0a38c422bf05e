package waitlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"a@b.co", true},
		{"first.last+tag@sub.example.mn", true},
		{"a@b.c.d", true},
		{"", false},
		{"user", false},
		{"user@", false},
		{"@example.com", false},
		{"user@example", false},
		{"user@example.", false},
		{"user@@example.com", false},
		{"us er@example.com", false},
		{"user@exa mple.com", false},
		{"user@example.com\t", false},
		{"user @example.com", false},
		{"user@example .com", false},
		{"user@example.co\ufeff", false},
		{"user\u00a0name@example.com", false},
		{"user@example.com\u2028", false},
		{"user@exa\u3000mple.com", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidEmail(tt.email))
		})
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("  user@example.com\n"))
	assert.Equal(t, "", NormalizeEmail(" \t "))
	assert.True(t, IsValidEmail(NormalizeEmail("  user@example.com  ")))
	assert.Equal(t, "user@example.com", NormalizeEmail("\ufeffuser@example.com"))
}

// Whatever the pattern treats as whitespace must also be trimmed, so a
// padded valid address is never rejected.
func TestNormalizeEmail_TrimsEveryRejectedSpace(t *testing.T) {
	for _, r := range []rune{'\t', '\n', '\v', '\f', '\r', ' ', '\u00a0', '\u1680', '\u2003', '\u202f', '\u3000', '\u2028', '\u2029', '\ufeff'} {
		pad := string(r)

		assert.False(t, IsValidEmail("us"+pad+"er@example.com"), "%U", r)
		assert.Equal(t, "user@example.com", NormalizeEmail(pad+"user@example.com"+pad), "%U", r)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "invalid_format", InvalidFormat.String())
	assert.Equal(t, "accepted", Accepted.String())
	assert.Equal(t, "submission_failed", SubmissionFailed.String())
	assert.Equal(t, "unknown", Outcome(0).String())
}
