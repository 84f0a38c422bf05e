package waitlist

import (
	"regexp"
	"strings"
	"unicode"
)

type Outcome int

const (
	InvalidFormat Outcome = iota + 1
	Accepted
	SubmissionFailed
)

func (o Outcome) String() string {
	switch o {
	case InvalidFormat:
		return "invalid_format"
	case Accepted:
		return "accepted"
	case SubmissionFailed:
		return "submission_failed"
	default:
		return "unknown"
	}
}

// Result is what a submission reports back to the presentation layer.
// Message is already localized.
type Result struct {
	Outcome Outcome
	Message string
}

// The character class is "not @ and not whitespace", where whitespace is the
// full Unicode set the browser form validates against, not RE2's ASCII \s.
const emailRune = `[^@\s\v\p{Zs}\x{2028}\x{2029}\x{FEFF}]`

var emailPattern = regexp.MustCompile(`^` + emailRune + `+@` + emailRune + `+\.` + emailRune + `+$`)

// isFormSpace matches exactly the runes emailRune excludes besides '@'.
func isFormSpace(r rune) bool {
	switch r {
	case '\t', '\n', '\v', '\f', '\r', ' ', '\u2028', '\u2029', '\ufeff':
		return true
	}
	return unicode.Is(unicode.Zs, r)
}

// NormalizeEmail strips the same whitespace set the pattern rejects,
// byte order marks included.
func NormalizeEmail(candidate string) string {
	return strings.TrimFunc(candidate, isFormSpace)
}

// IsValidEmail accepts local@domain.tld with no whitespace or extra @.
// There are no length bounds.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
