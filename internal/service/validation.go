package service

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/msomdec/account-portal/internal/domain"
)

const (
	minUsernameLength = 3
	minPasswordLength = 8
	maxPasswordLength = 17
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

	htmlEscaper = strings.NewReplacer(
		"<", "&lt;",
		">", "&gt;",
		"&", "&amp;",
		`"`, "&quot;",
		"'", "&#x27;",
	)
)

// ValidateUsername checks the length and character set of a username.
func ValidateUsername(s string) error {
	if utf8.RuneCountInString(s) < minUsernameLength {
		return domain.NewError(domain.ErrInvalidInput, "Username must be at least 3 characters long.")
	}
	if !usernamePattern.MatchString(s) {
		return domain.NewError(domain.ErrInvalidInput, "Username can only contain letters, numbers, underscores and dashes.")
	}
	return nil
}

// ValidateEmail checks that s looks like local@domain.tld.
func ValidateEmail(s string) error {
	if !emailPattern.MatchString(s) {
		return domain.NewError(domain.ErrInvalidInput, "Please enter a valid email address.")
	}
	return nil
}

// ValidatePassword checks that the password length is within bounds.
func ValidatePassword(s string) error {
	n := utf8.RuneCountInString(s)
	if n < minPasswordLength || n > maxPasswordLength {
		return domain.NewError(domain.ErrInvalidInput, "Password must be between 8 and 17 characters long.")
	}
	return nil
}

// Sanitize escapes HTML-significant characters. Already escaped text is
// escaped again.
func Sanitize(s string) string {
	return htmlEscaper.Replace(s)
}
