// Package validate holds the registration field rules. Checks run in a fixed
// order and the first failing rule wins; violations are never aggregated.
package validate

import (
	"fmt"
	"regexp"
)

const (
	usernameMinLen = 3
	usernameMaxLen = 50
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern    = regexp.MustCompile(`^\+?[\d\s\-()]{10,20}$`)

	hasUpper = regexp.MustCompile(`[A-Z]`)
	hasLower = regexp.MustCompile(`[a-z]`)
	hasDigit = regexp.MustCompile(`\d`)
)

// Username checks length and the alnum/underscore alphabet.
func Username(username string) error {
	if len(username) < usernameMinLen {
		return fmt.Errorf("username must be at least %d characters long", usernameMinLen)
	}
	if len(username) > usernameMaxLen {
		return fmt.Errorf("username must be at most %d characters long", usernameMaxLen)
	}
	if !usernamePattern.MatchString(username) {
		return fmt.Errorf("username may only contain letters, digits and underscores")
	}
	return nil
}

// Email applies an RFC-light shape check, not full RFC 5322.
func Email(email string) error {
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// Password enforces minimum strength: length, one upper, one lower, one digit.
func Password(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}
	if !hasUpper.MatchString(password) {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower.MatchString(password) {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasDigit.MatchString(password) {
		return fmt.Errorf("password must contain at least one digit")
	}
	return nil
}

// Phone accepts digits, spaces, +, -, parentheses, 10 to 20 characters.
// Empty phones are valid; the field is optional.
func Phone(phone string) error {
	if phone == "" {
		return nil
	}
	if !phonePattern.MatchString(phone) {
		return fmt.Errorf("invalid phone number format")
	}
	return nil
}
