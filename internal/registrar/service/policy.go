package service

import (
	"fmt"
	"regexp"
)

// usernamePattern follows Matrix localpart grammar: lowercase letters,
// digits, and -_.=/ only.
var usernamePattern = regexp.MustCompile(`^[a-z0-9\-_.=/]+$`)

const maxUsernameLength = 255

// ValidateUsername checks a desired localpart against the allowed character
// set and length bounds. The returned error is user-facing.
func ValidateUsername(username string) error {
	if username == "" || len(username) > maxUsernameLength {
		return &PolicyViolationError{
			Reason: "Username must be between 1 and 255 characters.",
		}
	}
	if !usernamePattern.MatchString(username) {
		return &PolicyViolationError{
			Reason: "Invalid username. Usernames can only contain lowercase letters, numbers, and the characters -_.=/",
		}
	}
	return nil
}

var (
	digitPattern   = regexp.MustCompile(`\d`)
	specialPattern = regexp.MustCompile(`[-_!@#$%^&*(),.?":{}|<>\[\]+]`)
)

// PasswordPolicy holds the configured strength requirements. Thresholds come
// from configuration, not code.
type PasswordPolicy struct {
	MinLength      int
	RequireDigit   bool
	RequireSpecial bool
}

// DefaultPasswordPolicy matches the policy the registration form documents.
var DefaultPasswordPolicy = PasswordPolicy{
	MinLength:      8,
	RequireDigit:   true,
	RequireSpecial: true,
}

// Validate checks a candidate password and returns a user-facing
// *PolicyViolationError describing the first unmet requirement.
func (p PasswordPolicy) Validate(password string) error {
	if len(password) < p.MinLength {
		return &PolicyViolationError{
			Reason: fmt.Sprintf("Password must be at least %d characters long.", p.MinLength),
		}
	}
	if p.RequireDigit && !digitPattern.MatchString(password) {
		return &PolicyViolationError{
			Reason: "Password must include at least one number.",
		}
	}
	if p.RequireSpecial && !specialPattern.MatchString(password) {
		return &PolicyViolationError{
			Reason: "Password must contain at least one special character.",
		}
	}
	return nil
}
