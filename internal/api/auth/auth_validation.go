package auth

import (
	"regexp"
	"unicode/utf8"

	"github.com/FACorreiaa/skill-registry/internal/api"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 50
	minPasswordLength = 6
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateUsername checks length and allowed characters.
func ValidateUsername(username string) error {
	n := utf8.RuneCountInString(username)
	if n < minUsernameLength || n > maxUsernameLength {
		return api.Errorf(api.ErrValidation, "username must be between %d and %d characters", minUsernameLength, maxUsernameLength)
	}
	if !usernamePattern.MatchString(username) {
		return api.NewError(api.ErrValidation, "username may only contain letters, digits, '_', '-' and '.'")
	}
	return nil
}

// ValidatePassword checks the length bounds bcrypt can honor.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return api.Errorf(api.ErrValidation, "password must be at least %d characters", minPasswordLength)
	}
	if len(password) > maxPasswordBytes {
		return api.Errorf(api.ErrValidation, "password must be at most %d bytes", maxPasswordBytes)
	}
	return nil
}
