package utils

import (
	"regexp"
	"strings"

	"forumhub/pkg/models"
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9+._%\-]{1,256}@[a-zA-Z0-9][a-zA-Z0-9\-]{0,64}(\.[a-zA-Z0-9][a-zA-Z0-9\-]{0,25})+$`)
)

// MinPasswordLength matches the sign-up form rule
const MinPasswordLength = 6

// RequiredText trims s and reports whether anything is left
func RequiredText(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != ""
}

// ValidateEmail checks the address the way the sign-up form does
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return models.ErrInvalidInput
	}
	return nil
}

// ValidatePassword checks the minimum password length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return models.ErrInvalidInput
	}
	return nil
}

// ValidateRegisterRequest trims the form fields and validates them
func ValidateRegisterRequest(req *models.RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)

	if req.FullName == "" {
		return models.NewHTTPError(models.ErrCodeValidation, "full name is required", 400, models.ErrInvalidInput)
	}
	if err := ValidateEmail(req.Email); err != nil {
		return models.NewHTTPError(models.ErrCodeValidation, "a valid email is required", 400, err)
	}
	if err := ValidatePassword(req.Password); err != nil {
		return models.NewHTTPError(models.ErrCodeValidation, "password must be at least 6 characters", 400, err)
	}
	return nil
}
