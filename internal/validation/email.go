package validation

import (
	"errors"
	"net/mail"
)

// ValidateEmail checks a submitted address beyond basic format: RFC 5321
// caps the total address at 254 characters, which the format check alone
// does not enforce.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email address is required")
	}
	if len(email) > 254 {
		return errors.New("email address is too long (max 254 characters)")
	}

	_, err := mail.ParseAddress(email)
	if err != nil {
		return errors.New("invalid email address format")
	}
	return nil
}
