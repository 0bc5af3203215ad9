package service

import (
	"errors"
	"net/mail"
	"strings"
)

func validateEmail(email string) error {
	if email == "" {
		return invalid("email", "email is required")
	}
	if !isEmail(email) {
		return invalid("email", "invalid email format")
	}
	return nil
}

// isEmail accepts a bare addr-spec with a dotted domain, e.g.
// "alice@example.com". Display names and angle brackets are rejected.
func isEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return false
	}
	at := strings.LastIndexByte(email, '@')
	domain := email[at+1:]
	return strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") &&
		!strings.HasSuffix(domain, ".") &&
		!strings.Contains(domain, "..")
}

func validateCreate(name, email, password string) error {
	var errs []error
	if name == "" {
		errs = append(errs, invalid("name", "name is required"))
	}
	if err := validateEmail(email); err != nil {
		errs = append(errs, err)
	}
	if password == "" {
		errs = append(errs, invalid("password", "password is required"))
	}
	return errors.Join(errs...)
}

func validateLogin(email, password string) error {
	var errs []error
	if email == "" {
		errs = append(errs, invalid("email", "email is required"))
	}
	if password == "" {
		errs = append(errs, invalid("password", "password is required"))
	}
	return errors.Join(errs...)
}
