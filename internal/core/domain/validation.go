package domain

import (
	"net/mail"
	"strings"
)

const MinPasswordLength = 6

// ValidateDraft checks a registration draft and reports every violation.
func ValidateDraft(d Draft) error {
	verr := &ValidationError{}
	if blank(d.Name) {
		verr.add("name", "is required")
	}
	if d.Age <= 0 {
		verr.add("age", "must be a positive integer")
	}
	if !d.Gender.Valid() {
		verr.add("gender", "must be one of Male, Female, Other")
	}
	if blank(d.Contact) {
		verr.add("contact", "is required")
	}
	return verr.orNil()
}

// ValidatePatch checks the shape of the demographic fields a patch touches.
// Lifecycle rules are enforced separately by the lifecycle engine.
func ValidatePatch(p Patch) error {
	verr := &ValidationError{}
	if p.Name != nil && blank(*p.Name) {
		verr.add("name", "must not be empty")
	}
	if p.Age != nil && *p.Age <= 0 {
		verr.add("age", "must be a positive integer")
	}
	if p.Gender != nil && !p.Gender.Valid() {
		verr.add("gender", "must be one of Male, Female, Other")
	}
	if p.Contact != nil && blank(*p.Contact) {
		verr.add("contact", "must not be empty")
	}
	if p.Status != nil && !p.Status.Valid() {
		verr.add("status", "is not a known status")
	}
	return verr.orNil()
}

// ValidateNewUser checks the admin form for a staff account.
func ValidateNewUser(u NewUser) error {
	verr := &ValidationError{}
	if blank(u.Name) {
		verr.add("name", "is required")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(u.Email)); err != nil {
		verr.add("email", "must be a valid email address")
	}
	if !u.Role.Valid() {
		verr.add("role", "must be one of Doctor, Receptionist, Admin")
	}
	if len(u.Password) < MinPasswordLength {
		verr.add("password", "must be at least 6 characters")
	}
	return verr.orNil()
}

func ValidatePassword(password string) error {
	verr := &ValidationError{}
	if len(password) < MinPasswordLength {
		verr.add("password", "must be at least 6 characters")
	}
	return verr.orNil()
}

// NormalizeEmail is the canonical form used for uniqueness checks.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
