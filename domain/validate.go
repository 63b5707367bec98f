package domain

import (
	"net/mail"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLen        = 50
	maxDescriptionLen = 100
	maxPasswordLen    = 72 // bytes, the bcrypt input limit
	minPasswordLen    = 3
)

func requireText(field, v string, max int) error {
	if strings.TrimSpace(v) == "" {
		return Invalid(field, "is required")
	}
	return limitText(field, v, max)
}

func limitText(field, v string, max int) error {
	if utf8.RuneCountInString(v) > max {
		return Invalid(field, "is too long")
	}
	return nil
}

func validateEmail(v string) error {
	if err := requireText("email", v, maxNameLen); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(v)
	if err != nil || addr.Address != v {
		return Invalid("email", "is not a valid address")
	}
	return nil
}

func validatePassword(v string) error {
	n := utf8.RuneCountInString(v)
	if n < minPasswordLen {
		return Invalid("password", "is too short")
	}
	if len(v) > maxPasswordLen {
		return Invalid("password", "is too long")
	}
	return nil
}

func positiveID(field string, id int64) error {
	if id <= 0 {
		return Invalid(field, "must be a positive id")
	}
	return nil
}
