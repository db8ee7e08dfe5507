package service

import (
	"fmt"
	"net/mail"
	"strings"
)

// NormalizeEmail parses a single address and returns its bare, lower-cased form:
// "Jane Doe <Jane@Example.com>" becomes "jane@example.com".
func NormalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%w: email", ErrInvalidInput)
	}
	return strings.ToLower(addr.Address), nil
}
