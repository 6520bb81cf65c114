// Package uuid provides UUID v4 generation and validation.
//
// Record and queue identifiers are client-generated v4 UUIDs; the id assigned
// at creation time is the merge key between local and remote copies and never
// changes.
package uuid

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

var v4Pattern = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-4[0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}$`)

// New generates a new UUID v4 string.
func New() string {
	return uuid.New().String()
}

// IsValid reports whether s is a well-formed UUID v4 with correct variant bits.
func IsValid(s string) bool {
	return v4Pattern.MatchString(s)
}

// Validate returns an error when s is not a valid UUID v4.
func Validate(s string) error {
	if !IsValid(s) {
		return fmt.Errorf("invalid UUID v4: %q", s)
	}
	return nil
}
