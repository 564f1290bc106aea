package errors

import (
	"strings"
	"unicode"
)

// ValidateWorkshopID checks that id looks like a published file ID: a
// non-empty run of ASCII digits no longer than 20 characters.
func ValidateWorkshopID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidWorkshopID, "workshop ID cannot be empty")
	}
	if len(id) > 20 {
		return New(ErrCodeInvalidWorkshopID, "workshop ID too long: %q", id)
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidWorkshopID, "workshop ID must be numeric: %q", id)
		}
	}
	return nil
}

// ValidateModID rejects mod IDs that would corrupt the Mods list when
// written back: list separators, key/value separators and control
// characters.
func ValidateModID(id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidInput, "mod ID cannot be empty")
	}
	if strings.ContainsAny(id, ";=") {
		return New(ErrCodeInvalidInput, "mod ID contains a reserved character: %q", id)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "mod ID contains control characters: %q", id)
		}
	}
	return nil
}

// ValidateValue rejects config values that cannot be stored on a single
// key=value line.
func ValidateValue(value string) error {
	if strings.ContainsAny(value, "\r\n") {
		return New(ErrCodeInvalidInput, "value cannot contain line breaks")
	}
	return nil
}

// ValidateAPIKey checks the shape of a Steam Web API key: 32 hexadecimal
// characters.
func ValidateAPIKey(key string) error {
	if len(key) != 32 {
		return New(ErrCodeInvalidKey, "invalid API key: expected 32 characters, got %d", len(key))
	}
	for _, r := range key {
		if !unicode.Is(unicode.ASCII_Hex_Digit, r) {
			return New(ErrCodeInvalidKey, "invalid API key: unexpected character %q", r)
		}
	}
	return nil
}
