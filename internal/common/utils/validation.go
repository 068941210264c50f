package utils

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/hirosato/go-bill-ledger/internal/domain/errors"
)

// CurrencyRegex validates ISO 4217 style currency codes
var CurrencyRegex = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateAccountPath validates a colon separated account path. Segments
// may hold any characters except surrounding whitespace.
func ValidateAccountPath(path string) error {
	if path == "" {
		return errors.NewValidationError("account path is required")
	}
	for _, segment := range strings.Split(path, ":") {
		if segment == "" || strings.TrimSpace(segment) != segment {
			return errors.NewValidationError("invalid account path format, should use format like 'Assets:Bank:Checking'")
		}
	}
	return nil
}

// ValidateSourceID validates an import source ID
func ValidateSourceID(sourceID string) error {
	if strings.TrimSpace(sourceID) == "" {
		return errors.NewValidationError("source ID is required")
	}
	if strings.ContainsAny(sourceID, "#/") {
		return errors.NewValidationError("source ID must not contain '#' or '/'")
	}
	return nil
}

// ValidateCurrency validates a currency code
func ValidateCurrency(currency string) error {
	if !CurrencyRegex.MatchString(currency) {
		return errors.NewValidationError("invalid currency code, should be a 3-letter code (e.g., CNY)")
	}
	return nil
}

// ParsePositiveInt parses a strictly positive integer
func ParsePositiveInt(value string) (int, error) {
	num, err := strconv.Atoi(value)
	if err != nil {
		return 0, errors.NewValidationError("value must be a valid integer")
	}
	if num <= 0 {
		return 0, errors.NewValidationError("value must be a positive integer")
	}
	return num, nil
}

// ValidateRequiredString validates that a string is not empty
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return errors.NewValidationError(fieldName + " is required")
	}
	return nil
}
