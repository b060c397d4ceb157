package validation

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// ValidateName validates the display name used in exports.
func ValidateName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("name is required")
	}

	if utf8.RuneCountInString(trimmed) > 100 {
		return errors.New("name is too long (max 100 characters)")
	}

	return nil
}

// ValidateTimezone accepts IANA zone names such as "Europe/Berlin".
func ValidateTimezone(tz string) error {
	_, err := time.LoadLocation(tz)
	if err != nil {
		return fmt.Errorf("unknown timezone %q", tz)
	}
	return nil
}
