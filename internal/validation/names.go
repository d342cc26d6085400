package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	entityNameRegex = regexp.MustCompile(`^[\p{L}\p{N} #+.\-_]{2,30}$`)
	colorRegex      = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)
)

// ValidateEntityName checks a category or tag name: 2-30 letters, digits,
// spaces or any of "#+.-_".
func ValidateEntityName(name string) error {
	if !entityNameRegex.MatchString(name) {
		return fmt.Errorf("name must be 2-30 characters of letters, digits, spaces or #+.-_")
	}

	if strings.TrimSpace(name) != name {
		return fmt.Errorf("name cannot start or end with a space")
	}

	return nil
}

// ValidateColor checks a #rrggbb color code.
func ValidateColor(color string) error {
	if !colorRegex.MatchString(color) {
		return fmt.Errorf("color must be a #rrggbb hex code")
	}
	return nil
}
