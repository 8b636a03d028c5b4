package common

import (
	"fmt"
	"slices"

	"resumecraft/internal/errors"
)

// ValidateOutputFormat validates format against the configured formats plus
// any the command adds on top, such as pdf
func ValidateOutputFormat(format string, supportedFormats []string, extra ...string) error {
	if len(supportedFormats) == 0 && len(extra) == 0 {
		return nil // No restrictions configured
	}

	allowed := GetSupportedFormats(supportedFormats, extra...)
	if slices.Contains(allowed, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, allowed), nil)
}

// GetSupportedFormats returns the configured formats followed by extra,
// without duplicates
func GetSupportedFormats(supportedFormats []string, extra ...string) []string {
	formats := slices.Clone(supportedFormats)
	for _, f := range extra {
		if !slices.Contains(formats, f) {
			formats = append(formats, f)
		}
	}
	return formats
}
