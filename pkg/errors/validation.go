package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// PageNumberPlaceholder is the token replaced by the page number in a
// region's page-number format template.
const PageNumberPlaceholder = "{n}"

// ValidatePageNumberFormat validates a page-number format template.
//
// The validation rules are intentionally conservative:
//   - The template must contain the {n} placeholder
//   - No control characters
//   - Maximum length of 64 characters
func ValidatePageNumberFormat(format string) error {
	if format == "" {
		return New(ErrCodeInvalidInput, "page number format cannot be empty")
	}

	if len(format) > 64 {
		return New(ErrCodeInvalidInput, "page number format too long (max 64 characters)")
	}

	for _, r := range format {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "page number format contains invalid control characters")
		}
	}

	if !strings.Contains(format, PageNumberPlaceholder) {
		return New(ErrCodeInvalidInput, "page number format %q must contain %s", format, PageNumberPlaceholder)
	}

	return nil
}

// ValidateDocumentPath validates a document file path given on the command line.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - Extension must be .json
func ValidateDocumentPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return New(ErrCodeInvalidPath, "document must be a .json file: %q", path)
	}

	return nil
}
