package errors

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Limits for user supplied names.
const (
	MaxBoardNameLength = 64
	MaxNodeNameLength  = 200
)

// boardNameRegex matches names usable as file names and redis/mongo keys.
var boardNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidateBoardName validates the name a board is stored under. Board names
// end up in file paths and storage keys, so the rules are strict:
//   - No empty names
//   - Maximum length of 64 characters
//   - ASCII letters, digits, '.', '_' and '-' only, starting with a letter
//     or digit
//   - No ".." sequences
func ValidateBoardName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "board name cannot be empty")
	}
	if len(name) > MaxBoardNameLength {
		return New(ErrCodeInvalidName, "board name too long (max %d characters)", MaxBoardNameLength)
	}
	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "board name cannot contain ..")
	}
	if !boardNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid board name: %q", name)
	}
	return nil
}

// ValidateNodeName validates a group or feature name typed by a user.
// Surrounding whitespace is ignored.
func ValidateNodeName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNodeNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", MaxNodeNameLength)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates an edge image reference. Only http and https URLs
// are accepted.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	// Simple scheme validation without full URL parsing
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	return nil
}
