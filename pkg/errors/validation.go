package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// ValidateRuleName validates the optional name of a rewrite rule.
// Names appear in logs, metrics labels and HTTP responses, so they are
// restricted to a conservative character set.
//
// The validation rules:
//   - Empty names are allowed (the loader derives one from the entry index)
//   - Maximum length of 64 characters
//   - Letters, digits, '-', '_' and '.' only
func ValidateRuleName(name string) error {
	if name == "" {
		return nil
	}
	if len(name) > 64 {
		return New(ErrCodeInvalidRuleDocument, "rule name too long (max 64 characters)")
	}
	if !ruleNameRegex.MatchString(name) {
		return New(ErrCodeInvalidRuleDocument, "invalid rule name: %q", name)
	}
	return nil
}

var ruleNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// ValidatePath validates a local file path supplied through configuration or
// an HTTP request. It rejects control characters and, when relative is set,
// absolute paths and traversal sequences.
func ValidatePath(path string, relative bool) error {
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

	if !relative {
		return nil
	}
	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}
	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}
	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}
	return nil
}
