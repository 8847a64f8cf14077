package sanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes all HTML tags and attributes. Every user-supplied field in
// a plan is plain text (titles, destinations, notes), so nothing richer is
// needed.
var strict = bluemonday.StrictPolicy()

// Text strips all HTML from user input and trims surrounding whitespace.
func Text(input string) string {
	return strings.TrimSpace(strict.Sanitize(input))
}

// TextPtr sanitizes an optional field, preserving nil.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	cleaned := Text(*input)
	return &cleaned
}
