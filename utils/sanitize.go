package utils

import "github.com/microcosm-cc/bluemonday"

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// Sanitize cleans rich-text HTML content to prevent XSS attacks while keeping
// common formatting tags.
func Sanitize(input string) string {
	return ugcPolicy.Sanitize(input)
}

// SanitizeStrict strips all markup. Used for titles and usernames.
func SanitizeStrict(input string) string {
	return strictPolicy.Sanitize(input)
}
