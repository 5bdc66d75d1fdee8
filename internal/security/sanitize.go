package security

import (
	"regexp"
	"strings"
)

const maxSanitizedLength = 512

// credential-shaped substrings: password=..., "token": "...", secret:..., etc.
var credentialPattern = regexp.MustCompile(
	`(?i)("?(?:password|passwd|token|secret|api[_-]?key|authorization)"?\s*[=:]\s*)("[^"]*"|[^\s&,;}]+)`)

// Sanitize prepares free-form request content for logging: credential
// values are redacted, newlines are stripped so one event stays one line,
// and the result is truncated to a fixed bound.
func Sanitize(input string) string {
	s := credentialPattern.ReplaceAllString(input, "${1}[REDACTED]")

	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", " ")

	if len(s) > maxSanitizedLength {
		s = s[:maxSanitizedLength] + "...[truncated]"
	}
	return s
}
