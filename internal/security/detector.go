package security

import (
	"regexp"
)

// Detector inspects request content for one family of attack patterns.
// Detectors run in order; the first match wins and scanning stops, so a
// request produces at most one malicious-input event.
type Detector interface {
	// Match returns the pattern signature when the text matches.
	Match(text string) (signature string, ok bool)
}

type regexpDetector struct {
	signature string
	pattern   *regexp.Regexp
}

func (d *regexpDetector) Match(text string) (string, bool) {
	if d.pattern.MatchString(text) {
		return d.signature, true
	}
	return "", false
}

// NewRegexpDetector builds a detector from a named pattern.
func NewRegexpDetector(signature, pattern string) Detector {
	return &regexpDetector{
		signature: signature,
		pattern:   regexp.MustCompile(pattern),
	}
}

// DefaultDetectors returns the standard ordered detector chain.
func DefaultDetectors() []Detector {
	return []Detector{
		NewRegexpDetector("script_tag", `(?i)<\s*script\b`),
		NewRegexpDetector("inline_event_handler", `(?i)\bon(?:click|error|load|mouseover|focus|submit|input)\s*=`),
		NewRegexpDetector("sql_keywords", `(?i)\b(?:union\s+select|select\s+.+\s+from|insert\s+into|delete\s+from|drop\s+table|update\s+\w+\s+set)\b`),
		NewRegexpDetector("code_evaluation", `(?i)\b(?:eval|settimeout|setinterval|function)\s*\(`),
	}
}

// Scan runs detectors in order and returns the first matching signature.
func Scan(detectors []Detector, text string) (string, bool) {
	for _, d := range detectors {
		if signature, ok := d.Match(text); ok {
			return signature, true
		}
	}
	return "", false
}
