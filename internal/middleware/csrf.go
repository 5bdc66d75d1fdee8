package middleware

import (
	"crypto/subtle"
	"net/http"
	"regexp"
	"strings"

	"github.com/sentinelhq/sentinel/internal/security"
	pkghttp "github.com/sentinelhq/sentinel/pkg/http"
)

// CSRF failure classifications recorded with every rejection
const (
	CSRFReasonMissingHeader = "missing_header"
	CSRFReasonMissingCookie = "missing_cookie"
	CSRFReasonMismatch      = "mismatch"
	CSRFReasonInvalid       = "invalid"
)

// CSRFPolicy decides which routes the double-submit check applies to.
// Enforced routes are templates ("/users/{id}") matched by parameter
// substitution, not literal comparison. Exempt routes are never checked.
type CSRFPolicy struct {
	CookieName string
	HeaderName string
	exempt     []*regexp.Regexp
	enforced   []*regexp.Regexp
}

// NewCSRFPolicy compiles exempt and enforced route templates.
func NewCSRFPolicy(cookieName, headerName string, exempt, enforced []string) *CSRFPolicy {
	return &CSRFPolicy{
		CookieName: cookieName,
		HeaderName: headerName,
		exempt:     compileTemplates(exempt),
		enforced:   compileTemplates(enforced),
	}
}

// compileTemplates converts route templates with {param} placeholders
// into anchored patterns.
func compileTemplates(templates []string) []*regexp.Regexp {
	var patterns []*regexp.Regexp
	for _, tmpl := range templates {
		escaped := regexp.QuoteMeta(tmpl)
		// QuoteMeta turns {param} into \{param\}; substitute a path segment
		pattern := regexp.MustCompile(`\\\{[^/]+\\\}`).ReplaceAllString(escaped, `[^/]+`)
		patterns = append(patterns, regexp.MustCompile("^"+pattern+"$"))
	}
	return patterns
}

// Protects reports whether the check applies to this request.
func (p *CSRFPolicy) Protects(method, path string) bool {
	if method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions {
		return false
	}
	for _, pattern := range p.exempt {
		if pattern.MatchString(path) {
			return false
		}
	}
	for _, pattern := range p.enforced {
		if pattern.MatchString(path) {
			return true
		}
	}
	return false
}

// Check validates the double-submit pair and classifies any failure.
func (p *CSRFPolicy) Check(r *http.Request) (reason string, ok bool) {
	headerToken := r.Header.Get(p.HeaderName)
	if headerToken == "" {
		return CSRFReasonMissingHeader, false
	}

	cookie, err := r.Cookie(p.CookieName)
	if err != nil || cookie.Value == "" {
		return CSRFReasonMissingCookie, false
	}

	if !isHexToken(headerToken) || !isHexToken(cookie.Value) {
		return CSRFReasonInvalid, false
	}

	if subtle.ConstantTimeCompare([]byte(headerToken), []byte(cookie.Value)) != 1 {
		return CSRFReasonMismatch, false
	}

	return "", true
}

func isHexToken(token string) bool {
	if len(token) != 64 {
		return false
	}
	for _, r := range token {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}

// CSRFProtection rejects enforced-route requests whose header token does
// not match the cookie token, before they reach business logic. Every
// rejection is classified and recorded as a HIGH risk event.
func CSRFProtection(policy *CSRFPolicy, events *security.EventLog, ipConfig *pkghttp.IPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !policy.Protects(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			if reason, ok := policy.Check(r); !ok {
				events.CSRFViolation(requestInfo(r, ipConfig), r.URL.Path, reason)
				pkghttp.WriteForbidden(w, "CSRF token invalid")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
