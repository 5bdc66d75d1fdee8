package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizedEmail(t *testing.T) {
	assert.Equal(t, "a****@*******.com", SanitizedEmail("alice@example.com"))
	assert.Equal(t, "b@****.org", SanitizedEmail("b@acme.org"))
	assert.Equal(t, "[invalid-email]", SanitizedEmail("not-an-email"))
}

func TestSanitizeQueryString(t *testing.T) {
	assert.True(t, SanitizeQueryString("token=abc123"))
	assert.True(t, SanitizeQueryString("reset_password=1"))
	assert.True(t, SanitizeQueryString("CSRF=xyz"))
	assert.False(t, SanitizeQueryString("hours=24"))
	assert.False(t, SanitizeQueryString(""))
}
