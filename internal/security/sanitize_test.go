package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize_RedactsCredentials(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"form field", "email=a@b.c&password=hunter2&remember=1"},
		{"json field", `{"password": "hunter2"}`},
		{"token", "token=abc.def.ghi"},
		{"secret", "client_secret: s3cr3t"},
		{"api key", "api_key=AKIA123456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Sanitize(tt.input)
			assert.NotContains(t, out, "hunter2")
			assert.NotContains(t, out, "abc.def.ghi")
			assert.NotContains(t, out, "s3cr3t")
			assert.NotContains(t, out, "AKIA123456")
			assert.Contains(t, out, "[REDACTED]")
		})
	}
}

func TestSanitize_StripsNewlines(t *testing.T) {
	out := Sanitize("line one\ninjected line\r\nanother")
	assert.NotContains(t, out, "\n")
	assert.NotContains(t, out, "\r")
}

func TestSanitize_Truncates(t *testing.T) {
	out := Sanitize(strings.Repeat("a", 2000))
	assert.LessOrEqual(t, len(out), maxSanitizedLength+len("...[truncated]"))
	assert.True(t, strings.HasSuffix(out, "...[truncated]"))
}

func TestSanitize_LeavesOrdinaryContentAlone(t *testing.T) {
	in := "email=alice@example.com&hours=24"
	assert.Equal(t, in, Sanitize(in))
}
