package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultDetectors_Signatures(t *testing.T) {
	detectors := DefaultDetectors()

	tests := []struct {
		name      string
		input     string
		signature string
	}{
		{"script tag", `<script>alert(1)</script>`, "script_tag"},
		{"script tag with spaces", `< script src="x">`, "script_tag"},
		{"inline handler", `<img src=x onerror=alert(1)>`, "inline_event_handler"},
		{"union select", `' UNION SELECT password FROM users--`, "sql_keywords"},
		{"drop table", `1; DROP TABLE users`, "sql_keywords"},
		{"eval call", `eval(atob("payload"))`, "code_evaluation"},
		{"settimeout call", `setTimeout(run, 0)`, "code_evaluation"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			signature, ok := Scan(detectors, tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.signature, signature)
		})
	}
}

func TestDefaultDetectors_CleanInput(t *testing.T) {
	detectors := DefaultDetectors()

	for _, input := range []string{
		"",
		`{"email":"alice@example.com","password":"Secr3t!Pass"}`,
		"hours=24&level=SECURITY",
		"a perfectly ordinary sentence with the word selection in it",
	} {
		_, ok := Scan(detectors, input)
		assert.False(t, ok, "input %q should not match", input)
	}
}

func TestScan_FirstMatchWins(t *testing.T) {
	detectors := DefaultDetectors()

	// matches both script_tag and code_evaluation; order decides
	signature, ok := Scan(detectors, `<script>eval(x)</script>`)
	require.True(t, ok)
	assert.Equal(t, "script_tag", signature)
}
