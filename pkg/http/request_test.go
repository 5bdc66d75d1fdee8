package http

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractClientIP_RemoteAddrOnly(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"

	ip := ExtractClientIP(r, nil)
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_SpoofedHeaderIgnoredWithoutTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "203.0.113.7:51234"
	r.Header.Set("X-Forwarded-For", "10.0.0.1")

	ip := ExtractClientIP(r, &IPConfig{})
	assert.Equal(t, "203.0.113.7", ip)
}

func TestExtractClientIP_ForwardedForFromTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.168.1.10:44321"
	r.Header.Set("X-Forwarded-For", "198.51.100.23, 192.168.1.10")

	cfg := &IPConfig{TrustedProxies: []string{"192.168.1.0/24"}}
	assert.Equal(t, "198.51.100.23", ExtractClientIP(r, cfg))
}

func TestExtractClientIP_RealIPFromTrustedProxy(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.168.1.10:44321"
	r.Header.Set("X-Real-IP", "198.51.100.23")

	cfg := &IPConfig{TrustedProxies: []string{"192.168.1.0/24"}}
	assert.Equal(t, "198.51.100.23", ExtractClientIP(r, cfg))
}

func TestExtractClientIP_InvalidForwardedForEntriesSkipped(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "192.168.1.10:44321"
	r.Header.Set("X-Forwarded-For", "not-an-ip, 198.51.100.23")

	cfg := &IPConfig{TrustedProxies: []string{"192.168.1.0/24"}}
	assert.Equal(t, "198.51.100.23", ExtractClientIP(r, cfg))
}
