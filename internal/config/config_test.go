package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.AccessTokenExpiry != 15*time.Minute {
		t.Errorf("AccessTokenExpiry: got %v, want 15m", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Auth.LockoutThreshold != 5 {
		t.Errorf("LockoutThreshold: got %d, want 5", cfg.Auth.LockoutThreshold)
	}
	if cfg.Security.EventLogDir != "security-logs" {
		t.Errorf("EventLogDir: got %q, want security-logs", cfg.Security.EventLogDir)
	}
	if cfg.Security.CSRFCookieName != "csrf_token" {
		t.Errorf("CSRFCookieName: got %q, want csrf_token", cfg.Security.CSRFCookieName)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout: got %v, want 15s", cfg.Server.ReadTimeout)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ACCESS_TOKEN_EXPIRY", "5m")
	os.Setenv("LOGIN_LOCKOUT_THRESHOLD", "3")
	os.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.168.0.0/16")
	defer os.Clearenv()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() = %v, want nil", err)
	}

	if cfg.Auth.AccessTokenExpiry != 5*time.Minute {
		t.Errorf("AccessTokenExpiry: got %v, want 5m", cfg.Auth.AccessTokenExpiry)
	}
	if cfg.Auth.LockoutThreshold != 3 {
		t.Errorf("LockoutThreshold: got %d, want 3", cfg.Auth.LockoutThreshold)
	}
	if len(cfg.Security.TrustedProxies) != 2 || cfg.Security.TrustedProxies[1] != "192.168.0.0/16" {
		t.Errorf("TrustedProxies: got %v", cfg.Security.TrustedProxies)
	}
}

func TestLoad_MissingJWTSecret(t *testing.T) {
	os.Clearenv()
	os.Setenv("DB_PASSWORD", "test")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() succeeded without JWT_SECRET")
	}
}

func TestLoad_WeakJWTSecretInProduction(t *testing.T) {
	os.Setenv("JWT_SECRET", "too-short")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("ENV", "production")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a short secret in production")
	}
}

func TestLoad_InvalidLockoutThreshold(t *testing.T) {
	os.Setenv("JWT_SECRET", "test-secret-32-characters-long!")
	os.Setenv("DB_PASSWORD", "test")
	os.Setenv("LOGIN_LOCKOUT_THRESHOLD", "0")
	defer os.Clearenv()

	if _, err := Load(); err == nil {
		t.Fatal("Load() accepted a zero lockout threshold")
	}
}
