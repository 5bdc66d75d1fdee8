package models

import (
	"time"
)

type User struct {
	Email                   string     `json:"email"`
	HashedPassword          string     `json:"-"` // never serialized outward
	Name                    string     `json:"name"`
	Verified                bool       `json:"verified"`
	VerificationToken       string     `json:"-"`
	VerificationTokenExpiry *time.Time `json:"-"`
	ResetToken              string     `json:"-"`
	ResetTokenExpiry        *time.Time `json:"-"`
	Role                    string     `json:"role"` // "user" or "admin"
	Locked                  bool       `json:"locked"`
	LoginAttempts           int        `json:"login_attempts"`
	AllowedIPs              []string   `json:"allowed_ips,omitempty"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

// IsIPAllowed reports whether clientIP may authenticate against this account.
// An empty allow-list permits any address.
func (u *User) IsIPAllowed(clientIP string) bool {
	if len(u.AllowedIPs) == 0 {
		return true
	}
	for _, ip := range u.AllowedIPs {
		if ip == clientIP {
			return true
		}
	}
	return false
}
