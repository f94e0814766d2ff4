// Package domain holds the refresh-token record that forms rotation chains.
package domain

import "time"

// RefreshTokenRecord is one link in a rotation chain. Created on login or
// rotation; mutated only to flip Revoked/RevokedAt; never physically deleted.
// RotatedFrom points at the record this one replaced (empty for a chain root).
// The raw secret is never stored, only TokenHash.
type RefreshTokenRecord struct {
	ID          string
	UserID      string
	DeviceLabel string
	TokenHash   string
	ExpiresAt   time.Time
	Revoked     bool
	RevokedAt   *time.Time // nil while not revoked
	RotatedFrom string     // empty for a chain root
	CreatedAt   time.Time
}

// Expired reports whether the record is past its expiry at now.
func (r *RefreshTokenRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Live reports whether the record is usable: not revoked and not expired.
func (r *RefreshTokenRecord) Live(now time.Time) bool {
	return !r.Revoked && !r.Expired(now)
}

// InGrace reports whether the record was revoked less than window ago. A
// revoked-but-in-grace record is treated as a benign concurrent-refresh race
// rather than replay.
func (r *RefreshTokenRecord) InGrace(now time.Time, window time.Duration) bool {
	if !r.Revoked || r.RevokedAt == nil {
		return false
	}
	return now.Sub(*r.RevokedAt) < window
}
