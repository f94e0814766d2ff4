package domain

import "time"

// AuditLog is one security-relevant event: login success/failure, refresh,
// reuse detection, logout, mass revocation.
type AuditLog struct {
	ID        string
	BrandID   string
	UserID    string
	Action    string
	Resource  string
	IP        string
	Metadata  string // free-form JSON or text, never secrets
	CreatedAt time.Time
}
