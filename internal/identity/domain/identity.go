// Package domain holds the identity entity as read from the identity store.
// The session core never mutates password or membership fields.
package domain

import "time"

type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusDeleted   Status = "deleted"
)

type Role string

const (
	// RoleAuthor is the superuser role; it bypasses brand-membership checks.
	RoleAuthor Role = "author"
	RoleViewer Role = "viewer"
)

type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipSuspended MembershipStatus = "suspended"
)

// BrandMembership links an identity to one brand.
type BrandMembership struct {
	BrandID     string
	Status      MembershipStatus
	Permissions []string
}

// Identity is a platform user. Email is unique case-insensitively.
type Identity struct {
	ID               string
	Email            string
	PasswordHash     string
	Status           Status
	Role             Role
	PrimaryBrandID   string
	BrandMemberships []BrandMembership // ordered as stored
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ActiveBrandIDs returns the brand ids of memberships with active status, in
// membership order.
func (i *Identity) ActiveBrandIDs() []string {
	out := make([]string, 0, len(i.BrandMemberships))
	for _, m := range i.BrandMemberships {
		if m.Status == MembershipActive {
			out = append(out, m.BrandID)
		}
	}
	return out
}

// HasActiveBrand reports whether at least one membership is active.
func (i *Identity) HasActiveBrand() bool {
	for _, m := range i.BrandMemberships {
		if m.Status == MembershipActive {
			return true
		}
	}
	return false
}

// CanStartSession reports whether this identity may be issued tokens: it must
// be active and either an author or a member of at least one active brand.
func (i *Identity) CanStartSession() bool {
	if i.Status != StatusActive {
		return false
	}
	return i.Role == RoleAuthor || i.HasActiveBrand()
}
