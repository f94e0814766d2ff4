package repository

import (
	"context"
	"time"

	"brand-analytics-platform/identity/internal/token/domain"
)

// Store defines persistence for refresh-token records. Lookups return
// (nil, nil) when no record matches; errors mean the store failed. Records
// are revoked in place, never deleted, so rotation chains stay walkable.
type Store interface {
	GetByTokenHash(ctx context.Context, hash string) (*domain.RefreshTokenRecord, error)
	GetByID(ctx context.Context, id string) (*domain.RefreshTokenRecord, error)
	Create(ctx context.Context, rec *domain.RefreshTokenRecord) error
	// RevokeIfLive flips Revoked on the record iff it is not revoked yet, as a
	// single atomic compare-and-set. Returns whether this caller won the flip;
	// concurrent rotations of the same record resolve through this.
	RevokeIfLive(ctx context.Context, id string, at time.Time) (bool, error)
	// Revoke flips Revoked unconditionally (no-op if already revoked).
	Revoke(ctx context.Context, id string, at time.Time) error
	// ChildrenOf returns every record whose RotatedFrom is id, oldest first.
	ChildrenOf(ctx context.Context, id string) ([]*domain.RefreshTokenRecord, error)
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) error
	// ListActiveForUser returns the user's non-revoked, non-expired records.
	ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]*domain.RefreshTokenRecord, error)
}
