package repository

import (
	"context"

	"brand-analytics-platform/identity/internal/identity/domain"
)

// Repository is the read surface of the external identity store. Lookups
// return (nil, nil) when no identity matches; errors mean the store failed.
type Repository interface {
	// GetByEmail finds an identity by email, case-insensitively.
	GetByEmail(ctx context.Context, email string) (*domain.Identity, error)
	GetByID(ctx context.Context, id string) (*domain.Identity, error)
}
