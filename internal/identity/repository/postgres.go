package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"brand-analytics-platform/identity/internal/identity/domain"
)

// PostgresRepository reads identities and their brand memberships from Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an identity repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const identityColumns = `id, email, password_hash, status, role, primary_brand_id, created_at, updated_at`

// GetByEmail returns the identity for email (case-insensitive), or nil if not
// found. Errors only for database failures.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE lower(email) = lower($1)`, email)
	return r.scanIdentity(ctx, row)
}

// GetByID returns the identity for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+identityColumns+` FROM identities WHERE id = $1`, id)
	return r.scanIdentity(ctx, row)
}

func (r *PostgresRepository) scanIdentity(ctx context.Context, row *sql.Row) (*domain.Identity, error) {
	var ident domain.Identity
	var primaryBrand sql.NullString
	err := row.Scan(&ident.ID, &ident.Email, &ident.PasswordHash, &ident.Status,
		&ident.Role, &primaryBrand, &ident.CreatedAt, &ident.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if primaryBrand.Valid {
		ident.PrimaryBrandID = primaryBrand.String
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT brand_id, status, permissions
		   FROM brand_memberships
		  WHERE identity_id = $1
		  ORDER BY position`, ident.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var m domain.BrandMembership
		var perms pq.StringArray
		if err := rows.Scan(&m.BrandID, &m.Status, &perms); err != nil {
			return nil, err
		}
		m.Permissions = []string(perms)
		ident.BrandMemberships = append(ident.BrandMemberships, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &ident, nil
}
