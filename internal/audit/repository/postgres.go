package repository

import (
	"context"
	"database/sql"

	"brand-analytics-platform/identity/internal/audit/domain"
)

// PostgresRepository writes audit log entries to Postgres.
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit repository backed by db.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts one audit entry.
func (r *PostgresRepository) Create(ctx context.Context, entry *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, brand_id, user_id, action, resource, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.BrandID, entry.UserID, entry.Action, entry.Resource,
		entry.IP, entry.Metadata, entry.CreatedAt)
	return err
}
