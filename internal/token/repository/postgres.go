package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"brand-analytics-platform/identity/internal/token/domain"
)

// PostgresStore persists refresh-token records in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore returns a refresh-token store backed by db.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const recordColumns = `id, user_id, device_label, token_hash, expires_at, revoked, revoked_at, rotated_from, created_at`

// GetByTokenHash returns the record with the given secret hash, or nil if not found.
func (s *PostgresStore) GetByTokenHash(ctx context.Context, hash string) (*domain.RefreshTokenRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM refresh_tokens WHERE token_hash = $1`, hash)
	return scanRecord(row)
}

// GetByID returns the record for id, or nil if not found.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*domain.RefreshTokenRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM refresh_tokens WHERE id = $1`, id)
	return scanRecord(row)
}

// Create persists a new record. The record must have ID and TokenHash set.
func (s *PostgresStore) Create(ctx context.Context, rec *domain.RefreshTokenRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (id, user_id, device_label, token_hash, expires_at, revoked, revoked_at, rotated_from, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.UserID, nullString(rec.DeviceLabel), rec.TokenHash, rec.ExpiresAt,
		rec.Revoked, nullTime(rec.RevokedAt), nullString(rec.RotatedFrom), rec.CreatedAt)
	return err
}

// RevokeIfLive revokes the record iff it is not revoked yet. The WHERE clause
// makes the flip a compare-and-set: of two concurrent rotations exactly one
// sees a row updated.
func (s *PostgresStore) RevokeIfLive(ctx context.Context, id string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = $2 WHERE id = $1 AND revoked = FALSE`,
		id, at)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// Revoke revokes the record unconditionally; already-revoked records keep
// their original revoked_at.
func (s *PostgresStore) Revoke(ctx context.Context, id string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`,
		id, at)
	return err
}

// ChildrenOf returns every record rotated from id, oldest first.
func (s *PostgresStore) ChildrenOf(ctx context.Context, id string) ([]*domain.RefreshTokenRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM refresh_tokens WHERE rotated_from = $1 ORDER BY created_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

// RevokeAllForUser revokes every record for userID regardless of chain position.
func (s *PostgresStore) RevokeAllForUser(ctx context.Context, userID string, at time.Time) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE, revoked_at = COALESCE(revoked_at, $2)
		  WHERE user_id = $1 AND revoked = FALSE`,
		userID, at)
	return err
}

// ListActiveForUser returns the user's live records, newest first.
func (s *PostgresStore) ListActiveForUser(ctx context.Context, userID string, now time.Time) ([]*domain.RefreshTokenRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM refresh_tokens
		  WHERE user_id = $1 AND revoked = FALSE AND expires_at > $2
		  ORDER BY created_at DESC`, userID, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRecords(rows)
}

func scanRecord(row *sql.Row) (*domain.RefreshTokenRecord, error) {
	rec, err := scanRecordFrom(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return rec, nil
}

func collectRecords(rows *sql.Rows) ([]*domain.RefreshTokenRecord, error) {
	var out []*domain.RefreshTokenRecord
	for rows.Next() {
		rec, err := scanRecordFrom(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanRecordFrom(scan func(dest ...any) error) (*domain.RefreshTokenRecord, error) {
	var rec domain.RefreshTokenRecord
	var deviceLabel, rotatedFrom sql.NullString
	var revokedAt sql.NullTime
	err := scan(&rec.ID, &rec.UserID, &deviceLabel, &rec.TokenHash, &rec.ExpiresAt,
		&rec.Revoked, &revokedAt, &rotatedFrom, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}
	rec.DeviceLabel = deviceLabel.String
	rec.RotatedFrom = rotatedFrom.String
	if revokedAt.Valid {
		t := revokedAt.Time
		rec.RevokedAt = &t
	}
	return &rec, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
