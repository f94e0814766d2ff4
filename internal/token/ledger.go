// Package token implements the refresh-token ledger: persisted bookkeeping
// for rotation chains, reuse containment, and mass revocation.
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"brand-analytics-platform/identity/internal/security"
	"brand-analytics-platform/identity/internal/token/domain"
	"brand-analytics-platform/identity/internal/token/repository"
)

// maxChainWalk bounds RevokeChain against pathological or cyclic chain data;
// a legitimate chain grows by one link per refresh and never comes close.
const maxChainWalk = 128

// ErrChainTooLong is returned when RevokeChain hits maxChainWalk.
var ErrChainTooLong = errors.New("refresh token chain exceeds walk limit")

// Ledger issues, looks up, rotates, and revokes refresh-token records. Raw
// secrets are returned to the caller exactly once and only their hash is
// persisted; the ledger cannot reproduce a secret after the fact.
type Ledger struct {
	store repository.Store
	ttl   time.Duration
	now   func() time.Time
}

// NewLedger returns a Ledger over store. ttl is the lifetime of newly created
// records.
func NewLedger(store repository.Store, ttl time.Duration) *Ledger {
	return &Ledger{store: store, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

// Create starts a new rotation chain for userID and returns the record plus
// the raw secret. deviceLabel is an opaque client label (e.g. a user agent)
// and may be empty.
func (l *Ledger) Create(ctx context.Context, userID, deviceLabel string) (*domain.RefreshTokenRecord, string, error) {
	return l.newRecord(ctx, userID, deviceLabel, "")
}

// LookupByRawSecret hashes raw and returns the matching record, or nil when
// the secret was never issued (or the store was wiped).
func (l *Ledger) LookupByRawSecret(ctx context.Context, raw string) (*domain.RefreshTokenRecord, error) {
	if raw == "" {
		return nil, nil
	}
	return l.store.GetByTokenHash(ctx, security.HashRefreshSecret(raw))
}

// Rotate revokes old via compare-and-set and creates its replacement,
// returning the new record and raw secret. won reports whether this caller's
// revoke flipped the record; when false another rotation got there first and
// no child was created; the caller decides whether that race is benign
// (grace window) and may follow ChildOf to the live tip instead.
func (l *Ledger) Rotate(ctx context.Context, old *domain.RefreshTokenRecord, deviceLabel string) (rec *domain.RefreshTokenRecord, secret string, won bool, err error) {
	wonCAS, err := l.store.RevokeIfLive(ctx, old.ID, l.now())
	if err != nil {
		return nil, "", false, err
	}
	if !wonCAS {
		return nil, "", false, nil
	}
	rec, secret, err = l.newRecord(ctx, old.UserID, deviceLabel, old.ID)
	if err != nil {
		return nil, "", true, err
	}
	return rec, secret, true, nil
}

// ChildOf returns the oldest record rotated from recordID, or nil when the
// chain ends there.
func (l *Ledger) ChildOf(ctx context.Context, recordID string) (*domain.RefreshTokenRecord, error) {
	children, err := l.store.ChildrenOf(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if len(children) == 0 {
		return nil, nil
	}
	return children[0], nil
}

// RevokeChain revokes fromRecordID and every descendant. Everything issued
// downstream of the compromise point dies: an attacker holding the revoked
// token may have already rotated it further. The walk is iterative, tracks
// visited ids, and stops at maxChainWalk rather than trusting chain data to
// be acyclic. Idempotent.
func (l *Ledger) RevokeChain(ctx context.Context, fromRecordID string) error {
	at := l.now()
	queue := []string{fromRecordID}
	visited := map[string]bool{}
	for len(queue) > 0 {
		if len(visited) >= maxChainWalk {
			return fmt.Errorf("%w: starting at %s", ErrChainTooLong, fromRecordID)
		}
		id := queue[0]
		queue = queue[1:]
		if visited[id] {
			continue
		}
		visited[id] = true
		if err := l.store.Revoke(ctx, id, at); err != nil {
			return err
		}
		children, err := l.store.ChildrenOf(ctx, id)
		if err != nil {
			return err
		}
		for _, c := range children {
			queue = append(queue, c.ID)
		}
	}
	return nil
}

// Revoke revokes a single record (logout path); no chain walk. No-op if the
// record is already revoked.
func (l *Ledger) Revoke(ctx context.Context, recordID string) error {
	return l.store.Revoke(ctx, recordID, l.now())
}

// RevokeAllForUser revokes every record for userID regardless of chain
// position ("log out everywhere").
func (l *Ledger) RevokeAllForUser(ctx context.Context, userID string) error {
	return l.store.RevokeAllForUser(ctx, userID, l.now())
}

// ListActiveForUser returns the user's live records.
func (l *Ledger) ListActiveForUser(ctx context.Context, userID string) ([]*domain.RefreshTokenRecord, error) {
	return l.store.ListActiveForUser(ctx, userID, l.now())
}

func (l *Ledger) newRecord(ctx context.Context, userID, deviceLabel, rotatedFrom string) (*domain.RefreshTokenRecord, string, error) {
	secret, err := security.NewRefreshSecret()
	if err != nil {
		return nil, "", err
	}
	now := l.now()
	rec := &domain.RefreshTokenRecord{
		ID:          uuid.New().String(),
		UserID:      userID,
		DeviceLabel: deviceLabel,
		TokenHash:   security.HashRefreshSecret(secret),
		ExpiresAt:   now.Add(l.ttl),
		RotatedFrom: rotatedFrom,
		CreatedAt:   now,
	}
	if err := l.store.Create(ctx, rec); err != nil {
		return nil, "", err
	}
	return rec, secret, nil
}
