// Package service orchestrates the session lifecycle: login, refresh with
// rotation and reuse detection, logout, and mass revocation.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	identitydomain "brand-analytics-platform/identity/internal/identity/domain"
	"brand-analytics-platform/identity/internal/policy/engine"
	"brand-analytics-platform/identity/internal/security"
	"brand-analytics-platform/identity/internal/telemetry"
	tokendomain "brand-analytics-platform/identity/internal/token/domain"

	"brand-analytics-platform/identity/internal/audit"
)

// IdentityRepo is the read surface of the identity store the service needs.
type IdentityRepo interface {
	GetByEmail(ctx context.Context, email string) (*identitydomain.Identity, error)
	GetByID(ctx context.Context, id string) (*identitydomain.Identity, error)
}

// Ledger is the refresh-token ledger surface the service needs.
type Ledger interface {
	Create(ctx context.Context, userID, deviceLabel string) (*tokendomain.RefreshTokenRecord, string, error)
	LookupByRawSecret(ctx context.Context, raw string) (*tokendomain.RefreshTokenRecord, error)
	Rotate(ctx context.Context, old *tokendomain.RefreshTokenRecord, deviceLabel string) (*tokendomain.RefreshTokenRecord, string, bool, error)
	ChildOf(ctx context.Context, recordID string) (*tokendomain.RefreshTokenRecord, error)
	RevokeChain(ctx context.Context, fromRecordID string) error
	Revoke(ctx context.Context, recordID string) error
	RevokeAllForUser(ctx context.Context, userID string) error
	ListActiveForUser(ctx context.Context, userID string) ([]*tokendomain.RefreshTokenRecord, error)
}

// LoginResult holds the outcome of a successful login.
type LoginResult struct {
	AccessToken   string
	RefreshSecret string
	ExpiresAt     time.Time
	Identity      *identitydomain.Identity
}

// RefreshResult holds the outcome of a successful refresh.
type RefreshResult struct {
	AccessToken   string
	RefreshSecret string
	ExpiresAt     time.Time
}

// Service implements the session-and-credential core. All state lives in the
// identity store and the ledger; the service itself is stateless and safe for
// concurrent use across multiple instances.
type Service struct {
	identities  IdentityRepo
	ledger      Ledger
	codec       *security.AccessTokenCodec
	registry    *security.KeyRegistry
	gate        engine.Evaluator
	hasher      *security.Hasher
	auditLog    audit.AuthLogger
	metrics     *telemetry.AuthMetrics
	graceWindow time.Duration
	now         func() time.Time
}

// New returns a Service. auditLog and metrics may be nil.
func New(
	identities IdentityRepo,
	ledger Ledger,
	codec *security.AccessTokenCodec,
	registry *security.KeyRegistry,
	gate engine.Evaluator,
	hasher *security.Hasher,
	auditLog audit.AuthLogger,
	metrics *telemetry.AuthMetrics,
	graceWindow time.Duration,
) *Service {
	return &Service{
		identities:  identities,
		ledger:      ledger,
		codec:       codec,
		registry:    registry,
		gate:        gate,
		hasher:      hasher,
		auditLog:    auditLog,
		metrics:     metrics,
		graceWindow: graceWindow,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Login verifies email/password, gates on status and brand membership, and on
// success issues an access token plus a fresh refresh chain root.
// Unknown email and wrong password fail identically with ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password, deviceLabel string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		s.metrics.RecordLogin(ctx, false)
		return nil, ErrInvalidCredentials
	}
	ident, err := s.identities.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("%w: identity store: %v", ErrStoreUnavailable, err)
	}
	if ident == nil {
		s.metrics.RecordLogin(ctx, false)
		s.logEvent(ctx, "", "", audit.ActionLoginFailed, "login", "unknown email")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(ident.PasswordHash, []byte(password)); err != nil {
		s.metrics.RecordLogin(ctx, false)
		s.logEvent(ctx, ident.PrimaryBrandID, ident.ID, audit.ActionLoginFailed, "login", "password mismatch")
		return nil, ErrInvalidCredentials
	}

	decision, err := s.gate.EvaluateSessionGate(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("session gate: %w", err)
	}
	if !decision.Allow {
		s.metrics.RecordLogin(ctx, false)
		s.logEvent(ctx, ident.PrimaryBrandID, ident.ID, audit.ActionLoginFailed, "login", decision.Reason)
		if decision.Reason == engine.ReasonNoActiveBrand {
			return nil, ErrNoActiveBrand
		}
		return nil, ErrUserSuspended
	}

	accessToken, expiresAt, err := s.issueAccessToken(ident, "")
	if err != nil {
		return nil, err
	}
	_, secret, err := s.ledger.Create(ctx, ident.ID, deviceLabel)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}

	s.metrics.RecordLogin(ctx, true)
	s.logEvent(ctx, ident.PrimaryBrandID, ident.ID, audit.ActionLogin, "login", deviceLabel)
	return &LoginResult{
		AccessToken:   accessToken,
		RefreshSecret: secret,
		ExpiresAt:     expiresAt,
		Identity:      ident,
	}, nil
}

// Refresh rotates a refresh secret and issues a new access token.
//
// A revoked record presented inside the grace window is treated as the losing
// side of a concurrent-tab race: the rotation walks forward to the chain's
// live tip and rotates that, so the chain stays linear with a single live
// record. Outside the window it is replay, the whole downstream chain is
// revoked, and ErrTokenReused is returned.
func (s *Service) Refresh(ctx context.Context, rawSecret string) (*RefreshResult, error) {
	if rawSecret == "" {
		s.metrics.RecordRefresh(ctx, false)
		return nil, ErrInvalidToken
	}
	rec, err := s.ledger.LookupByRawSecret(ctx, rawSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}
	if rec == nil {
		s.metrics.RecordRefresh(ctx, false)
		return nil, ErrInvalidToken
	}

	now := s.now()
	if rec.Revoked && !rec.InGrace(now, s.graceWindow) {
		return nil, s.handleReuse(ctx, rec)
	}

	if rec.Expired(now) {
		s.metrics.RecordRefresh(ctx, false)
		return nil, ErrTokenExpired
	}

	ident, err := s.identities.GetByID(ctx, rec.UserID)
	if err != nil {
		return nil, fmt.Errorf("%w: identity store: %v", ErrStoreUnavailable, err)
	}
	if ident == nil {
		s.metrics.RecordRefresh(ctx, false)
		return nil, ErrUserOrMembershipSuspended
	}
	decision, err := s.gate.EvaluateSessionGate(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("session gate: %w", err)
	}
	if !decision.Allow {
		s.metrics.RecordRefresh(ctx, false)
		return nil, ErrUserOrMembershipSuspended
	}

	secret, reused, err := s.rotateAtTip(ctx, rec)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}
	if reused {
		return nil, s.handleReuse(ctx, rec)
	}

	accessToken, expiresAt, err := s.issueAccessToken(ident, "")
	if err != nil {
		return nil, err
	}
	s.metrics.RecordRefresh(ctx, true)
	s.logEvent(ctx, ident.PrimaryBrandID, ident.ID, audit.ActionRefresh, "refresh", rec.DeviceLabel)
	return &RefreshResult{AccessToken: accessToken, RefreshSecret: secret, ExpiresAt: expiresAt}, nil
}

// graceWalkLimit bounds how far rotateAtTip chases a moving tip. Beyond one
// or two hops something is wrong with the chain data.
const graceWalkLimit = 8

// rotateAtTip rotates the live tip of rec's chain and returns the new raw
// secret. A live rec is its own tip; a revoked rec inside the grace window
// walks forward through ChildOf to the record the winning rotation created.
// reused reports a revoked record with no successor anywhere down the chain:
// that revocation came from logout or chain revocation, not a rotation race,
// and grace does not apply.
func (s *Service) rotateAtTip(ctx context.Context, rec *tokendomain.RefreshTokenRecord) (secret string, reused bool, err error) {
	cur := rec
	for i := 0; i < graceWalkLimit; i++ {
		if cur.Revoked {
			child, err := s.ledger.ChildOf(ctx, cur.ID)
			if err != nil {
				return "", false, err
			}
			if child == nil {
				return "", true, nil
			}
			cur = child
			continue
		}
		_, secret, won, err := s.ledger.Rotate(ctx, cur, rec.DeviceLabel)
		if err != nil {
			return "", false, err
		}
		if won {
			return secret, false, nil
		}
		// Lost the revoke CAS to a concurrent refresh between lookup and
		// rotate; the winner's child is the tip now.
		child, err := s.ledger.ChildOf(ctx, cur.ID)
		if err != nil {
			return "", false, err
		}
		if child != nil {
			cur = child
		}
	}
	return "", false, fmt.Errorf("rotation did not converge from record %s", rec.ID)
}

// handleReuse is the replay path: revoke everything downstream of rec and
// surface ErrTokenReused.
func (s *Service) handleReuse(ctx context.Context, rec *tokendomain.RefreshTokenRecord) error {
	if err := s.ledger.RevokeChain(ctx, rec.ID); err != nil {
		return fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}
	s.metrics.RecordRefresh(ctx, false)
	s.metrics.RecordReuseDetected(ctx)
	s.logEvent(ctx, "", rec.UserID, audit.ActionTokenReuse, "refresh", "chain revoked from "+rec.ID)
	return ErrTokenReused
}

// Logout revokes the record behind rawSecret. Idempotent: unknown or
// already-revoked secrets are not an error. No chain walk.
func (s *Service) Logout(ctx context.Context, rawSecret string) error {
	if rawSecret == "" {
		return nil
	}
	rec, err := s.ledger.LookupByRawSecret(ctx, rawSecret)
	if err != nil {
		return fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}
	if rec == nil {
		return nil
	}
	if err := s.ledger.Revoke(ctx, rec.ID); err != nil {
		return fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}
	s.logEvent(ctx, "", rec.UserID, audit.ActionLogout, "logout", rec.DeviceLabel)
	return nil
}

// RevokeAllForUser revokes every refresh record for userID ("log out
// everywhere"). Also used for forced administrative revocation outside any
// request context.
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.ledger.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}
	s.metrics.RecordMassRevocation(ctx)
	s.logEvent(ctx, "", userID, audit.ActionRevokeAll, "revoke_all", "")
	return nil
}

// VerifyAccessToken verifies a signed access token and returns its claims.
// Pure function of the token and the key registry.
func (s *Service) VerifyAccessToken(token string) (*security.AccessClaims, error) {
	return s.codec.Verify(token)
}

// PublicKeySet returns the JWKS document for the registry's key set.
func (s *Service) PublicKeySet() []byte {
	return s.registry.PublicKeySet()
}

// ListSessions returns the user's live refresh records, one per device/tab
// chain.
func (s *Service) ListSessions(ctx context.Context, userID string) ([]*tokendomain.RefreshTokenRecord, error) {
	recs, err := s.ledger.ListActiveForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: ledger: %v", ErrStoreUnavailable, err)
	}
	return recs, nil
}

func (s *Service) issueAccessToken(ident *identitydomain.Identity, contextBrandID string) (string, time.Time, error) {
	token, expiresAt, err := s.codec.Issue(
		ident.ID,
		ident.Email,
		ident.ActiveBrandIDs(),
		ident.PrimaryBrandID,
		contextBrandID,
		string(ident.Role),
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue access token: %w", err)
	}
	return token, expiresAt, nil
}

func (s *Service) logEvent(ctx context.Context, brandID, userID, action, resource, metadata string) {
	if s.auditLog == nil {
		return
	}
	s.auditLog.LogEvent(ctx, brandID, userID, action, resource, metadata)
}
