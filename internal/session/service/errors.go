package service

import "errors"

// Sentinel errors for the session core. The transport layer switches on these
// exhaustively; nothing here is meant to be string-matched.
var (
	// ErrInvalidCredentials covers both unknown email and wrong password, so
	// callers cannot enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserSuspended means the identity exists but is not active.
	ErrUserSuspended = errors.New("user suspended")
	// ErrNoActiveBrand means a non-author identity has no active brand membership.
	ErrNoActiveBrand = errors.New("no active brand membership")
	// ErrInvalidToken means the refresh secret matches no ledger record.
	ErrInvalidToken = errors.New("invalid refresh token")
	// ErrTokenExpired means the record exists but is past its expiry.
	ErrTokenExpired = errors.New("refresh token expired")
	// ErrTokenReused means a revoked refresh secret was replayed outside the
	// grace window. By the time this error is returned the downstream chain
	// has already been revoked; clients must force a full re-login.
	ErrTokenReused = errors.New("refresh token reuse detected; session chain revoked")
	// ErrUserOrMembershipSuspended means the identity behind a refresh token
	// lost its active status or last active brand membership.
	ErrUserOrMembershipSuspended = errors.New("user or brand membership suspended")
	// ErrStoreUnavailable wraps identity-store or ledger failures; callers
	// should surface service-unavailable, never invalid-credentials.
	ErrStoreUnavailable = errors.New("backing store unavailable")
)
