// Package audit records security-relevant auth events. Writes are
// best-effort: a failing audit store never fails the request that produced
// the event.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"brand-analytics-platform/identity/internal/audit/domain"
	auditrepo "brand-analytics-platform/identity/internal/audit/repository"
)

// SentinelBrandID is used for events with no brand context (e.g. a login
// failure for an unknown email).
const SentinelBrandID = "_system"

// Auth event actions.
const (
	ActionLogin       = "auth.login"
	ActionLoginFailed = "auth.login_failed"
	ActionRefresh     = "auth.refresh"
	ActionTokenReuse  = "auth.token_reuse"
	ActionLogout      = "auth.logout"
	ActionRevokeAll   = "auth.revoke_all"
)

// IPExtractor returns the client IP from the request context.
type IPExtractor func(context.Context) string

// AuthLogger writes a single audit event with explicit action/resource.
type AuthLogger interface {
	LogEvent(ctx context.Context, brandID, userID, action, resource, metadata string)
}

// Logger implements AuthLogger using the audit repository and an optional IP
// extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns an AuthLogger that persists to repo. ipExtractor may be
// nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// LogEvent writes one audit entry. Best-effort: errors are logged and not returned.
func (l *Logger) LogEvent(ctx context.Context, brandID, userID, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if brandID == "" {
		brandID = SentinelBrandID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		BrandID:   brandID,
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: failed to log event %s/%s: %v", action, resource, err)
	}
}
