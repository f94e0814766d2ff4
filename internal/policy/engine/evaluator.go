package engine

import (
	"context"

	"brand-analytics-platform/identity/internal/identity/domain"
)

// Reason codes for a denied session gate.
const (
	ReasonSuspended     = "suspended"
	ReasonNoActiveBrand = "no_active_brand"
)

// Decision is the outcome of evaluating the session gate for an identity.
type Decision struct {
	Allow  bool
	Reason string // empty when allowed
}

// Evaluator decides whether an identity may hold a session: it must be
// active and either an author or a member of at least one active brand.
type Evaluator interface {
	EvaluateSessionGate(ctx context.Context, ident *domain.Identity) (Decision, error)
}
