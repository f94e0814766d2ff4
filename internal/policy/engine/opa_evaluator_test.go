package engine

import (
	"context"
	"testing"

	"brand-analytics-platform/identity/internal/identity/domain"
)

func TestSessionGate(t *testing.T) {
	ev, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	ctx := context.Background()

	cases := []struct {
		name       string
		ident      domain.Identity
		wantAllow  bool
		wantReason string
	}{
		{
			name:      "active author without memberships",
			ident:     domain.Identity{Status: domain.StatusActive, Role: domain.RoleAuthor},
			wantAllow: true,
		},
		{
			name: "active viewer with active membership",
			ident: domain.Identity{Status: domain.StatusActive, Role: domain.RoleViewer,
				BrandMemberships: []domain.BrandMembership{{BrandID: "b1", Status: domain.MembershipActive}}},
			wantAllow: true,
		},
		{
			name:       "suspended identity",
			ident:      domain.Identity{Status: domain.StatusSuspended, Role: domain.RoleAuthor},
			wantAllow:  false,
			wantReason: ReasonSuspended,
		},
		{
			name:       "deleted identity",
			ident:      domain.Identity{Status: domain.StatusDeleted, Role: domain.RoleViewer},
			wantAllow:  false,
			wantReason: ReasonSuspended,
		},
		{
			name: "viewer with only suspended memberships",
			ident: domain.Identity{Status: domain.StatusActive, Role: domain.RoleViewer,
				BrandMemberships: []domain.BrandMembership{{BrandID: "b1", Status: domain.MembershipSuspended}}},
			wantAllow:  false,
			wantReason: ReasonNoActiveBrand,
		},
		{
			name:       "viewer with no memberships",
			ident:      domain.Identity{Status: domain.StatusActive, Role: domain.RoleViewer},
			wantAllow:  false,
			wantReason: ReasonNoActiveBrand,
		},
	}
	for _, tc := range cases {
		d, err := ev.EvaluateSessionGate(ctx, &tc.ident)
		if err != nil {
			t.Fatalf("%s: EvaluateSessionGate: %v", tc.name, err)
		}
		if d.Allow != tc.wantAllow || d.Reason != tc.wantReason {
			t.Errorf("%s: got allow=%v reason=%q, want allow=%v reason=%q",
				tc.name, d.Allow, d.Reason, tc.wantAllow, tc.wantReason)
		}
	}
}
