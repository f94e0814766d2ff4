package domain

import "testing"

func TestActiveBrandIDs(t *testing.T) {
	ident := &Identity{
		BrandMemberships: []BrandMembership{
			{BrandID: "b1", Status: MembershipActive},
			{BrandID: "b2", Status: MembershipSuspended},
			{BrandID: "b3", Status: MembershipActive},
		},
	}
	got := ident.ActiveBrandIDs()
	if len(got) != 2 || got[0] != "b1" || got[1] != "b3" {
		t.Errorf("ActiveBrandIDs = %v, want [b1 b3]", got)
	}
}

func TestCanStartSession(t *testing.T) {
	cases := []struct {
		name  string
		ident Identity
		want  bool
	}{
		{"active author without memberships", Identity{Status: StatusActive, Role: RoleAuthor}, true},
		{"active viewer with active membership", Identity{Status: StatusActive, Role: RoleViewer,
			BrandMemberships: []BrandMembership{{BrandID: "b1", Status: MembershipActive}}}, true},
		{"active viewer with only suspended membership", Identity{Status: StatusActive, Role: RoleViewer,
			BrandMemberships: []BrandMembership{{BrandID: "b1", Status: MembershipSuspended}}}, false},
		{"suspended author", Identity{Status: StatusSuspended, Role: RoleAuthor}, false},
		{"deleted viewer", Identity{Status: StatusDeleted, Role: RoleViewer,
			BrandMemberships: []BrandMembership{{BrandID: "b1", Status: MembershipActive}}}, false},
	}
	for _, tc := range cases {
		if got := tc.ident.CanStartSession(); got != tc.want {
			t.Errorf("%s: CanStartSession = %v, want %v", tc.name, got, tc.want)
		}
	}
}
