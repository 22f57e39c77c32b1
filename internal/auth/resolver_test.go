package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

func TestResolveRoleSubstringMatch(t *testing.T) {
	mappings := []document.GroupMapping{
		{GroupMatch: "netops", Profile: document.StandardUserProfile, PortGrant: document.PortGrant{
			GlobalAllowedPorts: []string{"port1"},
		}},
	}

	grant, ok := ResolveRole([]string{netOpsDN}, mappings)
	assert.True(t, ok)
	assert.Equal(t, document.StandardUserProfile, grant.Role)
	assert.Equal(t, []string{"port1"}, grant.GlobalAllowedPorts)
}

func TestResolveRoleFirstMappingWins(t *testing.T) {
	groups := []string{
		"CN=NetOps-Admins,OU=Groups,DC=example,DC=com",
		"CN=Auditors,OU=Groups,DC=example,DC=com",
	}

	mappings := []document.GroupMapping{
		{GroupMatch: "netops", Profile: document.StandardUserProfile},
		{GroupMatch: "CN=Auditors,OU=Groups,DC=example,DC=com", Profile: document.ReadOnlyProfile},
	}

	grant, ok := ResolveRole(groups, mappings)
	assert.True(t, ok)
	assert.Equal(t, document.StandardUserProfile, grant.Role)

	// group order drives the outer loop
	grant, ok = ResolveRole([]string{groups[1], groups[0]}, mappings)
	assert.True(t, ok)
	assert.Equal(t, document.ReadOnlyProfile, grant.Role)
}

func TestResolveRoleNormalisation(t *testing.T) {
	tests := []struct {
		name     string
		groups   []string
		mappings []document.GroupMapping
		want     string
		wantOK   bool
	}{
		{
			name:     "case and whitespace",
			groups:   []string{"  CN=Firewall Admins,DC=corp  "},
			mappings: []document.GroupMapping{{GroupMatch: " cn=firewall admins,dc=corp ", Profile: "FW"}},
			want:     "FW", wantOK: true,
		},
		{
			name:     "empty match string is skipped",
			groups:   []string{"CN=Any"},
			mappings: []document.GroupMapping{{GroupMatch: "  ", Profile: "All"}, {GroupMatch: "any", Profile: "Any"}},
			want:     "Any", wantOK: true,
		},
		{
			name:     "no match",
			groups:   []string{"CN=Sales"},
			mappings: []document.GroupMapping{{GroupMatch: "netops", Profile: "X"}},
		},
		{
			name:     "no groups",
			mappings: []document.GroupMapping{{GroupMatch: "netops", Profile: "X"}},
		},
		{
			name:   "no mappings",
			groups: []string{"CN=NetOps"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grant, ok := ResolveRole(tt.groups, tt.mappings)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, grant.Role)
		})
	}
}

func TestResolveRoleReturnsCopy(t *testing.T) {
	mappings := []document.GroupMapping{{GroupMatch: "x", Profile: "P", PortGrant: document.PortGrant{
		DeviceAllowedPorts: map[string][]string{"fgt": {"wan1"}},
	}}}

	grant, _ := ResolveRole([]string{"x"}, mappings)
	grant.DeviceAllowedPorts["fgt"][0] = "changed"

	assert.Equal(t, "wan1", mappings[0].DeviceAllowedPorts["fgt"][0])
}

func TestGroupNames(t *testing.T) {
	assert.Equal(t,
		[]string{"NetOps", "Domain Users", "plain-group"},
		GroupNames([]string{netOpsDN, "cn=Domain Users,CN=Users,DC=x", "plain-group"}),
	)
	assert.Empty(t, GroupNames(nil))
}
