package auth

import (
	"strings"

	"github.com/GoFMG-Admin/GoFMG-Admin/internal/document"
)

// Grant is the outcome of a role resolution: the profile name and its port whitelist.
type Grant struct {
	Role string
	document.PortGrant
}

// ResolveRole maps directory groups to the first matching group mapping.
//
// Groups are walked in membership order and, per group, mappings in configured order.
// A mapping matches when its lowercased, trimmed match string equals the group or is
// a substring of it. The first match wins, not the most specific one.
func ResolveRole(groups []string, mappings []document.GroupMapping) (Grant, bool) {
	for _, group := range groups {
		g := normalizeMatch(group)
		if g == "" {
			continue
		}

		for _, m := range mappings {
			match := normalizeMatch(m.GroupMatch)
			if match == "" {
				continue
			}

			if match == g || strings.Contains(g, match) {
				return Grant{Role: m.Profile, PortGrant: m.PortGrant.Clone()}, true
			}
		}
	}

	return Grant{}, false
}

func normalizeMatch(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// GroupNames returns the common name of each group DN, e.g. NetOps for
// CN=NetOps,OU=Groups,DC=example,DC=com. Values that are not DNs are kept as is.
func GroupNames(groups []string) []string {
	out := make([]string, 0, len(groups))

	for _, g := range groups {
		first, _, _ := strings.Cut(g, ",")
		first = strings.TrimSpace(first)

		if key, value, ok := strings.Cut(first, "="); ok && strings.EqualFold(strings.TrimSpace(key), "cn") {
			first = strings.TrimSpace(value)
		}

		out = append(out, first)
	}

	return out
}
