package access

import "sort"

// Capability names a single permission flag.
type Capability string

// The closed set of capabilities. A new check must be added here and to
// DerivePermissions, never tested ad hoc at a call site.
const (
	CanViewAllProjects      Capability = "canViewAllProjects"
	CanCreateProjects       Capability = "canCreateProjects"
	CanEditAllProjects      Capability = "canEditAllProjects"
	CanDeleteProjects       Capability = "canDeleteProjects"
	CanManageTeam           Capability = "canManageTeam"
	CanViewTeam             Capability = "canViewTeam"
	CanViewDashboard        Capability = "canViewDashboard"
	CanEditAssignedProjects Capability = "canEditAssignedProjects"
	CanUploadFiles          Capability = "canUploadFiles"
	CanManageSettings       Capability = "canManageSettings"
)

// AllCapabilities lists every capability in a stable order.
var AllCapabilities = []Capability{
	CanViewAllProjects,
	CanCreateProjects,
	CanEditAllProjects,
	CanDeleteProjects,
	CanManageTeam,
	CanViewTeam,
	CanViewDashboard,
	CanEditAssignedProjects,
	CanUploadFiles,
	CanManageSettings,
}

var alwaysGranted = map[Capability]bool{
	CanViewTeam:      true,
	CanViewDashboard: true,
}

// PermissionSet is an immutable set of granted capabilities.
type PermissionSet struct {
	granted map[Capability]bool
}

// DerivePermissions builds the permission set for a role from scratch.
// NoRole gets an empty set.
func DerivePermissions(role Role) PermissionSet {
	granted := make(map[Capability]bool, len(AllCapabilities))
	if role == NoRole {
		return PermissionSet{granted: granted}
	}
	for _, c := range AllCapabilities {
		granted[c] = alwaysGranted[c] || role == RoleAdmin
	}
	return PermissionSet{granted: granted}
}

// Has reports whether c is granted. Unknown names are never granted.
func (s PermissionSet) Has(c Capability) bool {
	return s.granted[c]
}

// Granted returns the granted capabilities sorted by name.
func (s PermissionSet) Granted() []Capability {
	out := make([]Capability, 0, len(s.granted))
	for c, ok := range s.granted {
		if ok {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Empty reports whether nothing is granted.
func (s PermissionSet) Empty() bool {
	for _, ok := range s.granted {
		if ok {
			return false
		}
	}
	return true
}
