// Package access holds the authorization model: who the caller is, which
// role they have, what that role may do, and which projects they may see.
// Server and client share it so both apply the same rule.
package access

import "context"

// Principal identifies the signed-in actor.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Role is the coarse authorization class of a principal.
type Role string

const (
	// NoRole is what an absent principal has. It is not the same as RoleUser.
	NoRole    Role = ""
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DeriveRole maps a principal to a role. The comparison with adminEmail is
// exact and case-sensitive.
func DeriveRole(p *Principal, adminEmail string) Role {
	if p == nil {
		return NoRole
	}
	if p.Email != "" && p.Email == adminEmail {
		return RoleAdmin
	}
	return RoleUser
}

type principalKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal stored by WithPrincipal.
func PrincipalFromContext(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(*Principal)
	return p, ok && p != nil
}
