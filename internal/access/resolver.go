package access

import (
	"context"

	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

// DefaultAssignmentRole is reported when a matching assignment has no role text.
const DefaultAssignmentRole = "Team Member"

// ProjectSource fetches the full project set with nested assignments, newest first.
type ProjectSource interface {
	ListProjects(ctx context.Context) ([]models.Project, error)
}

// Resolver narrows the project set to what a principal may see. It keeps no
// state between calls, so one instance can serve concurrent callers.
type Resolver struct {
	source ProjectSource
	logger logging.Logger
}

func NewResolver(source ProjectSource, logger logging.Logger) *Resolver {
	return &Resolver{source: source, logger: logger.With("module", "scope_resolver")}
}

// GetAssignedProjects fetches the projects and keeps the ones the principal
// may see, in fetch order. Non-admin results carry UserAssignmentRole.
// Failures produce an empty slice and a logged event, never an error.
func (r *Resolver) GetAssignedProjects(ctx context.Context, principal *Principal, role Role) []models.Project {
	if principal == nil || role == NoRole {
		r.logger.Warn(ctx, "project scope requested without principal")
		return []models.Project{}
	}

	all, err := r.source.ListProjects(ctx)
	if err != nil {
		r.logger.Error(ctx, "project fetch failed", "email", principal.Email, "error", err)
		return []models.Project{}
	}

	if role == RoleAdmin {
		r.logger.Debug(ctx, "project scope resolved", "role", role, "count", len(all))
		if all == nil {
			return []models.Project{}
		}
		return all
	}

	scoped := make([]models.Project, 0, len(all))
	for i := range all {
		if p, ok := ScopeProject(&all[i], principal, role); ok {
			scoped = append(scoped, p)
		}
	}

	r.logger.Debug(ctx, "project scope resolved", "role", role, "count", len(scoped), "fetched", len(all))
	return scoped
}

// ScopeTeamMembers limits the roster for non-admins to their own entry.
func ScopeTeamMembers(members []models.TeamMember, principal *Principal, role Role) []models.TeamMember {
	if principal == nil || role == NoRole {
		return []models.TeamMember{}
	}
	if role == RoleAdmin {
		return members
	}
	out := make([]models.TeamMember, 0, 1)
	for _, m := range members {
		if principal.Email != "" && m.Email == principal.Email {
			out = append(out, m)
		}
	}
	return out
}
