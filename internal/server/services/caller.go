package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

// caller is the authenticated actor of one request with its derived role and
// permissions.
type caller struct {
	principal *access.Principal
	role      access.Role
	perms     access.PermissionSet
}

func callerFromContext(ctx context.Context, adminEmail string) (*caller, error) {
	p, ok := access.PrincipalFromContext(ctx)
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	role := access.DeriveRole(p, adminEmail)
	return &caller{principal: p, role: role, perms: access.DerivePermissions(role)}, nil
}

func (c *caller) require(capability access.Capability) error {
	if !c.perms.Has(capability) {
		return fmt.Errorf("%w: %s required", common.ErrorForbidden, capability)
	}
	return nil
}

func (c *caller) canAccess(p *models.Project) error {
	if !access.CanAccessProject(p, c.principal, c.role) {
		return fmt.Errorf("%w: project %s", common.ErrorForbidden, p.ID)
	}
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
}
