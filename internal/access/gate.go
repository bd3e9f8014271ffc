package access

import "github.com/dmitrijs2005/projecthub/internal/models"

// CanAccessProject is the single-record form of the scoping rule. Admins see
// every project. Anyone else sees a project only through an assignment whose
// team member email equals their own.
func CanAccessProject(project *models.Project, principal *Principal, role Role) bool {
	if project == nil || principal == nil {
		return false
	}
	if role == RoleAdmin {
		return true
	}
	_, ok := matchingAssignment(project, principal)
	return ok
}

// ScopeProject is CanAccessProject returning the project as the principal
// sees it: a copy that carries UserAssignmentRole for non-admins.
func ScopeProject(project *models.Project, principal *Principal, role Role) (models.Project, bool) {
	if !CanAccessProject(project, principal, role) {
		return models.Project{}, false
	}
	p := project.Clone()
	if role == RoleAdmin {
		return p, true
	}
	a, _ := matchingAssignment(project, principal)
	p.UserAssignmentRole = a.Role
	if p.UserAssignmentRole == "" {
		p.UserAssignmentRole = DefaultAssignmentRole
	}
	return p, true
}

func matchingAssignment(project *models.Project, principal *Principal) (models.Assignment, bool) {
	if principal.Email == "" {
		return models.Assignment{}, false
	}
	for _, a := range project.Assignments {
		if a.TeamMember.Email == principal.Email {
			return a, true
		}
	}
	return models.Assignment{}, false
}
