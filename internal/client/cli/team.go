package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/client/client"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

func (a *App) members(ctx context.Context) ([]models.TeamMember, error) {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	members, err := a.api.ListTeamMembers(rctx)
	if err != nil {
		return nil, err
	}
	return access.ScopeTeamMembers(members, a.session.Principal(), a.session.Role()), nil
}

func (a *App) member(ctx context.Context, id string) (models.TeamMember, error) {
	members, err := a.members(ctx)
	if err != nil {
		return models.TeamMember{}, err
	}
	for _, m := range members {
		if m.ID == id {
			return m, nil
		}
	}
	return models.TeamMember{}, fmt.Errorf("team member %s: %w", id, client.ErrNotFound)
}

func (a *App) saveMember(ctx context.Context, m models.TeamMember) (*models.TeamMember, error) {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.api.SaveTeamMember(rctx, m)
}

func (a *App) Team(ctx context.Context, _ []string) error {
	if err := a.require(access.CanViewTeam); err != nil {
		return err
	}
	members, err := a.members(ctx)
	if err != nil {
		return err
	}
	printMembers(a.out, members)
	return nil
}

// SaveMember creates a member, or edits the one named by the first argument.
func (a *App) SaveMember(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return usage("addmember [id]")
	}
	if err := a.require(access.CanManageTeam); err != nil {
		return err
	}

	var base models.TeamMember
	if len(args) == 1 {
		m, err := a.member(ctx, args[0])
		if err != nil {
			return err
		}
		base = m
	}

	m, err := a.memberForm(ctx, base)
	if err != nil {
		return err
	}
	saved, err := a.saveMember(ctx, m)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Team member %q saved with id %s\n", saved.Name, saved.ID)
	return nil
}

func (a *App) DeleteMember(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("deletemember <id>")
	}
	if err := a.require(access.CanManageTeam); err != nil {
		return err
	}
	m, err := a.member(ctx, args[0])
	if err != nil {
		return err
	}
	ok, err := a.confirm(fmt.Sprintf("Delete team member %q?", m.Name))
	if err != nil || !ok {
		return err
	}

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	if err := a.api.DeleteTeamMember(rctx, m.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Team member %q deleted\n", m.Name)
	return nil
}

func (a *App) Avatar(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return usage("avatar <member-id> <path>")
	}
	if err := a.require(access.CanManageTeam); err != nil {
		return err
	}
	m, err := a.member(ctx, args[0])
	if err != nil {
		return err
	}

	url, err := a.files.UploadAvatar(ctx, args[1])
	if err != nil {
		return err
	}
	m.AvatarURL = url
	if _, err := a.saveMember(ctx, m); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Avatar for %q set to %s\n", m.Name, url)
	return nil
}
