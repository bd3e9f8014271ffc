package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/client/client"
	"github.com/dmitrijs2005/projecthub/internal/dashboard"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

// scopedProjects is the caller's project scope: everything for admins,
// assigned projects otherwise.
func (a *App) scopedProjects(ctx context.Context) ([]models.Project, error) {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	return a.session.Projects(rctx)
}

// accessibleProject loads one project and checks it against the access gate.
func (a *App) accessibleProject(ctx context.Context, id string) (*models.Project, error) {
	rctx, cancel := a.withTimeout(ctx)
	defer cancel()

	p, err := a.api.GetProject(rctx, id)
	if err != nil {
		return nil, err
	}
	if !a.session.CanAccessProject(p) {
		return nil, fmt.Errorf("%w: project %s is not assigned to you", client.ErrForbidden, id)
	}
	return p, nil
}

func (a *App) Dashboard(ctx context.Context, _ []string) error {
	if err := a.require(access.CanViewDashboard); err != nil {
		return err
	}
	projects, err := a.scopedProjects(ctx)
	if err != nil {
		return err
	}

	d := dashboard.Build(projects, a.session.Permissions(), a.now())
	s := d.Stats
	fmt.Fprintf(a.out, "Projects: %d total, %d done, %d in progress, %d delayed (%d%% complete)\n",
		s.Total, s.Done, s.InProgress, s.Delayed, s.CompletionPercent())
	if s.ShowBudget {
		fmt.Fprintf(a.out, "Budget: %s total, %s active (%d%%)\n",
			money(s.TotalBudget), money(s.ActiveBudget), s.ActiveBudgetPercent())
	}

	fmt.Fprintln(a.out, "\nUpcoming deadlines:")
	if len(d.Deadlines) == 0 {
		fmt.Fprintln(a.out, "  none in the next week")
	}
	for _, dl := range d.Deadlines {
		fmt.Fprintf(a.out, "  %s  %s  %d days left\n", date(dl.Project.EndDate), dl.Project.Name, dl.DaysLeft)
	}

	if len(d.Delayed) > 0 {
		fmt.Fprintln(a.out, "\nDelayed:")
		for _, p := range d.Delayed {
			fmt.Fprintf(a.out, "  %s  %s\n", p.ID, p.Name)
		}
	}

	fmt.Fprintln(a.out, "\nRecent projects:")
	printProjects(a.out, d.Recent, !a.session.HasCapability(access.CanViewAllProjects))
	return nil
}

func (a *App) Projects(ctx context.Context, _ []string) error {
	if err := a.require(access.CanViewAllProjects); err != nil {
		return err
	}
	projects, err := a.scopedProjects(ctx)
	if err != nil {
		return err
	}
	printProjects(a.out, projects, false)
	return nil
}

func (a *App) MyProjects(ctx context.Context, _ []string) error {
	projects, err := a.scopedProjects(ctx)
	if err != nil {
		return err
	}
	printProjects(a.out, projects, true)
	return nil
}

func (a *App) ShowProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("project <id>")
	}
	p, err := a.accessibleProject(ctx, args[0])
	if err != nil {
		return err
	}
	printProject(a.out, p, a.session.HasCapability(access.CanViewAllProjects))
	return nil
}

func (a *App) NewProject(ctx context.Context, _ []string) error {
	if err := a.require(access.CanCreateProjects); err != nil {
		return err
	}
	p, err := a.projectForm(ctx, models.Project{})
	if err != nil {
		return err
	}

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	created, err := a.api.CreateProject(rctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Project %q created with id %s\n", created.Name, created.ID)
	return nil
}

func (a *App) EditProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("editproject <id>")
	}
	editAll := a.session.HasCapability(access.CanEditAllProjects)
	if !editAll {
		if err := a.require(access.CanEditAssignedProjects); err != nil {
			return err
		}
	}

	current, err := a.accessibleProject(ctx, args[0])
	if err != nil {
		return err
	}
	p, err := a.projectForm(ctx, *current)
	if err != nil {
		return err
	}

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	updated, err := a.api.UpdateProject(rctx, p)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Project %q updated\n", updated.Name)
	return nil
}

func (a *App) DeleteProject(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return usage("deleteproject <id>")
	}
	if err := a.require(access.CanDeleteProjects); err != nil {
		return err
	}

	p, err := a.accessibleProject(ctx, args[0])
	if err != nil {
		return err
	}
	ok, err := a.confirm(fmt.Sprintf("Delete project %q and all of its files?", p.Name))
	if err != nil || !ok {
		return err
	}

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	results, err := a.api.DeleteProject(rctx, p.ID)
	if err != nil {
		return err
	}
	if failed := printResults(a.out, results); failed > 0 {
		fmt.Fprintf(a.out, "%d stored files could not be removed\n", failed)
	}
	fmt.Fprintf(a.out, "Project %q deleted\n", p.Name)
	return nil
}

func (a *App) Summary(ctx context.Context, args []string) error {
	if err := a.require(access.CanViewAllProjects); err != nil {
		return err
	}
	year := a.now().Year()
	if len(args) > 0 {
		y, err := strconv.Atoi(args[0])
		if err != nil {
			return usage("summary [year]")
		}
		year = y
	}

	projects, err := a.scopedProjects(ctx)
	if err != nil {
		return err
	}

	ys := dashboard.MonthlySummary(projects, year)
	fmt.Fprintf(a.out, "Summary for %d\n", ys.Year)
	tw := table(a.out)
	fmt.Fprintln(tw, "MONTH\tPROJECTS\tBUDGET")
	for _, m := range ys.Months {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", m.Month, m.Count, money(m.Budget))
	}
	fmt.Fprintf(tw, "TOTAL\t%d\t%s\n", ys.TotalProjects, money(ys.TotalBudget))
	fmt.Fprintf(tw, "AVERAGE\t%.1f\t%s\n", ys.AvgProjectsMonth, money(ys.AvgBudgetMonth))
	tw.Flush()

	fmt.Fprintf(a.out, "Years with data: %v\n", dashboard.Years(projects, a.now()))
	return nil
}

func (a *App) Activities(ctx context.Context, args []string) error {
	if err := a.require(access.CanViewAllProjects); err != nil {
		return err
	}
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return usage("activities [limit]")
		}
		limit = n
	}

	rctx, cancel := a.withTimeout(ctx)
	defer cancel()
	acts, err := a.api.ListActivities(rctx, limit)
	if err != nil {
		return err
	}
	if len(acts) == 0 {
		fmt.Fprintln(a.out, "No activity yet")
		return nil
	}
	for _, act := range acts {
		fmt.Fprintf(a.out, "%s  %-16s %s\n", act.CreatedAt.Format("2006-01-02 15:04"), act.Action, act.Description)
	}
	return nil
}
