package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/models"
)

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func date(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(time.DateOnly)
}

func money(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printProjects(w io.Writer, projects []models.Project, withRole bool) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects")
		return
	}
	tw := table(w)
	header := "ID\tNAME\tSTATUS\tEND\tPROGRESS"
	if withRole {
		header += "\tROLE"
	}
	fmt.Fprintln(tw, header)
	for _, p := range projects {
		row := fmt.Sprintf("%s\t%s\t%s\t%s\t%d%%", p.ID, p.Name, p.Status, date(p.EndDate), p.Progress())
		if withRole {
			row += "\t" + orDash(p.UserAssignmentRole)
		}
		fmt.Fprintln(tw, row)
	}
	tw.Flush()
}

func printProject(w io.Writer, p *models.Project, withBudget bool) {
	fmt.Fprintf(w, "%s  [%s]\n", p.Name, p.Status)
	fmt.Fprintf(w, "  id:        %s\n", p.ID)
	if p.Description != "" {
		fmt.Fprintf(w, "  about:     %s\n", p.Description)
	}
	fmt.Fprintf(w, "  dates:     %s .. %s\n", date(p.StartDate), date(p.EndDate))
	fmt.Fprintf(w, "  owner:     %s %s\n", orDash(p.OwnerName), p.OwnerContact)
	fmt.Fprintf(w, "  progress:  %d%% of %d tasks\n", p.Progress(), len(p.Tasks))

	if withBudget {
		fmt.Fprintf(w, "  budget:    %s\n", money(p.Budget))
		for _, in := range p.PaymentInstallments {
			paid := "open"
			if in.Paid {
				paid = "paid"
			}
			fmt.Fprintf(w, "    #%d %s %s (%s)\n", in.Installment, money(in.Amount), in.Description, paid)
		}
	}

	if len(p.Assignments) > 0 {
		fmt.Fprintln(w, "  team:")
		for _, as := range p.Assignments {
			fmt.Fprintf(w, "    %s <%s> %s\n", as.TeamMember.Name, as.TeamMember.Email, orDash(as.Role))
		}
	}
	if len(p.Tasks) > 0 {
		fmt.Fprintln(w, "  tasks:")
		for _, t := range p.Tasks {
			fmt.Fprintf(w, "    [%s] %s\n", t.Status, t.Name)
		}
	}
}

func printMembers(w io.Writer, members []models.TeamMember) {
	if len(members) == 0 {
		fmt.Fprintln(w, "No team members")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tPOSITION\tEMAIL\tACTIVE\tPROJECTS")
	for _, m := range members {
		projects := make([]string, 0, len(m.Assignments))
		for _, as := range m.Assignments {
			name := as.Project.Name
			if name == "" {
				name = as.ProjectID
			}
			projects = append(projects, fmt.Sprintf("%s (%s)", name, as.Role))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n",
			m.ID, m.Name, orDash(m.Position), m.Email, m.Active, orDash(strings.Join(projects, ", ")))
	}
	tw.Flush()
}

func printFiles(w io.Writer, files []models.ProjectFile) {
	if len(files) == 0 {
		fmt.Fprintln(w, "No files")
		return
	}
	tw := table(w)
	fmt.Fprintln(tw, "ID\tNAME\tSIZE\tTYPE\tUPLOADED")
	for _, f := range files {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n", f.ID, f.FileName, f.FileSize, orDash(f.FileType), date(f.CreatedAt))
	}
	tw.Flush()
}

// printResults lists the failed items of a batch and returns how many failed.
func printResults(w io.Writer, results []models.FileResult) int {
	failed := 0
	for _, r := range results {
		if r.Error == "" {
			fmt.Fprintf(w, "  ok      %s\n", r.Name)
			continue
		}
		failed++
		fmt.Fprintf(w, "  failed  %s: %s\n", r.Name, r.Error)
	}
	return failed
}
