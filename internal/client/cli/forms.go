package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

var getMultiline = GetMultiline

// field prompts for one value. An empty answer keeps current.
func (a *App) field(label, current string) (string, error) {
	prompt := label
	if current != "" {
		prompt = fmt.Sprintf("%s [%s]", label, current)
	}
	v, err := getSimpleText(a.reader, prompt, a.out)
	if err != nil {
		return "", err
	}
	if v == "" {
		return current, nil
	}
	return v, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" || s == "-" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q, want YYYY-MM-DD", common.ErrorInvalidArgument, s)
	}
	return t, nil
}

func dateValue(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func yes(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "y", "yes", "true", "1":
		return true
	}
	return false
}

func (a *App) confirm(question string) (bool, error) {
	v, err := getSimpleText(a.reader, question+" [y/N]", a.out)
	if err != nil {
		return false, err
	}
	return yes(v), nil
}

// parseInstallments reads "amount | description | paid" lines. Numbers are
// assigned in order.
func parseInstallments(lines []string) ([]models.PaymentInstallment, error) {
	out := make([]models.PaymentInstallment, 0, len(lines))
	for i, line := range lines {
		parts := strings.Split(line, "|")
		amount, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: installment %d amount %q", common.ErrorInvalidArgument, i+1, parts[0])
		}
		in := models.PaymentInstallment{Installment: i + 1, Amount: amount}
		if len(parts) > 1 {
			in.Description = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			in.Paid = yes(parts[2])
		}
		out = append(out, in)
	}
	return models.NormalizeInstallments(out), nil
}

// projectForm asks for every editable project field starting from base.
func (a *App) projectForm(_ context.Context, base models.Project) (models.Project, error) {
	p := base.Clone()
	var err error

	if p.Name, err = a.field("Name", p.Name); err != nil {
		return p, err
	}
	if p.Description, err = a.field("Description", p.Description); err != nil {
		return p, err
	}

	status := string(p.Status)
	if status == "" {
		status = string(models.StatusTodo)
	}
	if status, err = a.field("Status (todo, in-progress, done, delay, maintenance)", status); err != nil {
		return p, err
	}
	if p.Status, err = models.ParseStatus(status); err != nil {
		return p, fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}

	s, err := a.field("Start date (YYYY-MM-DD, - to clear)", dateValue(p.StartDate))
	if err != nil {
		return p, err
	}
	if p.StartDate, err = parseDate(s); err != nil {
		return p, err
	}
	if s, err = a.field("End date (YYYY-MM-DD, - to clear)", dateValue(p.EndDate)); err != nil {
		return p, err
	}
	if p.EndDate, err = parseDate(s); err != nil {
		return p, err
	}

	budget := ""
	if p.Budget != 0 {
		budget = strconv.FormatFloat(p.Budget, 'f', -1, 64)
	}
	if budget, err = a.field("Budget", budget); err != nil {
		return p, err
	}
	if budget != "" {
		if p.Budget, err = strconv.ParseFloat(budget, 64); err != nil {
			return p, fmt.Errorf("%w: budget %q", common.ErrorInvalidArgument, budget)
		}
	}

	if p.OwnerName, err = a.field("Owner name", p.OwnerName); err != nil {
		return p, err
	}
	if p.OwnerContact, err = a.field("Owner contact", p.OwnerContact); err != nil {
		return p, err
	}

	lines, err := getMultiline(a.reader, "Payment installments, one per line: amount | description | paid (y/n). Empty keeps the current list", a.out)
	if err != nil {
		return p, err
	}
	if len(lines) > 0 {
		if p.PaymentInstallments, err = parseInstallments(lines); err != nil {
			return p, err
		}
	}

	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
	return p, nil
}

func splitSkills(s string) []string {
	out := make([]string, 0)
	for _, sk := range strings.Split(s, ",") {
		if sk = strings.TrimSpace(sk); sk != "" {
			out = append(out, sk)
		}
	}
	return out
}

// memberForm asks for the team member fields and its project assignments.
func (a *App) memberForm(_ context.Context, base models.TeamMember) (models.TeamMember, error) {
	m := base
	m.Skills = append([]string(nil), base.Skills...)
	m.Assignments = append([]models.MemberAssignment(nil), base.Assignments...)
	var err error

	if m.Name, err = a.field("Name", m.Name); err != nil {
		return m, err
	}
	if m.Position, err = a.field("Position", m.Position); err != nil {
		return m, err
	}
	if m.Email, err = a.field("Email", m.Email); err != nil {
		return m, err
	}
	if m.Phone, err = a.field("Phone", m.Phone); err != nil {
		return m, err
	}

	skills, err := a.field("Skills (comma separated)", strings.Join(m.Skills, ", "))
	if err != nil {
		return m, err
	}
	m.Skills = splitSkills(skills)

	active := "y"
	if base.ID != "" && !base.Active {
		active = "n"
	}
	if active, err = a.field("Active (y/n)", active); err != nil {
		return m, err
	}
	m.Active = yes(active)

	lines, err := getMultiline(a.reader, "Assignments, one per line: project-id | role. Empty keeps the current list", a.out)
	if err != nil {
		return m, err
	}
	if len(lines) > 0 {
		as := make([]models.MemberAssignment, 0, len(lines))
		for _, line := range lines {
			parts := strings.SplitN(line, "|", 2)
			ma := models.MemberAssignment{ProjectID: strings.TrimSpace(parts[0])}
			if len(parts) > 1 {
				ma.Role = strings.TrimSpace(parts[1])
			}
			as = append(as, ma)
		}
		m.Assignments = models.UsableAssignments(as)
	}

	if err := m.Validate(); err != nil {
		return m, fmt.Errorf("%w: %v", common.ErrorInvalidArgument, err)
	}
	return m, nil
}
