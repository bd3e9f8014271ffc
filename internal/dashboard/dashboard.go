// Package dashboard computes the figures shown on the dashboard and the
// monthly summary from an already scoped project list. Everything here is
// pure; callers pass the projects the session may see and the clock.
package dashboard

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/models"
)

const (
	DeadlineWindowDays = 7
	MaxDeadlines       = 5
	RecentCount        = 5
)

// Stats are the headline counters. Budgets are filled only when the viewer
// may see every project.
type Stats struct {
	Total        int
	Done         int
	InProgress   int
	Delayed      int
	ShowBudget   bool
	TotalBudget  float64
	ActiveBudget float64
}

// ActiveBudgetPercent is the share of the budget still tied to unfinished
// projects, rounded. Zero when there is no budget.
func (s Stats) ActiveBudgetPercent() int {
	if s.TotalBudget <= 0 {
		return 0
	}
	return int(s.ActiveBudget/s.TotalBudget*100 + 0.5)
}

// CompletionPercent is done projects over all projects, rounded.
func (s Stats) CompletionPercent() int {
	if s.Total == 0 {
		return 0
	}
	return int(float64(s.Done)/float64(s.Total)*100 + 0.5)
}

// Deadline is an unfinished project due soon.
type Deadline struct {
	Project  models.Project
	DaysLeft int
}

// Dashboard bundles everything the dashboard view prints.
type Dashboard struct {
	Stats     Stats
	Deadlines []Deadline
	Recent    []models.Project
	Delayed   []models.Project
}

func ComputeStats(projects []models.Project, perms access.PermissionSet) Stats {
	s := Stats{Total: len(projects)}
	for _, p := range projects {
		switch p.Status {
		case models.StatusDone:
			s.Done++
		case models.StatusInProgress:
			s.InProgress++
		case models.StatusDelay:
			s.Delayed++
		}
	}

	if !perms.Has(access.CanViewAllProjects) {
		return s
	}
	s.ShowBudget = true
	for _, p := range projects {
		s.TotalBudget += p.Budget
		if p.Status != models.StatusDone {
			s.ActiveBudget += p.Budget
		}
	}
	return s
}

// daysUntil counts whole days from now to t, truncated toward zero, so a
// deadline a few hours ago still reads as 0.
func daysUntil(t, now time.Time) int {
	return int(t.Sub(now) / (24 * time.Hour))
}

// UpcomingDeadlines keeps unfinished projects ending within the next week,
// soonest first, at most MaxDeadlines of them.
func UpcomingDeadlines(projects []models.Project, now time.Time) []Deadline {
	out := make([]Deadline, 0, MaxDeadlines)
	for _, p := range projects {
		if p.Status == models.StatusDone || p.EndDate.IsZero() {
			continue
		}
		days := daysUntil(p.EndDate, now)
		if days < 0 || days > DeadlineWindowDays {
			continue
		}
		out = append(out, Deadline{Project: p, DaysLeft: days})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Project.EndDate.Before(out[j].Project.EndDate)
	})
	if len(out) > MaxDeadlines {
		out = out[:MaxDeadlines]
	}
	return out
}

// Recent returns up to n projects, newest first by creation time.
func Recent(projects []models.Project, n int) []models.Project {
	out := append([]models.Project(nil), projects...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func Delayed(projects []models.Project) []models.Project {
	out := make([]models.Project, 0)
	for _, p := range projects {
		if p.Status == models.StatusDelay {
			out = append(out, p)
		}
	}
	return out
}

func Build(projects []models.Project, perms access.PermissionSet, now time.Time) Dashboard {
	return Dashboard{
		Stats:     ComputeStats(projects, perms),
		Deadlines: UpcomingDeadlines(projects, now),
		Recent:    Recent(projects, RecentCount),
		Delayed:   Delayed(projects),
	}
}
