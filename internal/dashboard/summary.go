package dashboard

import (
	"sort"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/models"
)

type MonthSummary struct {
	Month    time.Month
	Projects []models.Project
	Count    int
	Budget   float64
}

// YearSummary groups projects by the month they were created in.
type YearSummary struct {
	Year             int
	Months           [12]MonthSummary
	TotalProjects    int
	TotalBudget      float64
	AvgProjectsMonth float64
	AvgBudgetMonth   float64
}

// MonthlySummary builds the twelve months of year. Averages divide by 12
// even for the current, unfinished year.
func MonthlySummary(projects []models.Project, year int) YearSummary {
	ys := YearSummary{Year: year}
	for i := range ys.Months {
		ys.Months[i].Month = time.Month(i + 1)
	}

	for _, p := range projects {
		if p.CreatedAt.IsZero() || p.CreatedAt.Year() != year {
			continue
		}
		m := &ys.Months[p.CreatedAt.Month()-1]
		m.Count++
		m.Budget += p.Budget
		m.Projects = append(m.Projects, p)
	}

	for _, m := range ys.Months {
		ys.TotalProjects += m.Count
		ys.TotalBudget += m.Budget
	}
	ys.AvgProjectsMonth = float64(ys.TotalProjects) / 12
	ys.AvgBudgetMonth = ys.TotalBudget / 12
	return ys
}

// Years lists the creation years present in projects plus the current one,
// newest first.
func Years(projects []models.Project, now time.Time) []int {
	seen := map[int]bool{now.Year(): true}
	for _, p := range projects {
		if !p.CreatedAt.IsZero() {
			seen[p.CreatedAt.Year()] = true
		}
	}
	out := make([]int, 0, len(seen))
	for y := range seen {
		out = append(out, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(out)))
	return out
}
