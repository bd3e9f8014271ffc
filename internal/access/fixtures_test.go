package access

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/models"
)

const adminEmail = "artorsiriratpoom@gmail.com"

type fakeSource struct {
	mu       sync.Mutex
	projects []models.Project
	err      error
	calls    int
}

func (f *fakeSource) ListProjects(ctx context.Context) ([]models.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Project, len(f.projects))
	for i := range f.projects {
		out[i] = f.projects[i].Clone()
	}
	return out, nil
}

var errFetch = errors.New("connection refused")

func assign(id, role, email string) models.Assignment {
	return models.Assignment{ID: id, Role: role, TeamMember: models.MemberRef{ID: "m-" + email, Name: email, Email: email}}
}

// seededProjects mirrors a small workspace: five projects, newest first.
func seededProjects() []models.Project {
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	return []models.Project{
		{ID: "p5", Name: "Mobile app", Status: models.StatusInProgress, CreatedAt: base.AddDate(0, 0, 4),
			Assignments: []models.Assignment{assign("a1", "Designer", "u@example.com"), assign("a2", "Dev", "dev@example.com")}},
		{ID: "p4", Name: "Website", Status: models.StatusTodo, CreatedAt: base.AddDate(0, 0, 3),
			Assignments: []models.Assignment{assign("a3", "Dev", "dev@example.com")}},
		{ID: "p3", Name: "CRM", Status: models.StatusDone, CreatedAt: base.AddDate(0, 0, 2)},
		{ID: "p2", Name: "Billing", Status: models.StatusDelay, CreatedAt: base.AddDate(0, 0, 1),
			Assignments: []models.Assignment{assign("a4", "", "u@example.com")}},
		{ID: "p1", Name: "Support desk", Status: models.StatusMaintenance, CreatedAt: base},
	}
}

var emailPool = []string{"u@example.com", "dev@example.com", "qa@example.com", adminEmail, ""}
var rolePool = []string{"Designer", "Dev", "", "PM"}

func randomProjects(r *rand.Rand, n int) []models.Project {
	out := make([]models.Project, n)
	for i := range out {
		p := models.Project{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Project %d", i), Status: models.StatusTodo}
		for j := 0; j < r.Intn(4); j++ {
			p.Assignments = append(p.Assignments, assign(
				fmt.Sprintf("a%d-%d", i, j),
				rolePool[r.Intn(len(rolePool))],
				emailPool[r.Intn(len(emailPool))],
			))
		}
		out[i] = p
	}
	return out
}
