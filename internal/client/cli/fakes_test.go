package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/api"
	"github.com/dmitrijs2005/projecthub/internal/client/client"
	"github.com/dmitrijs2005/projecthub/internal/client/config"
	"github.com/dmitrijs2005/projecthub/internal/client/session"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail = "admin@example.com"
	userEmail  = "user@example.com"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

// fakeBackend plays both the auth provider and the data API. Only data
// calls are recorded.
type fakeBackend struct {
	mu sync.Mutex

	current    *access.Principal
	signInErr  error
	signOutErr error
	pingErr    error
	listErr    error

	projects   []models.Project
	files      map[string][]models.ProjectFile
	members    []models.TeamMember
	activities []models.Activity
	delResults []models.FileResult

	created       models.Project
	updated       models.Project
	saved         models.TeamMember
	activityLimit int
	calls         []string
}

func (f *fakeBackend) record(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
}

func (f *fakeBackend) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeBackend) GetCurrentSession(context.Context) (*access.Principal, error) {
	return f.current, nil
}

func (f *fakeBackend) OnAuthStateChange(func(*access.Principal)) func() { return func() {} }

func (f *fakeBackend) SignInWithPassword(_ context.Context, email, _ string) (*access.Principal, error) {
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &access.Principal{ID: "id-" + email, Email: email}, nil
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string) (*access.Principal, error) {
	return f.SignInWithPassword(ctx, email, password)
}

func (f *fakeBackend) SignOut(context.Context) error { return f.signOutErr }

func (f *fakeBackend) Close() error { return nil }

func (f *fakeBackend) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pingErr
}

func (f *fakeBackend) ListProjects(context.Context) ([]models.Project, error) {
	f.record("ListProjects")
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (f *fakeBackend) GetProject(_ context.Context, id string) (*models.Project, error) {
	f.record("GetProject")
	for _, p := range f.projects {
		if p.ID == id {
			c := p.Clone()
			return &c, nil
		}
	}
	return nil, client.ErrNotFound
}

func (f *fakeBackend) CreateProject(_ context.Context, p models.Project) (*models.Project, error) {
	f.record("CreateProject")
	f.created = p
	p.ID = "new-id"
	return &p, nil
}

func (f *fakeBackend) UpdateProject(_ context.Context, p models.Project) (*models.Project, error) {
	f.record("UpdateProject")
	f.updated = p
	return &p, nil
}

func (f *fakeBackend) DeleteProject(context.Context, string) ([]models.FileResult, error) {
	f.record("DeleteProject")
	return f.delResults, nil
}

func (f *fakeBackend) ListProjectFiles(_ context.Context, projectID string) ([]models.ProjectFile, error) {
	f.record("ListProjectFiles")
	return f.files[projectID], nil
}

func (f *fakeBackend) CreateFileUpload(context.Context, api.FileUploadRequest) (*api.FileUploadResponse, error) {
	f.record("CreateFileUpload")
	return &api.FileUploadResponse{}, nil
}

func (f *fakeBackend) GetFileDownloadURL(context.Context, string) (string, error) {
	f.record("GetFileDownloadURL")
	return "", nil
}

func (f *fakeBackend) DeleteFile(context.Context, string) error {
	f.record("DeleteFile")
	return nil
}

func (f *fakeBackend) ListTeamMembers(context.Context) ([]models.TeamMember, error) {
	f.record("ListTeamMembers")
	return append([]models.TeamMember(nil), f.members...), nil
}

func (f *fakeBackend) SaveTeamMember(_ context.Context, m models.TeamMember) (*models.TeamMember, error) {
	f.record("SaveTeamMember")
	f.saved = m
	if m.ID == "" {
		m.ID = "m-new"
	}
	return &m, nil
}

func (f *fakeBackend) DeleteTeamMember(context.Context, string) error {
	f.record("DeleteTeamMember")
	return nil
}

func (f *fakeBackend) CreateAvatarUpload(context.Context, string) (*api.AvatarUploadResponse, error) {
	f.record("CreateAvatarUpload")
	return &api.AvatarUploadResponse{}, nil
}

func (f *fakeBackend) ListActivities(_ context.Context, limit int) ([]models.Activity, error) {
	f.record("ListActivities")
	f.activityLimit = limit
	return f.activities, nil
}

type fakeFiles struct {
	uploaded   []string
	uploadErrs map[string]string
	downloaded []models.ProjectFile
	avatar     string
}

func (f *fakeFiles) UploadFiles(_ context.Context, _ string, paths []string) []models.FileResult {
	out := make([]models.FileResult, 0, len(paths))
	for _, p := range paths {
		f.uploaded = append(f.uploaded, p)
		out = append(out, models.FileResult{Name: p, Error: f.uploadErrs[p]})
	}
	return out
}

func (f *fakeFiles) Download(_ context.Context, file models.ProjectFile) (string, error) {
	f.downloaded = append(f.downloaded, file)
	return "/downloads/" + file.FileName, nil
}

func (f *fakeFiles) UploadAvatar(_ context.Context, path string) (string, error) {
	f.avatar = path
	return "https://cdn.example/" + path, nil
}

type memEmails struct {
	last string
}

func (m *memEmails) LastEmail(context.Context) (string, error) { return m.last, nil }
func (m *memEmails) SaveLastEmail(_ context.Context, e string) error {
	m.last = e
	return nil
}

func seedProjects() []models.Project {
	assign := func(role string) []models.Assignment {
		return []models.Assignment{{ID: "as-" + role, Role: role, TeamMember: models.MemberRef{ID: "m-user", Name: "User", Email: userEmail}}}
	}
	return []models.Project{
		{
			ID: "p1", Name: "Alpha", Status: models.StatusInProgress, Budget: 1000,
			EndDate: fixedNow.AddDate(0, 0, 3), CreatedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
			Assignments: assign("Developer"),
		},
		{
			ID: "p2", Name: "Beta", Status: models.StatusDone, Budget: 500,
			CreatedAt: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID: "p3", Name: "Gamma", Status: models.StatusDelay, Budget: 250,
			CreatedAt: time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
			Assignments: assign(""),
		},
	}
}

func seedMembers() []models.TeamMember {
	return []models.TeamMember{
		{ID: "m-admin", Name: "Admin", Email: adminEmail, Active: true},
		{ID: "m-user", Name: "User", Email: userEmail, Active: true, Skills: []string{"go"},
			Assignments: []models.MemberAssignment{{ProjectID: "p1", Role: "Developer"}}},
	}
}

// newTestApp builds an App over the fakes. email selects who is signed in;
// an empty email starts signed out.
func newTestApp(t *testing.T, email, input string) (*App, *fakeBackend, *fakeFiles, *bytes.Buffer) {
	t.Helper()

	be := &fakeBackend{
		projects: seedProjects(),
		members:  seedMembers(),
		files: map[string][]models.ProjectFile{
			"p1": {{ID: "f1", ProjectID: "p1", FileName: "plan.pdf", FileSize: 10}},
		},
	}
	if email != "" {
		be.current = &access.Principal{ID: "id-" + email, Email: email}
	}

	sess := session.New(be, be, adminEmail, logging.NewNop())
	require.NoError(t, sess.Start(context.Background()))
	t.Cleanup(sess.Close)

	ff := &fakeFiles{}
	out := &bytes.Buffer{}
	a := &App{
		config:  &config.Config{RequestTimeout: time.Second},
		api:     be,
		session: sess,
		files:   ff,
		emails:  &memEmails{},
		logger:  logging.NewNop(),
		reader:  rdr(input),
		out:     out,
		now:     func() time.Time { return fixedNow },
	}
	return a, be, ff, out
}

func stubPassword(t *testing.T, pw string) {
	t.Helper()
	old := readPassword
	readPassword = func(int) ([]byte, error) { return []byte(pw), nil }
	t.Cleanup(func() { readPassword = old })
}
