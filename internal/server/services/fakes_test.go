package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	smodels "github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/activities"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/files"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/projects"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/teammembers"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
)

const testAdminEmail = "admin@projecthub.test"

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
		AdminEmail:                   testAdminEmail,
		S3FilesBucket:                common.ProjectFilesBucket,
		S3AvatarsBucket:              common.TeamAvatarsBucket,
	}
}

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// expectTx queues n committed transactions.
func expectTx(mock sqlmock.Sqlmock, n int) {
	for i := 0; i < n; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
}

func asAdmin(ctx context.Context) context.Context {
	return access.WithPrincipal(ctx, &access.Principal{ID: "admin-id", Email: testAdminEmail})
}

func asUser(ctx context.Context, email string) context.Context {
	return access.WithPrincipal(ctx, &access.Principal{ID: "id-" + email, Email: email})
}

// memStore is an in-memory repository set shared by every DBTX.
type memStore struct {
	mu         sync.Mutex
	seq        int
	users      map[string]*smodels.User
	tokens     map[string]*smodels.RefreshToken
	projects   map[string]*models.Project
	members    map[string]*models.TeamMember
	files      map[string]*models.ProjectFile
	activities []models.Activity
	failOn     map[string]error
	// raceRotate drops a token right after Find hands it out.
	raceRotate bool
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]*smodels.User{},
		tokens:   map[string]*smodels.RefreshToken{},
		projects: map[string]*models.Project{},
		members:  map[string]*models.TeamMember{},
		files:    map[string]*models.ProjectFile{},
		failOn:   map[string]error{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s%d", prefix, m.seq)
}

func (m *memStore) fail(op string) error { return m.failOn[op] }

func (m *memStore) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memStore) Users(dbx.DBTX) users.Repository { return memUsers{m} }
func (m *memStore) RefreshTokens(dbx.DBTX) refreshtokens.Repository { return memTokens{m} }
func (m *memStore) Projects(dbx.DBTX) projects.Repository { return memProjects{m} }
func (m *memStore) TeamMembers(dbx.DBTX) teammembers.Repository { return memMembers{m} }
func (m *memStore) Files(dbx.DBTX) files.Repository { return memFiles{m} }
func (m *memStore) Activities(dbx.DBTX) activities.Repository { return memActivities{m} }

type memUsers struct{ m *memStore }

func (r memUsers) Create(_ context.Context, u *smodels.User) (*smodels.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("users.create"); err != nil {
		return nil, err
	}
	for _, existing := range r.m.users {
		if existing.Email == u.Email {
			return nil, common.ErrorAlreadyExists
		}
	}
	out := *u
	out.ID = r.m.nextID("u")
	r.m.users[out.ID] = &out
	return &out, nil
}

func (r memUsers) GetUserByEmail(_ context.Context, email string) (*smodels.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	for _, u := range r.m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) GetUserByID(_ context.Context, id string) (*smodels.User, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	u, ok := r.m.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

type memTokens struct{ m *memStore }

func (r memTokens) Create(_ context.Context, userID, token string, expiresAt time.Time) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("tokens.create"); err != nil {
		return err
	}
	r.m.tokens[token] = &smodels.RefreshToken{UserID: userID, Token: token, Expires: expiresAt}
	return nil
}

func (r memTokens) Find(_ context.Context, token string) (*smodels.RefreshToken, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	t, ok := r.m.tokens[token]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	if r.m.raceRotate {
		delete(r.m.tokens, token)
	}
	return &c, nil
}

func (r memTokens) Delete(_ context.Context, token string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.tokens[token]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.tokens, token)
	return nil
}

func (r memTokens) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var n int64
	for k, t := range r.m.tokens {
		if t.Expires.Before(now) {
			delete(r.m.tokens, k)
			n++
		}
	}
	return n, nil
}

type memProjects struct{ m *memStore }

func (r memProjects) List(_ context.Context) ([]models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("projects.list"); err != nil {
		return nil, err
	}
	out := make([]models.Project, 0, len(r.m.projects))
	for _, p := range r.m.projects {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r memProjects) Get(_ context.Context, id string) (*models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	p, ok := r.m.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := p.Clone()
	return &c, nil
}

func (r memProjects) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if err := r.m.fail("projects.create"); err != nil {
		return nil, err
	}
	c := p.Clone()
	c.ID = r.m.nextID("p")
	c.CreatedAt = time.Now().Add(time.Duration(r.m.seq) * time.Second)
	r.m.projects[c.ID] = &c
	out := c.Clone()
	return &out, nil
}

func (r memProjects) Update(_ context.Context, p *models.Project) (*models.Project, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	old, ok := r.m.projects[p.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := p.Clone()
	c.CreatedAt = old.CreatedAt
	c.Assignments = old.Assignments
	c.Tasks = old.Tasks
	r.m.projects[c.ID] = &c
	out := c.Clone()
	return &out, nil
}

func (r memProjects) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.projects[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.projects, id)
	for k, f := range r.m.files {
		if f.ProjectID == id {
			delete(r.m.files, k)
		}
	}
	return nil
}

type memMembers struct{ m *memStore }

func (r memMembers) List(_ context.Context) ([]models.TeamMember, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.TeamMember, 0, len(r.m.members))
	for _, tm := range r.m.members {
		out = append(out, *tm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memMembers) Get(_ context.Context, id string) (*models.TeamMember, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tm, ok := r.m.members[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *tm
	return &c, nil
}

func (r memMembers) Create(_ context.Context, tm *models.TeamMember) (*models.TeamMember, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	c := *tm
	c.ID = r.m.nextID("m")
	c.Assignments = nil
	r.m.members[c.ID] = &c
	out := c
	return &out, nil
}

func (r memMembers) Update(_ context.Context, tm *models.TeamMember) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.members[tm.ID]; !ok {
		return common.ErrorNotFound
	}
	c := *tm
	r.m.members[c.ID] = &c
	return nil
}

func (r memMembers) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.members[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.members, id)
	return nil
}

func (r memMembers) ReplaceAssignments(_ context.Context, memberID string, in []models.MemberAssignment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	tm, ok := r.m.members[memberID]
	if !ok {
		return common.ErrorNotFound
	}
	tm.Assignments = []models.MemberAssignment{}
	for _, a := range models.UsableAssignments(in) {
		p, ok := r.m.projects[a.ProjectID]
		if !ok {
			return common.ErrorNotFound
		}
		a.ID = r.m.nextID("a")
		a.Project = models.ProjectRef{ID: p.ID, Name: p.Name, Status: p.Status}
		tm.Assignments = append(tm.Assignments, a)
	}
	return nil
}

type memFiles struct{ m *memStore }

func (r memFiles) Create(_ context.Context, f *models.ProjectFile) (*models.ProjectFile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.projects[f.ProjectID]; !ok {
		return nil, common.ErrorNotFound
	}
	c := *f
	c.ID = r.m.nextID("f")
	r.m.files[c.ID] = &c
	out := c
	return &out, nil
}

func (r memFiles) ListByProject(_ context.Context, projectID string) ([]models.ProjectFile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.ProjectFile, 0)
	for _, f := range r.m.files {
		if f.ProjectID == projectID {
			out = append(out, *f)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memFiles) Get(_ context.Context, id string) (*models.ProjectFile, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	f, ok := r.m.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (r memFiles) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	if _, ok := r.m.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.files, id)
	return nil
}

type memActivities struct{ m *memStore }

func (r memActivities) Create(_ context.Context, a *models.Activity) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	r.m.activities = append(r.m.activities, *a)
	return nil
}

func (r memActivities) ListRecent(_ context.Context, limit int) ([]models.Activity, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]models.Activity, 0, limit)
	for i := len(r.m.activities) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.m.activities[i])
	}
	return out, nil
}

// fakeFileStore records presign and remove calls.
type fakeFileStore struct {
	mu        sync.Mutex
	removed   []string
	removeErr map[string]error
	putErr    error
}

func (f *fakeFileStore) PresignPut(_ context.Context, bucket, key, _ string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	return "http://s3.test/" + bucket + "/" + key + "?put", nil
}

func (f *fakeFileStore) PresignGet(_ context.Context, bucket, key string) (string, error) {
	return "http://s3.test/" + bucket + "/" + key + "?get", nil
}

func (f *fakeFileStore) Remove(_ context.Context, _ string, keys []string) map[string]error {
	f.mu.Lock()
	defer f.mu.Unlock()
	failed := map[string]error{}
	for _, k := range keys {
		if err := f.removeErr[k]; err != nil {
			failed[k] = err
			continue
		}
		f.removed = append(f.removed, k)
	}
	return failed
}

func (f *fakeFileStore) PublicURL(bucket, key string) string {
	return "http://cdn.test/" + bucket + "/" + key
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *fakeRecorder) RecordFileOperation(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.ops = append(r.ops, op+":"+result)
}

// seedProject stores a project assigned to the given member emails.
func (m *memStore) seedProject(name string, emails ...string) *models.Project {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &models.Project{ID: m.nextID("p"), Name: name, Status: models.StatusTodo}
	p.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Second)
	for _, e := range emails {
		p.Assignments = append(p.Assignments, models.Assignment{
			ID:         m.nextID("a"),
			Role:       "Developer",
			TeamMember: models.MemberRef{ID: m.nextID("m"), Name: e, Email: e},
		})
	}
	r := p.Clone()
	m.projects[p.ID] = &r
	return p
}

func (m *memStore) seedFile(projectID, name, path string) *models.ProjectFile {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := &models.ProjectFile{ID: m.nextID("f"), ProjectID: projectID, FileName: name, FilePath: path}
	c := *f
	m.files[f.ID] = &c
	return f
}
