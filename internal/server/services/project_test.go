package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type projectFixture struct {
	svc   *ProjectService
	store *memStore
	files *fakeFileStore
	rec   *fakeRecorder
	log   *logging.Recorder
	mock  sqlmock.Sqlmock
}

func newProjectFixture(t *testing.T) *projectFixture {
	t.Helper()
	db, mock := newMockDB(t)
	f := &projectFixture{
		store: newMemStore(),
		files: &fakeFileStore{removeErr: map[string]error{}},
		rec:   &fakeRecorder{},
		log:   logging.NewRecorder(),
		mock:  mock,
	}
	f.svc = NewProjectService(db, f.store, f.files, f.rec, testConfig(), f.log)
	return f
}

func TestProjectList_ScopedByAssignment(t *testing.T) {
	f := newProjectFixture(t)
	f.store.seedProject("Website", "ann@example.com")
	f.store.seedProject("Mobile", "bob@example.com")
	f.store.seedProject("Shop", "ann@example.com", "bob@example.com")

	all, err := f.svc.List(asAdmin(context.Background()))
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Shop", all[0].Name)

	mine, err := f.svc.List(asUser(context.Background(), "ann@example.com"))
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "Shop", mine[0].Name)
	assert.Equal(t, "Website", mine[1].Name)
	assert.Equal(t, "Developer", mine[0].UserAssignmentRole)

	none, err := f.svc.List(asUser(context.Background(), "carol@example.com"))
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.svc.List(context.Background())
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestProjectList_FetchFailureDegradesToEmpty(t *testing.T) {
	f := newProjectFixture(t)
	f.store.seedProject("Website", "ann@example.com")
	f.store.failOn["projects.list"] = errors.New("db down")

	got, err := f.svc.List(asUser(context.Background(), "ann@example.com"))
	require.NoError(t, err)
	assert.Empty(t, got)
	_, ok := f.log.Find("project fetch failed")
	assert.True(t, ok)
}

func TestProjectGet_Gate(t *testing.T) {
	f := newProjectFixture(t)
	p := f.store.seedProject("Website", "ann@example.com")

	got, err := f.svc.Get(asUser(context.Background(), "ann@example.com"), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Website", got.Name)
	assert.Equal(t, "Developer", got.UserAssignmentRole)

	listed, err := f.svc.List(asUser(context.Background(), "ann@example.com"))
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, listed[0].UserAssignmentRole, got.UserAssignmentRole)

	got, err = f.svc.Get(asAdmin(context.Background()), p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.UserAssignmentRole)

	_, err = f.svc.Get(asUser(context.Background(), "bob@example.com"), p.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.svc.Get(asAdmin(context.Background()), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestProjectCreate(t *testing.T) {
	f := newProjectFixture(t)
	expectTx(f.mock, 1)

	in := &models.Project{
		Name:   "Website",
		Status: models.StatusTodo,
		PaymentInstallments: []models.PaymentInstallment{
			{Installment: 1, Amount: 500},
			{},
		},
	}
	created, err := f.svc.Create(asAdmin(context.Background()), in)
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "admin-id", created.UserID)
	assert.Len(t, created.PaymentInstallments, 1)
	assert.Len(t, in.PaymentInstallments, 2, "input must not be modified")

	require.Len(t, f.store.activities, 1)
	assert.Equal(t, models.ActionProjectCreated, f.store.activities[0].Action)
	assert.Equal(t, created.ID, f.store.activities[0].ProjectID)
}

func TestProjectCreate_Rejected(t *testing.T) {
	f := newProjectFixture(t)

	_, err := f.svc.Create(asUser(context.Background(), "ann@example.com"), &models.Project{Name: "X", Status: models.StatusTodo})
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.svc.Create(asAdmin(context.Background()), &models.Project{Status: models.StatusTodo})
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = f.svc.Create(asAdmin(context.Background()), &models.Project{Name: "X", Status: "paused"})
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)
	assert.Empty(t, f.store.activities)
}

func TestProjectUpdate(t *testing.T) {
	f := newProjectFixture(t)
	p := f.store.seedProject("Website", "ann@example.com")
	expectTx(f.mock, 1)

	upd := p.Clone()
	upd.Name = "Website v2"
	upd.Status = models.StatusInProgress
	got, err := f.svc.Update(asAdmin(context.Background()), &upd)
	require.NoError(t, err)
	assert.Equal(t, "Website v2", got.Name)
	assert.Len(t, got.Assignments, 1)
	assert.Equal(t, models.ActionProjectUpdated, f.store.activities[0].Action)

	_, err = f.svc.Update(asUser(context.Background(), "ann@example.com"), &upd)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.svc.Update(asAdmin(context.Background()), &models.Project{Name: "x", Status: models.StatusTodo})
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)
}

func TestProjectDelete_RemovesFilesFirst(t *testing.T) {
	f := newProjectFixture(t)
	p := f.store.seedProject("Website")
	f.store.seedFile(p.ID, "a.pdf", p.ID+"/1.pdf")
	f.store.seedFile(p.ID, "b.png", p.ID+"/2.png")
	f.files.removeErr[p.ID+"/2.png"] = errors.New("AccessDenied")
	expectTx(f.mock, 1)

	results, err := f.svc.Delete(asAdmin(context.Background()), p.ID)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, models.FileResult{Name: "a.pdf"}, results[0])
	assert.Equal(t, "b.png", results[1].Name)
	assert.Contains(t, results[1].Error, "AccessDenied")

	assert.Equal(t, []string{p.ID + "/1.pdf"}, f.files.removed)
	assert.NotContains(t, f.store.projects, p.ID)
	assert.Equal(t, []string{"remove:ok", "remove:error"}, f.rec.ops)

	a := f.store.activities[0]
	assert.Equal(t, models.ActionProjectDeleted, a.Action)
	assert.Empty(t, a.ProjectID)
	assert.True(t, strings.Contains(a.Description, "Website"))

	_, ok := f.log.Find("stored file not removed")
	assert.True(t, ok)
}

func TestProjectDelete_Rejected(t *testing.T) {
	f := newProjectFixture(t)
	p := f.store.seedProject("Website", "ann@example.com")

	_, err := f.svc.Delete(asUser(context.Background(), "ann@example.com"), p.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, err = f.svc.Delete(asAdmin(context.Background()), "missing")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	assert.Contains(t, f.store.projects, p.ID)
}

func TestFiles_UploadListDownloadDelete(t *testing.T) {
	f := newProjectFixture(t)
	p := f.store.seedProject("Website", "ann@example.com")
	ctx := asAdmin(context.Background())
	expectTx(f.mock, 2)

	file, url, err := f.svc.CreateFileUpload(ctx, p.ID, "Plan.pdf", 2048, "application/pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(file.FilePath, p.ID+"/"))
	assert.True(t, strings.HasSuffix(file.FilePath, ".pdf"))
	assert.Contains(t, url, "?put")
	assert.Equal(t, "admin-id", file.UserID)

	listed, err := f.svc.ListFiles(asUser(context.Background(), "ann@example.com"), p.ID)
	require.NoError(t, err)
	require.Len(t, listed, 1)

	dl, err := f.svc.GetFileDownloadURL(asUser(context.Background(), "ann@example.com"), file.ID)
	require.NoError(t, err)
	assert.Contains(t, dl, file.FilePath)

	_, err = f.svc.GetFileDownloadURL(asUser(context.Background(), "bob@example.com"), file.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	require.NoError(t, f.svc.DeleteFile(ctx, file.ID))
	assert.Empty(t, f.store.files)
	assert.Equal(t, []string{file.FilePath}, f.files.removed)

	actions := []string{f.store.activities[0].Action, f.store.activities[1].Action}
	assert.Equal(t, []string{models.ActionFileUploaded, models.ActionFileDeleted}, actions)
	assert.Equal(t, []string{"presign_put:ok", "presign_get:ok", "remove:ok"}, f.rec.ops)
}

func TestFiles_Rejected(t *testing.T) {
	f := newProjectFixture(t)
	p := f.store.seedProject("Website", "ann@example.com")
	stored := f.store.seedFile(p.ID, "a.pdf", p.ID+"/1.pdf")

	_, _, err := f.svc.CreateFileUpload(asUser(context.Background(), "ann@example.com"), p.ID, "a.pdf", 1, "")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	_, _, err = f.svc.CreateFileUpload(asAdmin(context.Background()), p.ID, "", 1, "")
	assert.ErrorIs(t, err, common.ErrorInvalidArgument)

	_, err = f.svc.ListFiles(asUser(context.Background(), "bob@example.com"), p.ID)
	assert.ErrorIs(t, err, common.ErrorForbidden)

	f.files.putErr = errors.New("sign failed")
	_, _, err = f.svc.CreateFileUpload(asAdmin(context.Background()), p.ID, "a.pdf", 1, "")
	assert.Error(t, err)
	assert.Len(t, f.store.files, 1)

	f.files.removeErr[stored.FilePath] = errors.New("AccessDenied")
	err = f.svc.DeleteFile(asAdmin(context.Background()), stored.ID)
	assert.Error(t, err)
	assert.Contains(t, f.store.files, stored.ID, "row stays when the object was not removed")
}
