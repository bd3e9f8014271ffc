package services

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dmitrijs2005/projecthub/internal/api"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	mu sync.Mutex

	baseURL   string
	uploadErr map[string]error
	requests  []api.FileUploadRequest
	deleted   []string
	deleteErr error
	avatarErr error
}

func (f *fakeAPI) CreateFileUpload(_ context.Context, req api.FileUploadRequest) (*api.FileUploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.uploadErr[req.FileName]; err != nil {
		return nil, err
	}
	f.requests = append(f.requests, req)
	return &api.FileUploadResponse{
		File:      models.ProjectFile{ID: "f-" + req.FileName, ProjectID: req.ProjectID, FileName: req.FileName},
		UploadURL: f.baseURL + "/put/" + req.FileName,
	}, nil
}

func (f *fakeAPI) GetFileDownloadURL(_ context.Context, fileID string) (string, error) {
	if fileID == "missing" {
		return "", errors.New("not found")
	}
	return f.baseURL + "/get/" + fileID, nil
}

func (f *fakeAPI) DeleteFile(_ context.Context, fileID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, fileID)
	return f.deleteErr
}

func (f *fakeAPI) CreateAvatarUpload(_ context.Context, fileName string) (*api.AvatarUploadResponse, error) {
	if f.avatarErr != nil {
		return nil, f.avatarErr
	}
	return &api.AvatarUploadResponse{
		UploadURL: f.baseURL + "/put/avatars/" + fileName,
		PublicURL: "https://cdn.example/avatars/" + fileName,
	}, nil
}

// storage accepts PUTs except for names listed in reject and serves
// GET /get/<id> with a fixed body.
func storage(t *testing.T, reject map[string]bool) (*httptest.Server, *sync.Map) {
	t.Helper()
	var stored sync.Map
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPut:
			name := filepath.Base(r.URL.Path)
			if reject[name] {
				http.Error(w, "denied", http.StatusForbidden)
				return
			}
			b, _ := io.ReadAll(r.Body)
			stored.Store(name, string(b))
			w.WriteHeader(http.StatusOK)
		case http.MethodGet:
			if filepath.Base(r.URL.Path) == "f-broken" {
				http.Error(w, "gone", http.StatusNotFound)
				return
			}
			_, _ = io.WriteString(w, "remote body")
		}
	}))
	t.Cleanup(ts.Close)
	return ts, &stored
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestUploadFiles_ReportsEachFile(t *testing.T) {
	ts, stored := storage(t, map[string]bool{"rejected.txt": true})
	fa := &fakeAPI{baseURL: ts.URL, uploadErr: map[string]error{"denied.pdf": errors.New("forbidden")}}
	rec := logging.NewRecorder()
	svc := NewFileService(fa, t.TempDir(), rec)

	dir := t.TempDir()
	ok := writeFile(t, dir, "plan.pdf", "pdf bytes")
	denied := writeFile(t, dir, "denied.pdf", "x")
	rejected := writeFile(t, dir, "rejected.txt", "y")
	missing := filepath.Join(dir, "nope.bin")

	res := svc.UploadFiles(context.Background(), "p1", []string{ok, denied, rejected, missing})
	require.Len(t, res, 4)

	assert.Equal(t, models.FileResult{Name: "plan.pdf"}, res[0])
	assert.Equal(t, "denied.pdf", res[1].Name)
	assert.Contains(t, res[1].Error, "forbidden")
	assert.Equal(t, "rejected.txt", res[2].Name)
	assert.Contains(t, res[2].Error, "upload failed")
	assert.Contains(t, res[3].Error, "open")

	body, found := stored.Load("plan.pdf")
	require.True(t, found)
	assert.Equal(t, "pdf bytes", body)

	require.Len(t, fa.requests, 2)
	assert.Equal(t, "application/pdf", fa.requests[0].FileType)
	assert.Equal(t, int64(9), fa.requests[0].FileSize)
	assert.Equal(t, "p1", fa.requests[0].ProjectID)

	// only the file whose transfer failed after registration is rolled back
	assert.Equal(t, []string{"f-rejected.txt"}, fa.deleted)

	_, logged := rec.Find("file upload failed")
	assert.True(t, logged)
}

func TestUploadFiles_RollbackFailureIsReported(t *testing.T) {
	ts, _ := storage(t, map[string]bool{"a.txt": true})
	fa := &fakeAPI{baseURL: ts.URL, deleteErr: errors.New("db down")}
	rec := logging.NewRecorder()
	svc := NewFileService(fa, t.TempDir(), rec)

	p := writeFile(t, t.TempDir(), "a.txt", "a")
	res := svc.UploadFiles(context.Background(), "p1", []string{p})
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Error, "upload failed")
	assert.Contains(t, res[0].Error, "rollback: db down")

	_, logged := rec.Find("upload rollback failed")
	assert.True(t, logged)
}

func TestUploadFiles_Directory(t *testing.T) {
	svc := NewFileService(&fakeAPI{}, t.TempDir(), nil)
	res := svc.UploadFiles(context.Background(), "p1", []string{t.TempDir()})
	require.Len(t, res, 1)
	assert.Contains(t, res[0].Error, "is a directory")
}

func TestDownload(t *testing.T) {
	ts, _ := storage(t, nil)
	dl := t.TempDir()
	svc := NewFileService(&fakeAPI{baseURL: ts.URL}, dl, nil)
	ctx := context.Background()

	file := models.ProjectFile{ID: "f1", FileName: "report.pdf"}

	p1, err := svc.Download(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dl, "report.pdf"), p1)

	p2, err := svc.Download(ctx, file)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dl, "report (1).pdf"), p2)

	b, err := os.ReadFile(p2)
	require.NoError(t, err)
	assert.Equal(t, "remote body", string(b))
}

func TestDownload_Errors(t *testing.T) {
	ts, _ := storage(t, nil)
	dl := t.TempDir()
	svc := NewFileService(&fakeAPI{baseURL: ts.URL}, dl, nil)
	ctx := context.Background()

	_, err := svc.Download(ctx, models.ProjectFile{ID: "missing", FileName: "x"})
	require.Error(t, err)

	_, err = svc.Download(ctx, models.ProjectFile{ID: "f-broken", FileName: "broken.txt"})
	require.ErrorContains(t, err, "download failed")

	_, statErr := os.Stat(filepath.Join(dl, "broken.txt"))
	assert.True(t, os.IsNotExist(statErr), "partial file must be removed")
}

func TestDownload_UnsafeName(t *testing.T) {
	ts, _ := storage(t, nil)
	dl := t.TempDir()
	svc := NewFileService(&fakeAPI{baseURL: ts.URL}, dl, nil)

	p, err := svc.Download(context.Background(), models.ProjectFile{ID: "f1", FileName: "../../etc/passwd"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dl, "passwd"), p)
}

func TestUploadAvatar(t *testing.T) {
	ts, stored := storage(t, nil)
	svc := NewFileService(&fakeAPI{baseURL: ts.URL}, t.TempDir(), nil)

	p := writeFile(t, t.TempDir(), "me.png", "png")
	url, err := svc.UploadAvatar(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/avatars/me.png", url)

	body, ok := stored.Load("me.png")
	require.True(t, ok)
	assert.Equal(t, "png", body)
}

func TestUploadAvatar_Errors(t *testing.T) {
	ts, _ := storage(t, map[string]bool{"bad.png": true})
	dir := t.TempDir()

	svc := NewFileService(&fakeAPI{baseURL: ts.URL, avatarErr: errors.New("forbidden")}, dir, nil)
	_, err := svc.UploadAvatar(context.Background(), writeFile(t, dir, "x.png", "x"))
	require.ErrorContains(t, err, "forbidden")

	svc = NewFileService(&fakeAPI{baseURL: ts.URL}, dir, nil)
	_, err = svc.UploadAvatar(context.Background(), writeFile(t, dir, "bad.png", "x"))
	require.ErrorContains(t, err, "upload failed")

	_, err = svc.UploadAvatar(context.Background(), filepath.Join(dir, "none.png"))
	require.ErrorContains(t, err, "open")
}
