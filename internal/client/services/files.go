// Package services holds client workflows that combine several backend calls
// with local file handling.
package services

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/projecthub/internal/api"
	"github.com/dmitrijs2005/projecthub/internal/filex"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/dmitrijs2005/projecthub/internal/netx"
)

// FileAPI is the part of the backend client the file workflows need.
type FileAPI interface {
	CreateFileUpload(ctx context.Context, req api.FileUploadRequest) (*api.FileUploadResponse, error)
	GetFileDownloadURL(ctx context.Context, fileID string) (string, error)
	DeleteFile(ctx context.Context, fileID string) error
	CreateAvatarUpload(ctx context.Context, fileName string) (*api.AvatarUploadResponse, error)
}

type FileService struct {
	api         FileAPI
	downloadDir string
	logger      logging.Logger
}

func NewFileService(api FileAPI, downloadDir string, logger logging.Logger) *FileService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileService{api: api, downloadDir: downloadDir, logger: logger}
}

func contentType(name string) string {
	if t := mime.TypeByExtension(filepath.Ext(name)); t != "" {
		return t
	}
	return "application/octet-stream"
}

// UploadFiles uploads every path to the project and reports one result per
// path. A failing file never stops the others.
func (s *FileService) UploadFiles(ctx context.Context, projectID string, paths []string) []models.FileResult {
	results := make([]models.FileResult, 0, len(paths))
	for _, p := range paths {
		res := models.FileResult{Name: filepath.Base(p)}
		if err := s.uploadOne(ctx, projectID, p); err != nil {
			s.logger.Warn(ctx, "file upload failed", "project_id", projectID, "file", p, "error", err)
			res.Error = err.Error()
		}
		results = append(results, res)
	}
	return results
}

func (s *FileService) uploadOne(ctx context.Context, projectID, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}

	name := filepath.Base(path)
	ct := contentType(name)

	resp, err := s.api.CreateFileUpload(ctx, api.FileUploadRequest{
		ProjectID: projectID,
		FileName:  name,
		FileSize:  st.Size(),
		FileType:  ct,
	})
	if err != nil {
		return err
	}

	if err := netx.Upload(ctx, resp.UploadURL, ct, f, st.Size()); err != nil {
		// the row was recorded before the transfer, take it back
		if derr := s.api.DeleteFile(ctx, resp.File.ID); derr != nil {
			s.logger.Error(ctx, "upload rollback failed", "file_id", resp.File.ID, "error", derr)
			return errors.Join(err, fmt.Errorf("rollback: %w", derr))
		}
		return err
	}

	s.logger.Info(ctx, "file uploaded", "project_id", projectID, "file_id", resp.File.ID, "size", st.Size())
	return nil
}

// Download stores the attachment in the download directory and returns the
// local path. An existing file with the same name is never overwritten.
func (s *FileService) Download(ctx context.Context, file models.ProjectFile) (string, error) {
	url, err := s.api.GetFileDownloadURL(ctx, file.ID)
	if err != nil {
		return "", err
	}

	dir, err := filex.EnsureSubdDir(s.downloadDir)
	if err != nil {
		return "", err
	}

	path := filex.UniquePath(dir, file.FileName)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}

	n, err := netx.Download(ctx, url, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}

	s.logger.Info(ctx, "file downloaded", "file_id", file.ID, "path", path, "size", n)
	return path, nil
}

// UploadAvatar sends a local image to storage and returns its public URL,
// ready to be saved on the team member.
func (s *FileService) UploadAvatar(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat: %w", err)
	}

	name := filepath.Base(path)
	resp, err := s.api.CreateAvatarUpload(ctx, name)
	if err != nil {
		return "", err
	}

	if err := netx.Upload(ctx, resp.UploadURL, contentType(name), f, st.Size()); err != nil {
		return "", err
	}
	return resp.PublicURL, nil
}
