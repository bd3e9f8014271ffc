package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/projecthub/internal/server/storage"
)

// FileStore is the object storage used for attachments and avatars.
type FileStore interface {
	PresignPut(ctx context.Context, bucket, key, contentType string) (string, error)
	PresignGet(ctx context.Context, bucket, key string) (string, error)
	Remove(ctx context.Context, bucket string, keys []string) map[string]error
	PublicURL(bucket, key string) string
}

// FileOpRecorder counts storage operations.
type FileOpRecorder interface {
	RecordFileOperation(operation string, err error)
}

type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       FileStore
	recorder    FileOpRecorder
	resolver    *access.Resolver
	logger      logging.Logger
	adminEmail  string
	bucket      string
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager, store FileStore, recorder FileOpRecorder,
	cfg *config.Config, logger logging.Logger) *ProjectService {
	return &ProjectService{
		db:          db,
		repomanager: m,
		store:       store,
		recorder:    recorder,
		resolver:    access.NewResolver(&projectSource{db: db, repomanager: m}, logger),
		logger:      logger.With("module", "project_service"),
		adminEmail:  cfg.AdminEmail,
		bucket:      cfg.S3FilesBucket,
	}
}

// projectSource feeds the scope resolver from the projects repository.
type projectSource struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func (s *projectSource) ListProjects(ctx context.Context) ([]models.Project, error) {
	return s.repomanager.Projects(s.db).List(ctx)
}

// List returns the projects visible to the caller, newest first.
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	return s.resolver.GetAssignedProjects(ctx, c.principal, c.role), nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	p, err := s.repomanager.Projects(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	scoped, ok := access.ScopeProject(p, c.principal, c.role)
	if !ok {
		return nil, c.canAccess(p)
	}
	return &scoped, nil
}

func (s *ProjectService) Create(ctx context.Context, p *models.Project) (*models.Project, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	if err := c.require(access.CanCreateProjects); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	in := p.Clone()
	in.UserID = c.principal.ID
	in.PaymentInstallments = models.NormalizeInstallments(in.PaymentInstallments)

	var created *models.Project
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err = s.repomanager.Projects(tx).Create(ctx, &in)
		if err != nil {
			return err
		}
		return s.repomanager.Activities(tx).Create(ctx, &models.Activity{
			ProjectID:   created.ID,
			UserID:      c.principal.ID,
			Action:      models.ActionProjectCreated,
			Description: fmt.Sprintf("Created project %s", created.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "project created", "project_id", created.ID, "user_id", c.principal.ID)
	return created, nil
}

func (s *ProjectService) Update(ctx context.Context, p *models.Project) (*models.Project, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	if err := c.require(access.CanEditAllProjects); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, invalid(fmt.Errorf("project id is required"))
	}
	if err := p.Validate(); err != nil {
		return nil, invalid(err)
	}
	in := p.Clone()
	in.PaymentInstallments = models.NormalizeInstallments(in.PaymentInstallments)

	var updated *models.Project
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		updated, err = s.repomanager.Projects(tx).Update(ctx, &in)
		if err != nil {
			return err
		}
		return s.repomanager.Activities(tx).Create(ctx, &models.Activity{
			ProjectID:   updated.ID,
			UserID:      c.principal.ID,
			Action:      models.ActionProjectUpdated,
			Description: fmt.Sprintf("Updated project %s", updated.Name),
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the project's stored files first, then the project. A file
// the store refuses is reported in the result and does not stop the others.
func (s *ProjectService) Delete(ctx context.Context, id string) ([]models.FileResult, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	if err := c.require(access.CanDeleteProjects); err != nil {
		return nil, err
	}
	project, err := s.repomanager.Projects(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	files, err := s.repomanager.Files(s.db).ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(files))
	for _, f := range files {
		keys = append(keys, f.FilePath)
	}
	failed := s.store.Remove(ctx, s.bucket, keys)
	results := make([]models.FileResult, 0, len(files))
	for _, f := range files {
		r := models.FileResult{Name: f.FileName}
		if err := failed[f.FilePath]; err != nil {
			r.Error = err.Error()
			s.logger.Warn(ctx, "stored file not removed", "project_id", id, "path", f.FilePath, "error", err)
		}
		s.record("remove", failed[f.FilePath])
		results = append(results, r)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Projects(tx).Delete(ctx, id); err != nil {
			return err
		}
		return s.repomanager.Activities(tx).Create(ctx, &models.Activity{
			UserID:      c.principal.ID,
			Action:      models.ActionProjectDeleted,
			Description: fmt.Sprintf("Deleted project %s", project.Name),
		})
	})
	if err != nil {
		return results, err
	}
	s.logger.Info(ctx, "project deleted", "project_id", id, "files", len(files), "failed", len(failed))
	return results, nil
}

func (s *ProjectService) ListFiles(ctx context.Context, projectID string) ([]models.ProjectFile, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	if _, err := s.visibleProject(ctx, c, projectID); err != nil {
		return nil, err
	}
	return s.repomanager.Files(s.db).ListByProject(ctx, projectID)
}

// CreateFileUpload records the file row and returns a presigned PUT URL for
// the bytes.
func (s *ProjectService) CreateFileUpload(ctx context.Context, projectID, fileName string, size int64, contentType string) (*models.ProjectFile, string, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, "", err
	}
	if err := c.require(access.CanUploadFiles); err != nil {
		return nil, "", err
	}
	if fileName == "" {
		return nil, "", invalid(fmt.Errorf("file name is required"))
	}
	if _, err := s.visibleProject(ctx, c, projectID); err != nil {
		return nil, "", err
	}

	key := storage.ProjectFileKey(projectID, fileName)
	url, err := s.store.PresignPut(ctx, s.bucket, key, contentType)
	s.record("presign_put", err)
	if err != nil {
		return nil, "", err
	}

	var created *models.ProjectFile
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err = s.repomanager.Files(tx).Create(ctx, &models.ProjectFile{
			ProjectID: projectID,
			FileName:  fileName,
			FileSize:  size,
			FileType:  contentType,
			FilePath:  key,
			UserID:    c.principal.ID,
		})
		if err != nil {
			return err
		}
		return s.repomanager.Activities(tx).Create(ctx, &models.Activity{
			ProjectID:   projectID,
			UserID:      c.principal.ID,
			Action:      models.ActionFileUploaded,
			Description: fmt.Sprintf("Uploaded %s", fileName),
		})
	})
	if err != nil {
		return nil, "", err
	}
	return created, url, nil
}

func (s *ProjectService) GetFileDownloadURL(ctx context.Context, fileID string) (string, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return "", err
	}
	f, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return "", err
	}
	if _, err := s.visibleProject(ctx, c, f.ProjectID); err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, s.bucket, f.FilePath)
	s.record("presign_get", err)
	return url, err
}

// DeleteFile removes the stored object, then the row. The row stays when the
// store refuses so the object is not orphaned.
func (s *ProjectService) DeleteFile(ctx context.Context, fileID string) error {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return err
	}
	if err := c.require(access.CanUploadFiles); err != nil {
		return err
	}
	f, err := s.repomanager.Files(s.db).Get(ctx, fileID)
	if err != nil {
		return err
	}
	if _, err := s.visibleProject(ctx, c, f.ProjectID); err != nil {
		return err
	}

	removeErr := s.store.Remove(ctx, s.bucket, []string{f.FilePath})[f.FilePath]
	s.record("remove", removeErr)
	if removeErr != nil {
		return removeErr
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Files(tx).Delete(ctx, fileID); err != nil {
			return err
		}
		return s.repomanager.Activities(tx).Create(ctx, &models.Activity{
			ProjectID:   f.ProjectID,
			UserID:      c.principal.ID,
			Action:      models.ActionFileDeleted,
			Description: fmt.Sprintf("Deleted %s", f.FileName),
		})
	})
}

func (s *ProjectService) visibleProject(ctx context.Context, c *caller, id string) (*models.Project, error) {
	p, err := s.repomanager.Projects(s.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := c.canAccess(p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *ProjectService) record(op string, err error) {
	if s.recorder != nil {
		s.recorder.RecordFileOperation(op, err)
	}
}
