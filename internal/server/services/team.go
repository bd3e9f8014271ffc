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

type TeamService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       FileStore
	logger      logging.Logger
	adminEmail  string
	bucket      string
}

func NewTeamService(db *sql.DB, m repomanager.RepositoryManager, store FileStore, cfg *config.Config, logger logging.Logger) *TeamService {
	return &TeamService{
		db:          db,
		repomanager: m,
		store:       store,
		logger:      logger.With("module", "team_service"),
		adminEmail:  cfg.AdminEmail,
		bucket:      cfg.S3AvatarsBucket,
	}
}

// List returns the roster. Non-admins only see their own entry.
func (s *TeamService) List(ctx context.Context) ([]models.TeamMember, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	if err := c.require(access.CanViewTeam); err != nil {
		return nil, err
	}
	members, err := s.repomanager.TeamMembers(s.db).List(ctx)
	if err != nil {
		return nil, err
	}
	return access.ScopeTeamMembers(members, c.principal, c.role), nil
}

// Save creates the member when it has no id, updates it otherwise, and
// replaces its assignments with the ones given.
func (s *TeamService) Save(ctx context.Context, m *models.TeamMember) (*models.TeamMember, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	if err := c.require(access.CanManageTeam); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, invalid(err)
	}

	var saved *models.TeamMember
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.TeamMembers(tx)
		id := m.ID
		if id == "" {
			created, err := repo.Create(ctx, m)
			if err != nil {
				return err
			}
			id = created.ID
		} else if err := repo.Update(ctx, m); err != nil {
			return err
		}
		if err := repo.ReplaceAssignments(ctx, id, m.Assignments); err != nil {
			return err
		}
		saved, err = repo.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "team member saved", "member_id", saved.ID, "assignments", len(saved.Assignments))
	return saved, nil
}

func (s *TeamService) Delete(ctx context.Context, id string) error {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return err
	}
	if err := c.require(access.CanManageTeam); err != nil {
		return err
	}
	return s.repomanager.TeamMembers(s.db).Delete(ctx, id)
}

// CreateAvatarUpload returns a presigned PUT URL and the public URL the
// avatar will have once uploaded.
func (s *TeamService) CreateAvatarUpload(ctx context.Context, fileName string) (uploadURL, publicURL string, err error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return "", "", err
	}
	if err := c.require(access.CanManageTeam); err != nil {
		return "", "", err
	}
	if fileName == "" {
		return "", "", invalid(fmt.Errorf("file name is required"))
	}
	key := storage.AvatarKey(fileName)
	uploadURL, err = s.store.PresignPut(ctx, s.bucket, key, "")
	if err != nil {
		return "", "", err
	}
	return uploadURL, s.store.PublicURL(s.bucket, key), nil
}
