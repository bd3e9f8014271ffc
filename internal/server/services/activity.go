package services

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/models"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
)

const (
	defaultActivityLimit = 10
	maxActivityLimit     = 100
)

type ActivityService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	adminEmail  string
}

func NewActivityService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *ActivityService {
	return &ActivityService{db: db, repomanager: m, adminEmail: cfg.AdminEmail}
}

// ListRecent returns the newest entries. Limit defaults to 10 and is capped at 100.
func (s *ActivityService) ListRecent(ctx context.Context, limit int) ([]models.Activity, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return nil, err
	}
	if err := c.require(access.CanViewAllProjects); err != nil {
		return nil, err
	}
	switch {
	case limit <= 0:
		limit = defaultActivityLimit
	case limit > maxActivityLimit:
		limit = maxActivityLimit
	}
	return s.repomanager.Activities(s.db).ListRecent(ctx, limit)
}
