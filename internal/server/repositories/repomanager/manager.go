package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/activities"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/files"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/projects"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/teammembers"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// the same code inside or outside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Projects(db dbx.DBTX) projects.Repository
	TeamMembers(db dbx.DBTX) teammembers.Repository
	Files(db dbx.DBTX) files.Repository
	Activities(db dbx.DBTX) activities.Repository
}
