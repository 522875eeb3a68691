package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/cpdvault/internal/dbx"
	"github.com/dmitrijs2005/cpdvault/internal/server/repositories/entries"
	"github.com/dmitrijs2005/cpdvault/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/cpdvault/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entries(db dbx.DBTX) entries.Repository
}
