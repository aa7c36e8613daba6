package repomanager

import (
	"context"
	"database/sql"

	"github.com/photovault/photovault/internal/dbx"
	"github.com/photovault/photovault/internal/server/repositories/albums"
	"github.com/photovault/photovault/internal/server/repositories/photos"
	"github.com/photovault/photovault/internal/server/repositories/resettokens"
	"github.com/photovault/photovault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to an arbitrary DBTX, so a
// service can compose several repositories inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
	Albums(db dbx.DBTX) albums.Repository
	Photos(db dbx.DBTX) photos.Repository
}
