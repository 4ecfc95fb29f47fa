package repomanager

import (
	"context"
	"database/sql"

	"github.com/polarmc/yggdrasil/internal/dbx"
	"github.com/polarmc/yggdrasil/internal/server/repositories/accesstokens"
	"github.com/polarmc/yggdrasil/internal/server/repositories/gamesessions"
	"github.com/polarmc/yggdrasil/internal/server/repositories/profiles"
	"github.com/polarmc/yggdrasil/internal/server/repositories/textures"
	"github.com/polarmc/yggdrasil/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repository against either the pool or an open transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Profiles(db dbx.DBTX) profiles.Repository
	AccessTokens(db dbx.DBTX) accesstokens.Repository
	GameSessions(db dbx.DBTX) gamesessions.Repository
	Textures(db dbx.DBTX) textures.Repository
}
