package repomanager

import (
	"context"
	"database/sql"

	"github.com/clamea-app/server/internal/dbx"
	"github.com/clamea-app/server/internal/server/repositories/accounts"
	"github.com/clamea-app/server/internal/server/repositories/cases"
	"github.com/clamea-app/server/internal/server/repositories/devices"
	"github.com/clamea-app/server/internal/server/repositories/otps"
	"github.com/clamea-app/server/internal/server/repositories/pending"
	"github.com/clamea-app/server/internal/server/repositories/refreshtokens"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Accounts(db dbx.DBTX) accounts.Repository
	Pending(db dbx.DBTX) pending.Repository
	OTPs(db dbx.DBTX) otps.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Cases(db dbx.DBTX) cases.Repository
	Devices(db dbx.DBTX) devices.Repository
}
