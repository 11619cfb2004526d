package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

func TestNewPostgresRepositoryManager_VendsRepositories(t *testing.T) {
	m := NewPostgresRepositoryManager()

	var db *sql.DB
	require.NotNil(t, m.Accounts(db))
	require.NotNil(t, m.Pending(db))
	require.NotNil(t, m.OTPs(db))
	require.NotNil(t, m.RefreshTokens(db))
	require.NotNil(t, m.Cases(db))
	require.NotNil(t, m.Devices(db))
}

func TestRunMigrations_CallsGooseUp(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	var called bool
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		called = true
		require.Equal(t, ".", dir)
		return nil
	}

	m := &PostgresRepositoryManager{}
	require.NoError(t, m.RunMigrations(context.Background(), nil))
	require.True(t, called)
}

func TestRunMigrations_PropagatesError(t *testing.T) {
	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })

	wantErr := errors.New("migration failed")
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return wantErr
	}

	m := &PostgresRepositoryManager{}
	require.ErrorIs(t, m.RunMigrations(context.Background(), nil), wantErr)
}
