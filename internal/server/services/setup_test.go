package services

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sync"
	"testing"

	"github.com/clamea-app/server/internal/server/config"
	"github.com/clamea-app/server/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

// setupDB opens a private in-memory SQLite database with the production
// schema. A single connection keeps every statement on the same database and
// serializes concurrent callers.
func setupDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	ddl := []string{
		`CREATE TABLE accounts (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE pending_registrations (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			password_hash TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE one_time_codes (
			id TEXT PRIMARY KEY,
			purpose TEXT NOT NULL,
			owner_id TEXT NOT NULL,
			code TEXT NOT NULL,
			created_at BIGINT NOT NULL,
			expires_at BIGINT NOT NULL,
			is_used BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE refresh_tokens (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			expires_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE cases (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			type_of_injury TEXT NOT NULL,
			date_of_incident TIMESTAMP NOT NULL,
			description TEXT NOT NULL,
			files TEXT NOT NULL DEFAULT '[]',
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE devices (
			id TEXT PRIMARY KEY,
			account_id TEXT NOT NULL,
			registration_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			UNIQUE (account_id, registration_id)
		)`,
	}
	for _, q := range ddl {
		_, err := db.Exec(q)
		require.NoError(t, err)
	}

	return db
}

// testConfig returns defaults tuned for tests: the cheapest bcrypt cost so
// hashing does not dominate the run time.
func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	return cfg
}

type sentMail struct {
	to      string
	subject string
	body    string
}

// recorderMailer captures outgoing mail so tests can read the delivered
// one-time codes. Setting failWith makes every Send fail.
type recorderMailer struct {
	mu       sync.Mutex
	sent     []sentMail
	failWith error
}

func (m *recorderMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.sent = append(m.sent, sentMail{to: to, subject: subject, body: body})
	return nil
}

var codeRe = regexp.MustCompile(`\b\d{4}\b`)

// lastCode extracts the one-time code from the most recent delivery.
func (m *recorderMailer) lastCode(t *testing.T) string {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.sent)
	code := codeRe.FindString(m.sent[len(m.sent)-1].body)
	require.NotEmpty(t, code)
	return code
}

func (m *recorderMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// fixture bundles the services under test wired to one database.
type fixture struct {
	db           *sql.DB
	rm           repomanager.RepositoryManager
	cfg          *config.Config
	mailer       *recorderMailer
	tokens       *TokenService
	registration *RegistrationService
	reset        *PasswordResetService
	auth         *AuthService
}

func newFixture(t *testing.T, cfg *config.Config) *fixture {
	t.Helper()
	if cfg == nil {
		cfg = testConfig()
	}
	db := setupDB(t)
	rm := repomanager.NewPostgresRepositoryManager()
	mailer := &recorderMailer{}
	tokens := NewTokenService(db, rm, cfg)
	return &fixture{
		db:           db,
		rm:           rm,
		cfg:          cfg,
		mailer:       mailer,
		tokens:       tokens,
		registration: NewRegistrationService(db, rm, tokens, mailer, cfg),
		reset:        NewPasswordResetService(db, rm, mailer, cfg),
		auth:         NewAuthService(db, rm, tokens),
	}
}

// registerAccount runs the full signup flow and returns the account ID.
func (f *fixture) registerAccount(t *testing.T, email, name, password string) string {
	t.Helper()
	ctx := context.Background()
	_, err := f.registration.Submit(ctx, email, name, password)
	require.NoError(t, err)
	account, _, err := f.registration.Verify(ctx, email, f.mailer.lastCode(t))
	require.NoError(t, err)
	return account.ID
}
