// Package server wires the application together: configuration, database,
// migrations, mail, services, and the HTTP endpoint, plus graceful shutdown
// on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/clamea-app/server/internal/logging"
	"github.com/clamea-app/server/internal/server/config"
	serverhttp "github.com/clamea-app/server/internal/server/http"
	"github.com/clamea-app/server/internal/server/mail"
	"github.com/clamea-app/server/internal/server/repositories/repomanager"
	"github.com/clamea-app/server/internal/server/services"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *serverhttp.Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	var mailer mail.Mailer
	if cfg.SMTPHost != "" {
		mailer = mail.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.EmailFrom)
	} else {
		logger.Warn(ctx, "SMTP host not configured, outgoing mail goes to the log")
		mailer = mail.NewLogMailer(logger)
	}

	tokens := services.NewTokenService(db, rm, cfg)
	handler := serverhttp.NewHandler(
		services.NewRegistrationService(db, rm, tokens, mailer, cfg),
		services.NewPasswordResetService(db, rm, mailer, cfg),
		services.NewAuthService(db, rm, tokens),
		tokens,
		services.NewCaseService(db, rm, cfg),
		services.NewDeviceService(db, rm),
		cfg.OTPLength,
		logger,
	)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		server: serverhttp.NewServer(cfg.EndpointAddr, handler, logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := app.server.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err.Error())
	}
}
