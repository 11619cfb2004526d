// Package pending persists staged registrations awaiting email verification.
package pending

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/dbx"
	"github.com/clamea-app/server/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, p *models.PendingRegistration) (*models.PendingRegistration, error) {
	query := `
		INSERT INTO pending_registrations (id, email, name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		p.ID, p.Email, p.Name, p.PasswordHash, p.CreatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.PendingRegistration, error) {
	query := `
		SELECT id, email, name, password_hash, created_at
		FROM pending_registrations
		WHERE email = $1
	`
	p := &models.PendingRegistration{}
	err := r.db.QueryRowContext(ctx, query, email).
		Scan(&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM pending_registrations
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
