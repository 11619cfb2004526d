package cases

import (
	"context"
	"database/sql"
	"encoding/json"
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

func (r *PostgresRepository) Create(ctx context.Context, c *models.Case) (*models.Case, error) {
	files, err := marshalFiles(c.Files)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO cases (id, account_id, type_of_injury, date_of_incident, description, files, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if _, err := r.db.ExecContext(ctx, query,
		c.ID, c.AccountID, c.TypeOfInjury, c.DateOfIncident,
		c.Description, files, c.CreatedAt, c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Case, error) {
	query := `
		SELECT id, account_id, type_of_injury, date_of_incident, description, files, created_at, updated_at
		FROM cases
		WHERE id = $1
	`
	c := &models.Case{}
	var files string
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.AccountID, &c.TypeOfInjury, &c.DateOfIncident,
		&c.Description, &files, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal([]byte(files), &c.Files); err != nil {
		return nil, fmt.Errorf("corrupt files column: %w", err)
	}
	return c, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Case, error) {
	query := `
		SELECT id, account_id, type_of_injury, date_of_incident, description, files, created_at, updated_at
		FROM cases
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Case
	for rows.Next() {
		c := &models.Case{}
		var files string
		if err := rows.Scan(&c.ID, &c.AccountID, &c.TypeOfInjury, &c.DateOfIncident,
			&c.Description, &files, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if err := json.Unmarshal([]byte(files), &c.Files); err != nil {
			return nil, fmt.Errorf("corrupt files column: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Update(ctx context.Context, c *models.Case) error {
	files, err := marshalFiles(c.Files)
	if err != nil {
		return err
	}
	query := `
		UPDATE cases
		SET type_of_injury = $2, date_of_incident = $3, description = $4, files = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query,
		c.ID, c.TypeOfInjury, c.DateOfIncident, c.Description, files, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM cases
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func marshalFiles(files []string) (string, error) {
	if files == nil {
		files = []string{}
	}
	b, err := json.Marshal(files)
	if err != nil {
		return "", fmt.Errorf("marshal files: %w", err)
	}
	return string(b), nil
}
