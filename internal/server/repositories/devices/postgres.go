package devices

import (
	"context"
	"fmt"

	"github.com/clamea-app/server/internal/dbx"
	"github.com/clamea-app/server/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Register stores a push token for the account. Re-registering the same
// token is a no-op; created reports whether a new row was inserted.
func (r *PostgresRepository) Register(ctx context.Context, d *models.Device) (bool, error) {
	query := `
		INSERT INTO devices (id, account_id, registration_id, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (account_id, registration_id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, d.ID, d.AccountID, d.RegistrationID, d.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return n > 0, nil
}

func (r *PostgresRepository) ListByAccount(ctx context.Context, accountID string) ([]*models.Device, error) {
	query := `
		SELECT id, account_id, registration_id, created_at
		FROM devices
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
	`
	rows, err := r.db.QueryContext(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Device
	for rows.Next() {
		d := &models.Device{}
		if err := rows.Scan(&d.ID, &d.AccountID, &d.RegistrationID, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}
