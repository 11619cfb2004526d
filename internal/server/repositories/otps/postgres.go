// Package otps persists one-time codes for the registration and
// password-reset flows.
//
// Timestamps are stored as unix nanoseconds so that validity checks and
// "most recent first" ordering happen inside single SQL statements. The
// consume path is a compare-and-swap on the is_used flag: under concurrent
// verification attempts for the same code, exactly one caller wins.
package otps

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

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

// Create inserts a new code. It does not touch sibling codes; callers are
// expected to call SupersedeAll first, inside the same transaction.
func (r *PostgresRepository) Create(ctx context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error) {
	query := `
		INSERT INTO one_time_codes (id, purpose, owner_id, code, created_at, expires_at, is_used)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE)
	`
	if _, err := r.db.ExecContext(ctx, query,
		code.ID, code.Purpose, code.OwnerID, code.Code,
		code.CreatedAt.UnixNano(), code.ExpiresAt.UnixNano()); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return code, nil
}

// SupersedeAll marks every unused code for the owner as used, rendering it
// unverifiable. Called before issuing a replacement code.
func (r *PostgresRepository) SupersedeAll(ctx context.Context, purpose, ownerID string) error {
	query := `
		UPDATE one_time_codes SET is_used = TRUE
		WHERE purpose = $1 AND owner_id = $2 AND is_used = FALSE
	`
	if _, err := r.db.ExecContext(ctx, query, purpose, ownerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Consume atomically marks the most recently created unused matching code as
// used and returns it. It reports common.ErrOTPExpired when the only match is
// past its expiry (the code is left untouched) and common.ErrorNotFound when
// no unused match exists; a wrong code and an already-consumed code are
// indistinguishable to the caller.
func (r *PostgresRepository) Consume(ctx context.Context, purpose, ownerID, code string, now time.Time) (*models.OneTimeCode, error) {
	query := `
		UPDATE one_time_codes SET is_used = TRUE
		WHERE id = (
			SELECT id FROM one_time_codes
			WHERE purpose = $1 AND owner_id = $2 AND code = $3
			  AND is_used = FALSE AND expires_at > $4
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) AND is_used = FALSE
		RETURNING id, created_at, expires_at
	`
	consumed := &models.OneTimeCode{Purpose: purpose, OwnerID: ownerID, Code: code, IsUsed: true}
	var createdAt, expiresAt int64
	err := r.db.QueryRowContext(ctx, query, purpose, ownerID, code, now.UnixNano()).
		Scan(&consumed.ID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMiss(ctx, purpose, ownerID, code)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	consumed.CreatedAt = time.Unix(0, createdAt).UTC()
	consumed.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return consumed, nil
}

// FindValid is a non-consuming lookup with the same error semantics as
// Consume. It lets a client pre-check a reset code; it must never be treated
// as authorization on its own.
func (r *PostgresRepository) FindValid(ctx context.Context, purpose, ownerID, code string, now time.Time) (*models.OneTimeCode, error) {
	query := `
		SELECT id, created_at, expires_at FROM one_time_codes
		WHERE purpose = $1 AND owner_id = $2 AND code = $3
		  AND is_used = FALSE AND expires_at > $4
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	found := &models.OneTimeCode{Purpose: purpose, OwnerID: ownerID, Code: code}
	var createdAt, expiresAt int64
	err := r.db.QueryRowContext(ctx, query, purpose, ownerID, code, now.UnixNano()).
		Scan(&found.ID, &createdAt, &expiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, r.classifyMiss(ctx, purpose, ownerID, code)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	found.CreatedAt = time.Unix(0, createdAt).UTC()
	found.ExpiresAt = time.Unix(0, expiresAt).UTC()
	return found, nil
}

// classifyMiss distinguishes an expired unused match (Expired) from no
// unused match at all (NotFound).
func (r *PostgresRepository) classifyMiss(ctx context.Context, purpose, ownerID, code string) error {
	query := `
		SELECT COUNT(*) FROM one_time_codes
		WHERE purpose = $1 AND owner_id = $2 AND code = $3 AND is_used = FALSE
	`
	var n int
	if err := r.db.QueryRowContext(ctx, query, purpose, ownerID, code).Scan(&n); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n > 0 {
		return common.ErrOTPExpired
	}
	return common.ErrorNotFound
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `
		DELETE FROM one_time_codes
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteForOwner removes every code belonging to the owner. Cascades are
// explicit: flows call this when destroying a pending registration.
func (r *PostgresRepository) DeleteForOwner(ctx context.Context, purpose, ownerID string) error {
	query := `
		DELETE FROM one_time_codes
		WHERE purpose = $1 AND owner_id = $2
	`
	if _, err := r.db.ExecContext(ctx, query, purpose, ownerID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
