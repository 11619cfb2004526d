package services

import (
	"context"
	"time"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/server/models"
	"github.com/clamea-app/server/internal/server/repositories/otps"
	"github.com/google/uuid"
)

// issueCode supersedes every unused code the owner holds for the purpose and
// stores a fresh one. At any instant at most one code per owner and purpose
// can verify successfully.
func issueCode(ctx context.Context, repo otps.Repository, purpose, ownerID string, length int, ttl time.Duration) (*models.OneTimeCode, error) {
	if err := repo.SupersedeAll(ctx, purpose, ownerID); err != nil {
		return nil, err
	}
	value, err := common.MakeNumericCode(length)
	if err != nil {
		return nil, common.ErrorInternal
	}
	now := time.Now().UTC()
	code := &models.OneTimeCode{
		ID:        uuid.NewString(),
		Purpose:   purpose,
		OwnerID:   ownerID,
		Code:      value,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	return repo.Create(ctx, code)
}
