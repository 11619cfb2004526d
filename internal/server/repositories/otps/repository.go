package otps

import (
	"context"
	"time"

	"github.com/clamea-app/server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, code *models.OneTimeCode) (*models.OneTimeCode, error)
	SupersedeAll(ctx context.Context, purpose, ownerID string) error
	Consume(ctx context.Context, purpose, ownerID, code string, now time.Time) (*models.OneTimeCode, error)
	FindValid(ctx context.Context, purpose, ownerID, code string, now time.Time) (*models.OneTimeCode, error)
	Delete(ctx context.Context, id string) error
	DeleteForOwner(ctx context.Context, purpose, ownerID string) error
}
