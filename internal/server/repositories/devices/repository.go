package devices

import (
	"context"

	"github.com/clamea-app/server/internal/server/models"
)

type Repository interface {
	Register(ctx context.Context, d *models.Device) (created bool, err error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Device, error)
}
