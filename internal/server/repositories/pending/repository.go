package pending

import (
	"context"

	"github.com/clamea-app/server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, p *models.PendingRegistration) (*models.PendingRegistration, error)
	GetByEmail(ctx context.Context, email string) (*models.PendingRegistration, error)
	Delete(ctx context.Context, id string) error
}
