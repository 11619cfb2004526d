package cases

import (
	"context"

	"github.com/clamea-app/server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Case) (*models.Case, error)
	GetByID(ctx context.Context, id string) (*models.Case, error)
	ListByAccount(ctx context.Context, accountID string) ([]*models.Case, error)
	Update(ctx context.Context, c *models.Case) error
	Delete(ctx context.Context, id string) error
}
