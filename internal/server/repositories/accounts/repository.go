package accounts

import (
	"context"

	"github.com/clamea-app/server/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	GetByID(ctx context.Context, id string) (*models.Account, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	Activate(ctx context.Context, id string) error
}
