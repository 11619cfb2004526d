package services

import (
	"context"
	"database/sql"
	"time"

	"github.com/clamea-app/server/internal/server/models"
	"github.com/clamea-app/server/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// DeviceService tracks push-notification registration tokens per account.
type DeviceService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewDeviceService(db *sql.DB, m repomanager.RepositoryManager) *DeviceService {
	return &DeviceService{db: db, repomanager: m}
}

// Register stores a device token for the account. Registering the same token
// twice is a no-op; created reports whether a new row was written.
func (s *DeviceService) Register(ctx context.Context, accountID, registrationID string) (created bool, err error) {
	d := &models.Device{
		ID:             uuid.NewString(),
		AccountID:      accountID,
		RegistrationID: registrationID,
		CreatedAt:      time.Now().UTC(),
	}
	return s.repomanager.Devices(s.db).Register(ctx, d)
}

// List returns the device tokens registered for the account.
func (s *DeviceService) List(ctx context.Context, accountID string) ([]*models.Device, error) {
	return s.repomanager.Devices(s.db).ListByAccount(ctx, accountID)
}
