package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/dbx"
	"github.com/clamea-app/server/internal/server/config"
	"github.com/clamea-app/server/internal/server/mail"
	"github.com/clamea-app/server/internal/server/models"
	"github.com/clamea-app/server/internal/server/repositories/repomanager"
	"github.com/clamea-app/server/internal/server/validation"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetService runs the forgot-password flow: request a code, check
// it, then set a new password by consuming it. The service reports
// ErrorNotFound for unknown addresses; the HTTP layer masks that into a
// uniform success so the endpoint does not confirm which emails exist.
type PasswordResetService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	mailer      mail.Mailer
	otpLength   int
	otpTTL      time.Duration
	bcryptCost  int
}

func NewPasswordResetService(db *sql.DB, m repomanager.RepositoryManager, mailer mail.Mailer, cfg *config.Config) *PasswordResetService {
	return &PasswordResetService{
		db:          db,
		repomanager: m,
		mailer:      mailer,
		otpLength:   cfg.OTPLength,
		otpTTL:      cfg.PasswordResetOTPTTL,
		bcryptCost:  cfg.BcryptCost,
	}
}

// Request issues a reset code to the account behind email, superseding any
// earlier reset code. Unknown or unverified addresses yield ErrorNotFound.
func (s *PasswordResetService) Request(ctx context.Context, email string) error {
	account, err := s.findAccount(ctx, email)
	if err != nil {
		return err
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		code, err := issueCode(ctx, s.repomanager.OTPs(tx), models.PurposePasswordReset, account.ID, s.otpLength, s.otpTTL)
		if err != nil {
			return err
		}
		if err := s.sendCode(ctx, account.Email, code.Code); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
		}
		return nil
	})
}

// VerifyCode checks a reset code without consuming it, so the client can
// validate the code on one screen and submit the new password on the next.
// Wrong codes yield ErrorNotFound, expired ones ErrOTPExpired.
func (s *PasswordResetService) VerifyCode(ctx context.Context, email, code string) error {
	account, err := s.findAccount(ctx, email)
	if err != nil {
		return err
	}
	_, err = s.repomanager.OTPs(s.db).FindValid(ctx, models.PurposePasswordReset, account.ID, code, time.Now().UTC())
	return err
}

// Reset consumes the code and replaces the account password. Consumption and
// the password update commit atomically; a wrong or expired code changes
// nothing.
func (s *PasswordResetService) Reset(ctx context.Context, email, code, newPassword string) error {
	account, err := s.findAccount(ctx, email)
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		otpRepo := s.repomanager.OTPs(tx)

		if _, err := otpRepo.Consume(ctx, models.PurposePasswordReset, account.ID, code, time.Now().UTC()); err != nil {
			return err
		}
		if err := s.repomanager.Accounts(tx).UpdatePassword(ctx, account.ID, string(hash)); err != nil {
			return err
		}
		return otpRepo.DeleteForOwner(ctx, models.PurposePasswordReset, account.ID)
	})
}

func (s *PasswordResetService) findAccount(ctx context.Context, email string) (*models.Account, error) {
	email = validation.NormalizeEmail(email)
	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("error searching account: %v", err)
	}
	// Unverified accounts cannot hold reset codes; to callers they look the
	// same as absent ones.
	if !account.IsActive {
		return nil, common.ErrorNotFound
	}
	return account, nil
}

func (s *PasswordResetService) sendCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Your Clamea password reset code is %s. It expires in %d minutes.",
		code, int(s.otpTTL.Minutes()))
	return s.mailer.Send(ctx, email, "Reset your password", body)
}
