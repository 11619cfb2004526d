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
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RegistrationService runs the email-verified signup flow. A submission is
// staged, never a live account: the account row appears only after a
// one-time code sent to the address is verified.
type RegistrationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
	mailer      mail.Mailer
	otpLength   int
	otpTTL      time.Duration
	bcryptCost  int
}

func NewRegistrationService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService, mailer mail.Mailer, cfg *config.Config) *RegistrationService {
	return &RegistrationService{
		db:          db,
		repomanager: m,
		tokens:      tokens,
		mailer:      mailer,
		otpLength:   cfg.OTPLength,
		otpTTL:      cfg.RegistrationOTPTTL,
		bcryptCost:  cfg.BcryptCost,
	}
}

// Submit stages a registration for email and sends a verification code.
// An address that already belongs to a verified account yields ErrorConflict.
// Re-submitting for a staged address replaces the previous staging and its
// codes. If the verification mail cannot be delivered the whole staging rolls
// back and ErrDeliveryFailed is returned, so a retry starts clean.
func (s *RegistrationService) Submit(ctx context.Context, email, name, password string) (*models.PendingRegistration, error) {
	email = validation.NormalizeEmail(email)

	if _, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email); err == nil {
		return nil, common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error checking account: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	staged := &models.PendingRegistration{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		pendingRepo := s.repomanager.Pending(tx)
		otpRepo := s.repomanager.OTPs(tx)

		prev, err := pendingRepo.GetByEmail(ctx, email)
		if err == nil {
			if err := otpRepo.DeleteForOwner(ctx, models.PurposeRegistration, prev.ID); err != nil {
				return err
			}
			if err := pendingRepo.Delete(ctx, prev.ID); err != nil {
				return err
			}
		} else if !errors.Is(err, common.ErrorNotFound) {
			return err
		}

		if _, err := pendingRepo.Create(ctx, staged); err != nil {
			return err
		}

		code, err := issueCode(ctx, otpRepo, models.PurposeRegistration, staged.ID, s.otpLength, s.otpTTL)
		if err != nil {
			return err
		}

		if err := s.sendCode(ctx, email, code.Code); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return staged, nil
}

// Resend reissues the verification code for a staged registration,
// superseding any earlier code. ErrNoPendingRegistration means there is
// nothing to verify for the address.
func (s *RegistrationService) Resend(ctx context.Context, email string) error {
	email = validation.NormalizeEmail(email)

	staged, err := s.repomanager.Pending(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrNoPendingRegistration
		}
		return fmt.Errorf("error searching pending registration: %v", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		code, err := issueCode(ctx, s.repomanager.OTPs(tx), models.PurposeRegistration, staged.ID, s.otpLength, s.otpTTL)
		if err != nil {
			return err
		}
		if err := s.sendCode(ctx, email, code.Code); err != nil {
			return fmt.Errorf("%w: %v", common.ErrDeliveryFailed, err)
		}
		return nil
	})
}

// Verify consumes the submitted code and, on success, promotes the staging
// into a live account and mints a first session. Code consumption, account
// creation, staging cleanup, and token minting commit atomically; a wrong or
// expired code leaves the staging untouched so the user can retry.
func (s *RegistrationService) Verify(ctx context.Context, email, code string) (*models.Account, *TokenPair, error) {
	email = validation.NormalizeEmail(email)

	staged, err := s.repomanager.Pending(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrNoPendingRegistration
		}
		return nil, nil, fmt.Errorf("error searching pending registration: %v", err)
	}

	var account *models.Account
	var pair *TokenPair

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		otpRepo := s.repomanager.OTPs(tx)

		if _, err := otpRepo.Consume(ctx, models.PurposeRegistration, staged.ID, code, time.Now().UTC()); err != nil {
			return err
		}

		account = &models.Account{
			ID:           uuid.NewString(),
			Email:        staged.Email,
			Name:         staged.Name,
			PasswordHash: staged.PasswordHash,
			IsActive:     true,
			CreatedAt:    time.Now().UTC(),
		}
		if _, err := s.repomanager.Accounts(tx).Create(ctx, account); err != nil {
			return err
		}

		if err := otpRepo.DeleteForOwner(ctx, models.PurposeRegistration, staged.ID); err != nil {
			return err
		}
		if err := s.repomanager.Pending(tx).Delete(ctx, staged.ID); err != nil {
			return err
		}

		var mintErr error
		pair, mintErr = s.tokens.Mint(ctx, tx, account.ID)
		return mintErr
	}); err != nil {
		return nil, nil, err
	}

	return account, pair, nil
}

func (s *RegistrationService) sendCode(ctx context.Context, email, code string) error {
	body := fmt.Sprintf("Your Clamea verification code is %s. It expires in %d minutes.",
		code, int(s.otpTTL.Minutes()))
	return s.mailer.Send(ctx, email, "Verify your email address", body)
}
