package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/server/models"
	"github.com/clamea-app/server/internal/server/repositories/repomanager"
	"github.com/clamea-app/server/internal/server/validation"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash keeps the bcrypt comparison on the login path even when the
// account does not exist, so response timing does not leak which emails
// are registered.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("clamea-timing-pad"), bcrypt.DefaultCost)

// AuthService verifies credentials and serves account profiles.
type AuthService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	tokens      *TokenService
}

func NewAuthService(db *sql.DB, m repomanager.RepositoryManager, tokens *TokenService) *AuthService {
	return &AuthService{db: db, repomanager: m, tokens: tokens}
}

// Login verifies the password for email and, on success, mints a session.
// Unknown addresses and wrong passwords both yield ErrorUnauthorized; an
// account that never verified its email yields ErrAccountNotVerified.
func (s *AuthService) Login(ctx context.Context, email, password string) (*models.Account, *TokenPair, error) {
	email = validation.NormalizeEmail(email)

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, fmt.Errorf("error searching account: %v", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, nil, common.ErrorUnauthorized
	}

	if !account.IsActive {
		return nil, nil, common.ErrAccountNotVerified
	}

	pair, err := s.tokens.Mint(ctx, s.db, account.ID)
	if err != nil {
		return nil, nil, err
	}
	return account, pair, nil
}

// Profile returns the account for id.
func (s *AuthService) Profile(ctx context.Context, id string) (*models.Account, error) {
	return s.repomanager.Accounts(s.db).GetByID(ctx, id)
}
