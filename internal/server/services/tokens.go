// Package services contains server-side business logic: the registration and
// password-reset flows, login, session tokens, cases, and device
// registrations. Services own transaction boundaries and sit between the HTTP
// handlers and the repositories.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/clamea-app/server/internal/common"
	"github.com/clamea-app/server/internal/dbx"
	"github.com/clamea-app/server/internal/server/auth"
	"github.com/clamea-app/server/internal/server/config"
	"github.com/clamea-app/server/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// TokenService mints, refreshes, and revokes session credentials. Access
// tokens are signed JWTs verified statelessly; refresh tokens are opaque
// random strings stored server-side so they can be rotated and revoked.
type TokenService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewTokenService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *TokenService {
	return &TokenService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// Mint issues a fresh TokenPair for accountID. The refresh token is persisted
// through db, which may be an open transaction so the mint commits or rolls
// back together with the calling flow.
func (s *TokenService) Mint(ctx context.Context, db dbx.DBTX, accountID string) (*TokenPair, error) {
	access, err := auth.GenerateToken(accountID, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	repo := s.repomanager.RefreshTokens(db)
	if err := repo.Create(ctx, accountID, refresh, s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh validates a refresh token, rotates it transactionally, and returns
// a fresh TokenPair. Unknown tokens yield ErrInvalidToken, expired ones
// ErrRefreshTokenExpired; in both cases the caller must re-authenticate.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	repo := s.repomanager.RefreshTokens(s.db)

	token, err := repo.Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %v", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repoTx := s.repomanager.RefreshTokens(tx)
		if err := repoTx.Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %v", err)
		}
		var mintErr error
		pair, mintErr = s.Mint(ctx, tx, token.AccountID)
		return mintErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Revoke deletes a refresh token so it can never be exchanged again. The
// paired access token stays valid until its own expiry.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)
	if err := repo.Delete(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return fmt.Errorf("error deleting refresh token: %v", err)
	}
	return nil
}

// Authenticate validates an access token and returns the account it was
// minted for.
func (s *TokenService) Authenticate(accessToken string) (string, error) {
	return auth.GetAccountIDFromToken(accessToken, s.jwtSecret)
}
