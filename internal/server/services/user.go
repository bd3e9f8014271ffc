// Package services contains server-side business logic. UserService handles
// accounts and tokens; ProjectService, TeamService and ActivityService serve
// the project data under the access rules of package access.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/dmitrijs2005/projecthub/internal/access"
	"github.com/dmitrijs2005/projecthub/internal/common"
	"github.com/dmitrijs2005/projecthub/internal/dbx"
	"github.com/dmitrijs2005/projecthub/internal/logging"
	"github.com/dmitrijs2005/projecthub/internal/server/auth"
	"github.com/dmitrijs2005/projecthub/internal/server/config"
	"github.com/dmitrijs2005/projecthub/internal/server/models"
	"github.com/dmitrijs2005/projecthub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/projecthub/internal/server/revocation"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// TokenPair is what a successful sign-in, sign-up or refresh hands back.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         access.Principal
}

type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	revoked                      revocation.List
	logger                       logging.Logger
	jwtSecret                    []byte
	adminEmail                   string
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, revoked revocation.List, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		revoked:                      revoked,
		logger:                       logger.With("module", "user_service"),
		jwtSecret:                    []byte(cfg.SecretKey),
		adminEmail:                   cfg.AdminEmail,
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
	}
}

// SignUp creates the account and signs it in.
func (s *UserService) SignUp(ctx context.Context, email, password string) (*TokenPair, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalid(fmt.Errorf("email %q", email))
	}
	if len(password) < minPasswordLength {
		return nil, invalid(fmt.Errorf("password must have at least %d characters", minPasswordLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{Email: email, PasswordHash: hash})
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, u, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", pair.User.ID)
	return pair, nil
}

// SignIn checks the password. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*TokenPair, error) {
	u, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, common.ErrorUnauthorized
	}
	return s.generateTokenPair(ctx, u, s.db)
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				// rotated by a concurrent request
				return common.ErrorUnauthorized
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		u, err := s.repomanager.Users(tx).GetUserByID(ctx, token.UserID)
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, u, tx)
		return err
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// SignOut drops the refresh token and puts the access token id on the
// revocation list until it would have expired anyway.
func (s *UserService) SignOut(ctx context.Context, refreshToken, accessTokenID string, accessExpires time.Time) error {
	if refreshToken != "" {
		err := s.repomanager.RefreshTokens(s.db).Delete(ctx, refreshToken)
		if err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
	}
	if err := s.revoked.Revoke(ctx, accessTokenID, accessExpires); err != nil {
		return err
	}
	s.logger.Info(ctx, "user signed out", "jti", accessTokenID)
	return nil
}

// CurrentUser reports the caller and the role derived for them.
func (s *UserService) CurrentUser(ctx context.Context) (access.Principal, access.Role, error) {
	c, err := callerFromContext(ctx, s.adminEmail)
	if err != nil {
		return access.Principal{}, access.NoRole, err
	}
	return *c.principal, c.role, nil
}

// PurgeExpiredRefreshTokens is run by the cleanup job.
func (s *UserService) PurgeExpiredRefreshTokens(ctx context.Context, now time.Time) (int64, error) {
	return s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx, now)
}

func (s *UserService) generateTokenPair(ctx context.Context, u *models.User, tx dbx.DBTX) (*TokenPair, error) {
	principal := access.Principal{ID: u.ID, Email: u.Email}
	accessToken, expires, err := auth.GenerateToken(principal, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, u.ID, refresh, time.Now().Add(s.refreshTokenValidityDuration)); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{AccessToken: accessToken, RefreshToken: refresh, ExpiresAt: expires, User: principal}, nil
}
