package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/auth"
	"github.com/spec-kit/activity-desk/internal/domain"
	"github.com/spec-kit/activity-desk/internal/repository"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const msgBadCredentials = "نام کاربری یا رمز عبور اشتباه است."

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	User    *domain.User
	Token   string
	Session domain.Session
	// Redirect is the landing page of the user's role.
	Redirect string
}

// AuthService coordinates login and logout flows.
type AuthService struct {
	users    repository.UserRepository
	tokenMgr *auth.TokenManager
	revoked  auth.RevocationStore
	logger   *zap.Logger
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Revocations  auth.RevocationStore
	Logger       *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:    deps.UserRepo,
		tokenMgr: deps.TokenManager,
		revoked:  deps.Revocations,
		logger:   logger,
	}
}

// Login verifies credentials and issues a token. Unknown usernames and wrong
// passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.users.GetByUsername(ctx, nil, strings.TrimSpace(username))
	if err != nil {
		if apperrors.IsNoRows(err) {
			return nil, apperrors.NewUnauthorized(msgBadCredentials)
		}
		return nil, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			s.logger.Error("stored password hash unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, apperrors.NewUnauthorized(msgBadCredentials)
	}

	token, session, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	return &LoginResult{
		User:     user,
		Token:    token,
		Session:  session,
		Redirect: user.Role.HomePath(),
	}, nil
}

// Logout revokes the session's token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil || s.revoked == nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, session.TokenID, session.ExpiresAt); err != nil {
		return apperrors.NewInternalError(err)
	}
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
