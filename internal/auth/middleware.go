package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/activity-desk/internal/domain"
	apperrors "github.com/spec-kit/activity-desk/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	User    *domain.User
	Session *domain.Session
}

// UserFinder loads the account a token was issued to.
type UserFinder interface {
	UserByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticator validates bearer tokens and loads principals. Requests
// without credentials pass through anonymously; route guards decide.
type Authenticator struct {
	tokens  *TokenManager
	revoked RevocationStore
	users   UserFinder
	logger  *zap.Logger
}

// NewAuthenticator constructs middleware. revoked may be nil.
func NewAuthenticator(tokens *TokenManager, revoked RevocationStore, users UserFinder, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, revoked: revoked, users: users, logger: logger}
}

// Handle resolves the caller from the Authorization header.
func (m *Authenticator) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return c.Next()
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	session, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	if m.revoked != nil {
		// A token that cannot be checked against the revocation list is
		// refused: it may belong to a logged-out session.
		revoked, err := m.revoked.IsRevoked(ctx, session.TokenID)
		if err != nil {
			m.logger.Error("revocation lookup failed", zap.String("token_id", session.TokenID), zap.Error(err))
			return apperrors.NewUnavailable("redis", err)
		}
		if revoked {
			return apperrors.NewUnauthorized("token revoked")
		}
	}

	user, err := m.users.UserByID(ctx, session.UserID)
	if err != nil {
		if apperrors.IsNoRows(err) {
			return apperrors.NewUnauthorized("user not found")
		}
		return apperrors.MapError(err)
	}

	c.Locals(principalKey, &Principal{User: user, Session: session})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// CurrentUser returns the caller, or nil when anonymous.
func CurrentUser(c *fiber.Ctx) *domain.User {
	if principal, ok := PrincipalFromContext(c); ok {
		return principal.User
	}
	return nil
}
