package handler

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/service"
	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
)

const claimsLocalKey = "auth_claims"

var errUnauthenticated = errors.New("missing or invalid access token")

// AuthMiddleware guards routes with access-token verification. The
// token_version claim is checked against the live user record so a
// version bump kills outstanding access tokens before they expire.
type AuthMiddleware struct {
	tokenService service.TokenGenerator
	users        domain.UserRepository
}

func NewAuthMiddleware(tokenService service.TokenGenerator, users domain.UserRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenService: tokenService, users: users}
}

func (m *AuthMiddleware) RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.verify(c)
		if claims == nil {
			return err
		}
		c.Locals(claimsLocalKey, claims)
		return c.Next()
	}
}

func (m *AuthMiddleware) RequireRole(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := m.verify(c)
		if claims == nil {
			return err
		}
		if claims.Role != role {
			return writeError(c, autherror.ErrUnauthorized)
		}
		c.Locals(claimsLocalKey, claims)
		return c.Next()
	}
}

// verify authenticates the request and either returns the claims or
// writes the error response itself; a non-nil error here is the already
// rendered response.
func (m *AuthMiddleware) verify(c *fiber.Ctx) (*service.JWTCustomClaims, error) {
	header := c.Get(fiber.HeaderAuthorization)
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": errUnauthenticated.Error()})
	}

	claims, err := m.tokenService.VerifyAccessToken(token)
	if err != nil {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": errUnauthenticated.Error()})
	}

	user, err := m.users.GetByID(c.Context(), claims.UserID)
	if err != nil {
		return nil, writeError(c, err)
	}
	if user == nil || user.TokenVersion != claims.TokenVersion {
		return nil, c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": errUnauthenticated.Error()})
	}
	return claims, nil
}

// authClaims returns the verified claims set by RequireAuth, or nil on an
// unguarded route.
func authClaims(c *fiber.Ctx) *service.JWTCustomClaims {
	claims, _ := c.Locals(claimsLocalKey).(*service.JWTCustomClaims)
	return claims
}
