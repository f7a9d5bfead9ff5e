package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/dto"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/service"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var input dto.RegisterInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.Email == "" || input.Password == "" {
		return badRequest(c)
	}

	user, err := h.userService.Register(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.UserOutput{
		ID:        user.ID,
		Email:     user.Email,
		Role:      user.Role,
		CreatedAt: user.CreatedAt,
	})
}

// Login returns either a token pair or a pending MFA challenge. The two
// shapes are distinguishable by the challenge flags in the body; the
// status is 200 for both since the credentials were accepted.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var input dto.LoginInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}

	// Capture metadata
	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	outcome, err := h.userService.Login(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	if outcome.Kind == service.LoginTokens {
		return c.Status(fiber.StatusOK).JSON(outcome.Tokens)
	}
	return c.Status(fiber.StatusOK).JSON(outcome.Challenge)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.RefreshToken == "" {
		return badRequest(c)
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.userService.Refresh(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// Logout revokes the family behind the supplied refresh token. Unknown
// tokens are a no-op so logout never fails after a concurrent revoke.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.RefreshToken == "" {
		return badRequest(c)
	}

	if err := h.userService.Logout(c.Context(), input.RefreshToken); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// LogoutAll revokes every session the authenticated user holds.
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	claims := authClaims(c)
	if claims == nil {
		return writeError(c, errUnauthenticated)
	}

	count, err := h.userService.LogoutAll(c.Context(), claims.UserID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.RevokeSessionsResponse{RevokedCount: count})
}
