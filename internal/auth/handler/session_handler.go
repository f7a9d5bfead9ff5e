package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/dto"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/service"
)

type SessionHandler struct {
	sessions *service.SessionService
}

func NewSessionHandler(sessions *service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// ListSessions returns the caller's active sessions. The optional
// refresh token in the body lets the current device be flagged.
func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	claims := authClaims(c)
	if claims == nil {
		return writeError(c, errUnauthenticated)
	}

	var input dto.RefreshInput
	// Body is optional here; ignore parse failures from an empty body.
	_ = c.BodyParser(&input)

	sessions, err := h.sessions.ListSessions(c.Context(), claims.UserID, input.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}

func (h *SessionHandler) RevokeSession(c *fiber.Ctx) error {
	claims := authClaims(c)
	if claims == nil {
		return writeError(c, errUnauthenticated)
	}

	familyID := c.Params("id")
	if familyID == "" {
		return badRequest(c)
	}

	if err := h.sessions.RevokeSession(c.Context(), claims.UserID, familyID); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// RevokeOtherSessions signs the user out everywhere but this device.
func (h *SessionHandler) RevokeOtherSessions(c *fiber.Ctx) error {
	claims := authClaims(c)
	if claims == nil {
		return writeError(c, errUnauthenticated)
	}

	var input dto.RefreshInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.RefreshToken == "" {
		return badRequest(c)
	}

	count, err := h.sessions.RevokeAllExceptCurrent(c.Context(), claims.UserID, input.RefreshToken)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.RevokeSessionsResponse{RevokedCount: count})
}

// Admin endpoints.

// ForceLogout revokes every session a target user holds.
func (h *SessionHandler) ForceLogout(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return badRequest(c)
	}

	count, err := h.sessions.RevokeAllForUser(c.Context(), userID)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(dto.RevokeSessionsResponse{RevokedCount: count})
}

// GetUserSessions lists a target user's active sessions for an admin.
func (h *SessionHandler) GetUserSessions(c *fiber.Ctx) error {
	userID := c.Params("id")
	if userID == "" {
		return badRequest(c)
	}

	sessions, err := h.sessions.ListSessions(c.Context(), userID, "")
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(sessions)
}
