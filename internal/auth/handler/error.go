package handler

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	autherror "github.com/abrahamahn/abe-stack-auth/internal/errors"
)

// writeError maps service errors to HTTP responses. Lockout and rate-limit
// errors expose a Retry-After hint; everything else collapses to a generic
// message at the matching status so callers learn nothing extra.
func writeError(c *fiber.Ctx, err error) error {
	var locked *autherror.AccountLockedError
	if errors.As(err, &locked) {
		if locked.RetryAfter > 0 {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(locked.RetryAfter.Seconds())))
		}
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": locked.Error()})
	}

	var limited *autherror.RateLimitedError
	if errors.As(err, &limited) {
		if limited.RetryAfter > 0 {
			c.Set(fiber.HeaderRetryAfter, fmt.Sprintf("%d", int(limited.RetryAfter.Seconds())))
		}
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": limited.Error()})
	}

	switch {
	case errors.Is(err, autherror.ErrAccountLocked):
		return c.Status(fiber.StatusLocked).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrRateLimited):
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrInvalidCredentials),
		errors.Is(err, autherror.ErrInvalidToken),
		errors.Is(err, autherror.ErrWrongMfaCode):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrEmailNotVerified):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrUnauthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, autherror.ErrEmailAlreadyInUse):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	}

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid input"})
}
