package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/dto"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/service"
)

type MfaHandler struct {
	mfaService *service.MfaService
}

func NewMfaHandler(mfaService *service.MfaService) *MfaHandler {
	return &MfaHandler{mfaService: mfaService}
}

func (h *MfaHandler) VerifyTotp(c *fiber.Ctx) error {
	var input dto.TotpVerifyInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.ChallengeToken == "" || input.Code == "" {
		return badRequest(c)
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.mfaService.VerifyTotpLogin(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}

// SendSmsCode triggers delivery of a one-time code for a pending SMS
// challenge. The response is 202 since delivery happens off the request.
func (h *MfaHandler) SendSmsCode(c *fiber.Ctx) error {
	var input dto.SmsSendInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.ChallengeToken == "" {
		return badRequest(c)
	}

	if err := h.mfaService.IssueSmsCode(c.Context(), input.ChallengeToken); err != nil {
		return writeError(c, err)
	}

	return c.SendStatus(fiber.StatusAccepted)
}

func (h *MfaHandler) VerifySms(c *fiber.Ctx) error {
	var input dto.SmsVerifyInput
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c)
	}
	if input.ChallengeToken == "" || input.Code == "" {
		return badRequest(c)
	}

	input.IPAddress = c.IP()
	input.UserAgent = string(c.Request().Header.UserAgent())

	tokens, err := h.mfaService.VerifySmsCode(c.Context(), input)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(tokens)
}
