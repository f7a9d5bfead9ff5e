package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

func RegisterRoutes(app *fiber.App, auth *AuthHandler, mfa *MfaHandler, sessions *SessionHandler, mw *AuthMiddleware) {
	app.Post("api/v1/register", auth.Register)
	app.Post("api/v1/login", auth.Login)
	app.Post("api/v1/refresh", auth.Refresh)
	app.Delete("api/v1/session", auth.Logout)

	app.Post("api/v1/mfa/totp/verify", mfa.VerifyTotp)
	app.Post("api/v1/mfa/sms/send", mfa.SendSmsCode)
	app.Post("api/v1/mfa/sms/verify", mfa.VerifySms)

	// Session management for the authenticated user. Listing is a POST so
	// the current refresh token can ride in the body.
	me := app.Group("/api/v1/sessions", mw.RequireAuth())
	me.Post("/", sessions.ListSessions)
	me.Delete("/others", sessions.RevokeOtherSessions)
	me.Delete("/all", auth.LogoutAll)
	me.Delete("/:id", sessions.RevokeSession)

	// Admin-only endpoints
	admin := app.Group("/api/v1/admin", mw.RequireRole(constant.AdminRole))
	admin.Delete("/user/:id/sessions", sessions.ForceLogout)
	admin.Get("/user/:id/sessions", sessions.GetUserSessions)
}
