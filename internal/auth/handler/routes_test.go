package handler_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abrahamahn/abe-stack-auth/internal/auth/domain"
	"github.com/abrahamahn/abe-stack-auth/internal/auth/service"
	authconstant "github.com/abrahamahn/abe-stack-auth/pkg/constant"
)

// TestRegisterRoutes verifies that all public routes are mounted.
func TestRegisterRoutes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(ctrl)

	testCases := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/v1/register"},
		{http.MethodPost, "/api/v1/login"},
		{http.MethodPost, "/api/v1/refresh"},
		{http.MethodDelete, "/api/v1/session"},
		{http.MethodPost, "/api/v1/mfa/totp/verify"},
		{http.MethodPost, "/api/v1/mfa/sms/send"},
		{http.MethodPost, "/api/v1/mfa/sms/verify"},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%s_%s_exists", tc.method, tc.path), func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			resp, err := f.app.Test(req)
			require.NoError(t, err)

			// Route existence only; the handlers themselves answer 400 for
			// the missing body.
			assert.NotEqual(t, http.StatusNotFound, resp.StatusCode)
		})
	}
}

func TestRequireAuthMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(ctrl)
	user := &domain.User{ID: "user-123", Email: "test@example.com", TokenVersion: 2}

	t.Run("missing token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/", nil)
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("invalid token", func(t *testing.T) {
		f.tokenGen.EXPECT().VerifyAccessToken("garbage").Return(nil, fmt.Errorf("bad token"))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer garbage")
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("stale token version", func(t *testing.T) {
		f.tokenGen.EXPECT().VerifyAccessToken("stale").
			Return(&service.JWTCustomClaims{UserID: user.ID, TokenVersion: 1}, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer stale")
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("valid token reaches handler", func(t *testing.T) {
		f.tokenGen.EXPECT().VerifyAccessToken("good").
			Return(&service.JWTCustomClaims{UserID: user.ID, TokenVersion: 2}, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)
		f.tokens.EXPECT().GetActiveFamiliesByUserID(gomock.Any(), user.ID, gomock.Any()).
			Return([]*domain.RefreshTokenFamily{
				{ID: "family-1", UserID: user.ID, CreatedAt: time.Now(),
					LatestExpiresAt: time.Now().Add(time.Hour)},
			}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions/", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer good")
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestRequireRoleMiddleware(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newHandlerFixture(ctrl)

	t.Run("non-admin is forbidden", func(t *testing.T) {
		user := &domain.User{ID: "user-123", Role: authconstant.DefaultUserRole, TokenVersion: 1}
		f.tokenGen.EXPECT().VerifyAccessToken("user-token").
			Return(&service.JWTCustomClaims{UserID: user.ID, Role: user.Role, TokenVersion: 1}, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), user.ID).Return(user, nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/user/target-1/sessions", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer user-token")
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	})

	t.Run("admin force-logout", func(t *testing.T) {
		admin := &domain.User{ID: "admin-1", Role: authconstant.AdminRole, TokenVersion: 1}
		f.tokenGen.EXPECT().VerifyAccessToken("admin-token").
			Return(&service.JWTCustomClaims{UserID: admin.ID, Role: admin.Role, TokenVersion: 1}, nil)
		f.repo.EXPECT().GetByID(gomock.Any(), admin.ID).Return(admin, nil)
		f.tokens.EXPECT().RevokeAllForUser(gomock.Any(), "target-1", authconstant.RevokeReasonAdmin).
			Return(2, nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/v1/admin/user/target-1/sessions", nil)
		req.Header.Set(fiber.HeaderAuthorization, "Bearer admin-token")
		resp, err := f.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}
