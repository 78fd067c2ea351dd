package middleware

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/logging"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/utils"
)

type stubVerifier struct {
	claims *utils.TokenClaims
}

func (s stubVerifier) Verify(_ context.Context, header string, optional bool) (*utils.TokenClaims, string, error) {
	switch {
	case header == "" && optional:
		return nil, "", nil
	case header == "Bearer good":
		return s.claims, "good", nil
	default:
		return nil, "", apperr.Auth("Invalid authorization header.")
	}
}

func newApp() *fiber.App {
	return fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler(logging.Discard())})
}

func decode(t *testing.T, body io.Reader) response.Envelope {
	t.Helper()
	var env response.Envelope
	require.NoError(t, json.NewDecoder(body).Decode(&env))
	return env
}

func TestAuthMiddleware(t *testing.T) {
	claims := &utils.TokenClaims{ID: uuid.New(), Role: models.RoleVendor}
	app := newApp()
	app.Get("/me", AuthMiddleware(stubVerifier{claims: claims}), func(c *fiber.Ctx) error {
		id, ok := GetCurrentUserID(c)
		require.True(t, ok)
		return response.OK(c, GetAccessToken(c), id)
	})

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	resp, err := app.Test(req)
	require.NoError(t, err)
	env := decode(t, resp.Body)
	assert.False(t, env.Error)
	assert.Equal(t, "good", env.Message)
	assert.Equal(t, claims.ID.String(), env.Data)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.True(t, decode(t, resp.Body).Error)
}

func TestOptionalAuthMiddleware(t *testing.T) {
	app := newApp()
	app.Get("/anon", OptionalAuthMiddleware(stubVerifier{}), func(c *fiber.Ctx) error {
		return response.OK(c, "ok", GetClaims(c) == nil)
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/anon", nil))
	require.NoError(t, err)
	env := decode(t, resp.Body)
	assert.False(t, env.Error)
	assert.Equal(t, true, env.Data)
}

func TestRequireCapability(t *testing.T) {
	for role, allowed := range map[models.Role]bool{
		models.RoleUser:  false,
		models.RoleAdmin: false,
		models.RoleSuper: true,
	} {
		app := newApp()
		verifier := stubVerifier{claims: &utils.TokenClaims{ID: uuid.New(), Role: role}}
		app.Post("/discount", AuthMiddleware(verifier), Require(auth.CapManageDiscounts), func(c *fiber.Ctx) error {
			return response.OK(c, "created", nil)
		})

		req := httptest.NewRequest("POST", "/discount", nil)
		req.Header.Set("Authorization", "Bearer good")
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, !allowed, decode(t, resp.Body).Error, role)
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2, logging.Discard())
	app := newApp()
	app.Get("/limited", limiter.Handler(), func(c *fiber.Ctx) error {
		return response.OK(c, "ok", nil)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("GET", "/limited", nil))
		require.NoError(t, err)
		codes = append(codes, resp.StatusCode)
	}
	assert.Equal(t, []int{200, 200, 429}, codes)

	assert.Equal(t, 0, limiter.Cleanup(time.Hour))
	assert.Equal(t, 1, limiter.Cleanup(-time.Second))
}

func TestMetricsMiddlewareRendersErrors(t *testing.T) {
	app := newApp()
	app.Use(Metrics())
	app.Get("/boom", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusTeapot, "short and stout")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/boom", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", decode(t, resp.Body).Message)
}
