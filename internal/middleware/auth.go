package middleware

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/utils"
)

const (
	claimsContextKey = "currentClaims"
	tokenContextKey  = "currentAccessToken"
)

// Verifier authenticates an Authorization header.
type Verifier interface {
	Verify(ctx context.Context, header string, optional bool) (*utils.TokenClaims, string, error)
}

// AuthMiddleware requires a valid access token bound to a live session and
// loads the claims into context.
func AuthMiddleware(v Verifier) fiber.Handler {
	return authenticate(v, false)
}

// OptionalAuthMiddleware loads claims when a token is present and lets
// anonymous requests through.
func OptionalAuthMiddleware(v Verifier) fiber.Handler {
	return authenticate(v, true)
}

func authenticate(v Verifier, optional bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, token, err := v.Verify(c.UserContext(), c.Get(fiber.HeaderAuthorization), optional)
		if err != nil {
			return err
		}
		if claims != nil {
			c.Locals(claimsContextKey, claims)
			c.Locals(tokenContextKey, token)
		}
		return c.Next()
	}
}

// Require rejects callers whose role lacks capability. It must run after
// AuthMiddleware.
func Require(capability auth.Capability) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := auth.Authorize(GetClaims(c), capability); err != nil {
			return err
		}
		return c.Next()
	}
}

// GetClaims returns the authenticated caller, or nil.
func GetClaims(c *fiber.Ctx) *utils.TokenClaims {
	claims, _ := c.Locals(claimsContextKey).(*utils.TokenClaims)
	return claims
}

// GetCurrentUserID extracts the authenticated user ID from context.
func GetCurrentUserID(c *fiber.Ctx) (uuid.UUID, bool) {
	claims := GetClaims(c)
	if claims == nil {
		return uuid.Nil, false
	}
	return claims.ID, true
}

// GetAccessToken returns the bearer token the request authenticated with.
func GetAccessToken(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenContextKey).(string)
	return token
}
