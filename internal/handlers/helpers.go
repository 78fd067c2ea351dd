package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/middleware"
	"github.com/example/marketplace/internal/utils"
)

func parseID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validation(fmt.Sprintf("Invalid %s.", field))
	}
	return id, nil
}

// currentClaims returns the authenticated caller. Routes behind
// AuthMiddleware always have one.
func currentClaims(c *fiber.Ctx) (*utils.TokenClaims, error) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return nil, apperr.Auth("Authorization header is required.")
	}
	return claims, nil
}

func positivePrice(price decimal.Decimal) error {
	if !price.IsPositive() {
		return apperr.Validation("Invalid price. Expected a value greater than 0.")
	}
	return nil
}

func paginated(data any, pg utils.Pagination, total int64) fiber.Map {
	return fiber.Map{
		"items": data,
		"pagination": fiber.Map{
			"current_page":   pg.Page,
			"items_per_page": pg.Limit,
			"total_items":    total,
		},
	}
}
