package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/store"
	"github.com/example/marketplace/internal/utils"
)

// CartHandler manages the caller's cart lines.
type CartHandler struct {
	store *store.Store
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(s *store.Store) *CartHandler {
	return &CartHandler{store: s}
}

// List returns the caller's cart with products.
func (h *CartHandler) List(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	lines, err := h.store.CartLines(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved cart.", lines)
}

type addToCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=1"`
}

// Add puts a product in the cart, or increases the quantity of an existing
// line.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req addToCartRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	line, err := h.store.AddToCart(c.UserContext(), claims.ID, req.ProductID, req.Quantity)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully added product to cart.", line)
}

type updateCartRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"gte=0"`
}

// Update sets the quantity of a cart line.
func (h *CartHandler) Update(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req updateCartRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	if err := h.store.UpdateCartQuantity(c.UserContext(), claims.ID, req.ProductID, req.Quantity); err != nil {
		return err
	}
	return response.OK(c, "Successfully updated cart.", fiber.Map{"product_id": req.ProductID, "quantity": req.Quantity})
}

// Remove drops one product from the cart.
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	productID, err := parseID(c.Query("product_id"), "product_id")
	if err != nil {
		return err
	}

	if err := h.store.RemoveFromCart(c.UserContext(), claims.ID, productID); err != nil {
		return err
	}
	return response.OK(c, "Successfully removed product from cart.", nil)
}

// Clear empties the cart.
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	if err := h.store.ClearCart(c.UserContext(), claims.ID); err != nil {
		return err
	}
	return response.OK(c, "Successfully cleared cart.", nil)
}
