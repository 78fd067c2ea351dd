package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/store"
	"github.com/example/marketplace/internal/utils"
)

// WishlistHandler manages named wishlists.
type WishlistHandler struct {
	store *store.Store
}

// NewWishlistHandler constructs WishlistHandler.
func NewWishlistHandler(s *store.Store) *WishlistHandler {
	return &WishlistHandler{store: s}
}

// List returns every wishlist entry for staff, or one entry per list name for
// everyone else.
func (h *WishlistHandler) List(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var wishlists []models.Wishlist
	if auth.Has(claims.Role, auth.CapViewAllWishlists) {
		wishlists, err = h.store.ListAllWishlists(c.UserContext())
	} else {
		wishlists, err = h.store.ListWishlistsByName(c.UserContext(), claims.ID)
	}
	if err != nil {
		return err
	}

	return response.OK(c, "Successfully retrieved wishlists.", wishlists)
}

// Get returns one wishlist entry.
func (h *WishlistHandler) Get(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	id, err := parseID(c.Params("id"), "wishlist_id")
	if err != nil {
		return err
	}

	wishlist, err := h.store.FindWishlist(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !auth.CanActOn(claims, wishlist.UserID, auth.CapViewAllWishlists) {
		return apperr.NotFound("Wishlist not found.")
	}

	return response.OK(c, "Successfully retrieved wishlist.", wishlist)
}

type wishlistRequest struct {
	WishlistName string    `json:"wishlist_name" validate:"required,max=100"`
	ProductID    uuid.UUID `json:"product_id" validate:"required"`
}

// Add puts a product on the named list, creating the list implicitly.
func (h *WishlistHandler) Add(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req wishlistRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	wishlist := models.Wishlist{
		UserID:       claims.ID,
		ProductID:    req.ProductID,
		WishlistName: strings.TrimSpace(req.WishlistName),
	}
	if err := h.store.AddToWishlist(c.UserContext(), &wishlist); err != nil {
		return err
	}

	return response.OK(c, "Successfully added product to wishlist.", wishlist)
}

// Remove deletes one entry owned by the caller.
func (h *WishlistHandler) Remove(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	id, err := parseID(c.Params("id"), "wishlist_id")
	if err != nil {
		return err
	}

	if err := h.store.RemoveWishlistEntry(c.UserContext(), claims.ID, id); err != nil {
		return err
	}
	return response.OK(c, "Successfully removed product from wishlist.", nil)
}

type deleteWishlistRequest struct {
	WishlistName string `json:"wishlist_name" validate:"required"`
}

// Delete drops every entry of one of the caller's lists.
func (h *WishlistHandler) Delete(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req deleteWishlistRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	removed, err := h.store.DeleteWishlist(c.UserContext(), claims.ID, strings.TrimSpace(req.WishlistName))
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully deleted wishlist.", fiber.Map{"removed": removed})
}
