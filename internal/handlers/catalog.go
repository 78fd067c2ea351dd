package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/store"
	"github.com/example/marketplace/internal/utils"
)

// CatalogHandler manages categories and vendor items.
type CatalogHandler struct {
	store *store.Store
}

// NewCatalogHandler constructs CatalogHandler.
func NewCatalogHandler(s *store.Store) *CatalogHandler {
	return &CatalogHandler{store: s}
}

// ListCategories returns every category.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.store.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved categories.", categories)
}

type categoryRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
}

// CreateCategory persists a new category.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req categoryRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	category := models.Category{Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := h.store.CreateCategory(c.UserContext(), &category); err != nil {
		return err
	}

	return response.OK(c, "Successfully created category.", category)
}

// ListVendorItems returns the caller's items.
func (h *CatalogHandler) ListVendorItems(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	items, err := h.store.ListItemsByUser(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved items.", items)
}

// ListItems returns a page of items that have not been deleted.
func (h *CatalogHandler) ListItems(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	items, total, err := h.store.ListItems(c.UserContext(), pg)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved items.", paginated(items, pg, total))
}

// SearchItems matches items by title or description.
func (h *CatalogHandler) SearchItems(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))
	if search == "" {
		return apperr.Validation("Invalid search.")
	}

	items, err := h.store.SearchItems(c.UserContext(), search)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved items.", items)
}

// GetItem returns a single item.
func (h *CatalogHandler) GetItem(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "item_id")
	if err != nil {
		return err
	}

	item, err := h.store.FindItem(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved item.", item)
}

type itemRequest struct {
	ItemID      string          `json:"item_id"`
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
}

// CreateItem adds an item owned by the caller.
func (h *CatalogHandler) CreateItem(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	if !auth.Has(claims.Role, auth.CapSell) {
		return apperr.Auth("You can't create an item with your current role.")
	}

	var req itemRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if err := positivePrice(req.Price); err != nil {
		return err
	}

	item := models.Item{
		UserID:      claims.ID,
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	}
	if err := h.store.CreateItem(c.UserContext(), &item); err != nil {
		return err
	}

	return response.OK(c, "Successfully created item.", item)
}

// UpdateItem changes an item's title, description and price.
func (h *CatalogHandler) UpdateItem(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req itemRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	id, err := parseID(req.ItemID, "item_id")
	if err != nil {
		return err
	}
	if err := positivePrice(req.Price); err != nil {
		return err
	}

	item, err := h.store.FindItem(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !auth.CanActOn(claims, item.UserID, auth.CapManageCatalogAny) {
		return apperr.Auth("Item doesn't belong to you and you don't have the right role to update it.")
	}

	item.Title = req.Title
	item.Description = req.Description
	item.Price = req.Price
	if err := h.store.UpdateItem(c.UserContext(), item); err != nil {
		return err
	}

	return response.OK(c, "Successfully updated item.", item)
}

// DeleteItem soft deletes an item that no product links to.
func (h *CatalogHandler) DeleteItem(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	id, err := parseID(c.Params("item_id"), "item_id")
	if err != nil {
		return err
	}

	item, err := h.store.FindItem(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !auth.CanActOn(claims, item.UserID, auth.CapManageCatalogAny) {
		return apperr.Auth("Item doesn't belong to you and you don't have the right role to delete it.")
	}

	if err := h.store.SoftDeleteItem(c.UserContext(), id); err != nil {
		return err
	}

	return response.OK(c, "Successfully deleted item.", nil)
}
