package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/store"
	"github.com/example/marketplace/internal/utils"
)

// ProductHandler manages products, ratings and comments.
type ProductHandler struct {
	store *store.Store
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(s *store.Store) *ProductHandler {
	return &ProductHandler{store: s}
}

// ListVendor returns the caller's products.
func (h *ProductHandler) ListVendor(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	products, err := h.store.ListProductsByUser(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved products.", products)
}

// List returns a page of products.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	products, total, err := h.store.ListProducts(c.UserContext(), pg)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved products.", paginated(products, pg, total))
}

// Search matches products by text or tag.
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	search := strings.TrimSpace(c.Query("search"))
	if search == "" {
		return apperr.Validation("Invalid search.")
	}

	products, err := h.store.SearchProducts(c.UserContext(), search)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved products.", products)
}

// Get returns a product with its items, ratings and comments.
func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, err := parseID(c.Params("id"), "product_id")
	if err != nil {
		return err
	}

	product, err := h.store.FindProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved product.", product)
}

type productRequest struct {
	ProductID   string          `json:"product_id"`
	Items       []uuid.UUID     `json:"items"`
	CategoryID  uuid.UUID       `json:"category_id"`
	Title       string          `json:"title" validate:"required"`
	Excerpt     string          `json:"excerpt" validate:"required"`
	Description string          `json:"description" validate:"required"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" validate:"min=0"`
	Tags        []string        `json:"tags"`
}

func (r productRequest) check() error {
	if r.CategoryID == uuid.Nil {
		return apperr.Validation("You can't create product that doesn't belong to a category.")
	}
	return positivePrice(r.Price)
}

func (r productRequest) apply(p *models.Product) {
	categoryID := r.CategoryID
	p.CategoryID = &categoryID
	p.Title = r.Title
	p.Excerpt = r.Excerpt
	p.Description = r.Description
	p.Price = r.Price
	p.Stock = r.Stock
	p.Tags = pq.StringArray(r.Tags)
}

// Create adds a product owned by the caller and links the given items.
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	if !auth.Has(claims.Role, auth.CapSell) {
		return apperr.Auth("You can't create a product with your current role.")
	}

	var req productRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if len(req.Items) == 0 {
		return apperr.Validation("You can't create a product with no items.")
	}
	if err := req.check(); err != nil {
		return err
	}

	product := models.Product{UserID: claims.ID}
	req.apply(&product)
	if err := h.store.CreateProduct(c.UserContext(), &product, req.Items); err != nil {
		return err
	}

	return response.OK(c, "Successfully created new product.", product)
}

// Update replaces a product's editable fields.
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req productRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	id, err := parseID(req.ProductID, "product_id")
	if err != nil {
		return err
	}
	if err := req.check(); err != nil {
		return err
	}

	product, err := h.store.FindProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !auth.CanActOn(claims, product.UserID, auth.CapManageCatalogAny) {
		return apperr.Auth("Product doesn't belong to you and you don't have the right role to update it.")
	}

	req.apply(product)
	if err := h.store.UpdateProduct(c.UserContext(), product); err != nil {
		return err
	}

	return response.OK(c, "Successfully updated product.", nil)
}

// Delete removes a product together with its links, cart lines and wishlist
// entries.
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	id, err := parseID(c.Query("product_id"), "product_id")
	if err != nil {
		return err
	}

	product, err := h.store.FindProduct(c.UserContext(), id)
	if err != nil {
		return err
	}
	if !auth.CanActOn(claims, product.UserID, auth.CapManageCatalogAny) {
		return apperr.Auth("Product doesn't belong to you and you don't have the right role to delete it.")
	}

	if err := h.store.DeleteProduct(c.UserContext(), id); err != nil {
		return err
	}

	return response.OK(c, "Successfully deleted product.", nil)
}

type ratingRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Rating    int       `json:"rating" validate:"min=1,max=5"`
}

// Rate records the caller's 1 to 5 rating, replacing any previous one.
func (h *ProductHandler) Rate(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req ratingRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.store.FindProduct(c.UserContext(), req.ProductID); err != nil {
		return err
	}

	rating := models.Rating{UserID: claims.ID, ProductID: req.ProductID, Value: req.Rating}
	if err := h.store.UpsertRating(c.UserContext(), &rating); err != nil {
		return err
	}

	return response.OK(c, "Successfully rated product.", rating)
}

type commentRequest struct {
	ProductID uuid.UUID `json:"product_id" validate:"required"`
	Comment   string    `json:"comment" validate:"required,max=2000"`
}

// Comment attaches a comment by the caller to a product.
func (h *ProductHandler) Comment(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req commentRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}
	if _, err := h.store.FindProduct(c.UserContext(), req.ProductID); err != nil {
		return err
	}

	comment := models.Comment{UserID: claims.ID, ProductID: req.ProductID, Body: strings.TrimSpace(req.Comment)}
	if err := h.store.CreateComment(c.UserContext(), &comment); err != nil {
		return err
	}

	return response.OK(c, "Successfully added comment.", comment)
}
