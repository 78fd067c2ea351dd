package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/checkout"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/utils"
)

// Checkout places orders and moves them through their lifecycle.
type Checkout interface {
	PlaceOrder(ctx context.Context, in checkout.PlaceOrderInput) (*checkout.PlaceOrderResult, error)
	VerifyCard(ctx context.Context, userID uuid.UUID, otp, reference, discountCode string) (*models.OrderGroup, error)
	UpdateOrderStatus(ctx context.Context, claims *utils.TokenClaims, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error)
}

// OrderStore lists placed orders.
type OrderStore interface {
	ListOrderGroups(ctx context.Context, userID uuid.UUID) ([]models.OrderGroup, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error)
	ListAllOrders(ctx context.Context, pg utils.Pagination) ([]models.Order, int64, error)
}

// OrderHandler exposes checkout and order history.
type OrderHandler struct {
	checkout Checkout
	store    OrderStore
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(co Checkout, store OrderStore) *OrderHandler {
	return &OrderHandler{checkout: co, store: store}
}

type placeOrderRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method" validate:"required,oneof=CASH CARD"`
	Address       string               `json:"address" validate:"required"`
	FirstName     string               `json:"first_name" validate:"required"`
	LastName      string               `json:"last_name" validate:"required"`
	PhoneNumber   string               `json:"phone_number" validate:"required"`
	CardNumber    string               `json:"card_number"`
	CardName      string               `json:"card_name"`
	CVV           string               `json:"cvv"`
	Expiration    string               `json:"expiration"`
	Pin           string               `json:"pin"`
	DiscountCode  string               `json:"discount_code"`
}

// Place checks out the caller's cart. Cash orders are created immediately;
// card orders return a reference to confirm with the OTP.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req placeOrderRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	result, err := h.checkout.PlaceOrder(c.UserContext(), checkout.PlaceOrderInput{
		UserID: claims.ID,
		Shipping: models.ShippingDetails{
			Address:     req.Address,
			FirstName:   req.FirstName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
		},
		PaymentMethod: req.PaymentMethod,
		Card: checkout.CardInput{
			Number:     req.CardNumber,
			Name:       req.CardName,
			CVV:        req.CVV,
			Expiration: req.Expiration,
			Pin:        req.Pin,
		},
		DiscountCode: req.DiscountCode,
	})
	if err != nil {
		return err
	}

	if result.OrderGroup != nil {
		return response.OK(c, "Successfully placed order.", result.OrderGroup)
	}
	return response.OK(c, "Charge initiated. Confirm the payment with the OTP sent to you.", fiber.Map{
		"reference":  result.Reference,
		"payment_id": result.PaymentID,
	})
}

type verifyCardRequest struct {
	OTP          string `json:"otp" validate:"required"`
	Reference    string `json:"reference" validate:"required"`
	DiscountCode string `json:"discount_code"`
}

// Verify completes a card checkout.
func (h *OrderHandler) Verify(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req verifyCardRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	group, err := h.checkout.VerifyCard(c.UserContext(), claims.ID, req.OTP, req.Reference, req.DiscountCode)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully placed order.", group)
}

type orderStatusRequest struct {
	OrderID uuid.UUID          `json:"order_id" validate:"required"`
	Status  models.OrderStatus `json:"status" validate:"required,oneof=FULFILLED CANCELLED"`
}

// UpdateStatus fulfils or cancels a pending order.
func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	var req orderStatusRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	order, err := h.checkout.UpdateOrderStatus(c.UserContext(), claims, req.OrderID, req.Status)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully updated order.", order)
}

// List returns the caller's order groups.
func (h *OrderHandler) List(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	groups, err := h.store.ListOrderGroups(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved orders.", groups)
}

// ListVendor returns orders placed for the caller's products.
func (h *OrderHandler) ListVendor(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	if !auth.Has(claims.Role, auth.CapSell) {
		return apperr.Auth("You can't view vendor orders with your current role.")
	}

	orders, err := h.store.ListVendorOrders(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved orders.", orders)
}

// ListAll returns a page of every order.
func (h *OrderHandler) ListAll(c *fiber.Ctx) error {
	pg := utils.ParsePagination(c)
	orders, total, err := h.store.ListAllOrders(c.UserContext(), pg)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved orders.", paginated(orders, pg, total))
}
