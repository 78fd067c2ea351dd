package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/auth"
	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/response"
	"github.com/example/marketplace/internal/store"
	"github.com/example/marketplace/internal/utils"
)

// PaymentHandler manages discounts and invoices.
type PaymentHandler struct {
	store *store.Store
}

// NewPaymentHandler constructs PaymentHandler.
func NewPaymentHandler(s *store.Store) *PaymentHandler {
	return &PaymentHandler{store: s}
}

type createDiscountRequest struct {
	Code    string    `json:"discount_code" validate:"required,max=64"`
	Name    string    `json:"discount_name" validate:"required"`
	Percent int       `json:"percent" validate:"gte=0,max=100"`
	Ends    time.Time `json:"ends" validate:"required"`
}

// CreateDiscount registers a discount code.
func (h *PaymentHandler) CreateDiscount(c *fiber.Ctx) error {
	var req createDiscountRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	discount := models.Discount{
		Code:    strings.TrimSpace(req.Code),
		Name:    req.Name,
		Percent: req.Percent,
		EndsAt:  req.Ends,
	}
	if err := h.store.CreateDiscount(c.UserContext(), &discount); err != nil {
		return err
	}

	return response.OK(c, "Successfully created discount.", discount)
}

// ListDiscounts returns every discount.
func (h *PaymentHandler) ListDiscounts(c *fiber.Ctx) error {
	discounts, err := h.store.ListDiscounts(c.UserContext())
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved discounts.", discounts)
}

type updateDiscountRequest struct {
	DiscountID uuid.UUID `json:"discount_id" validate:"required"`
	Percent    int       `json:"percent" validate:"gte=0,max=100"`
	Ends       time.Time `json:"ends" validate:"required"`
}

// UpdateDiscount changes a discount's percent and end date.
func (h *PaymentHandler) UpdateDiscount(c *fiber.Ctx) error {
	var req updateDiscountRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	discount, err := h.store.UpdateDiscount(c.UserContext(), req.DiscountID, req.Percent, req.Ends)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully updated discount.", discount)
}

// UserInvoices returns the invoices of the caller's orders.
func (h *PaymentHandler) UserInvoices(c *fiber.Ctx) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}

	invoices, err := h.store.ListUserInvoices(c.UserContext(), claims.ID)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved invoices.", invoices)
}

// VendorInvoices returns invoices for the caller's products.
func (h *PaymentHandler) VendorInvoices(c *fiber.Ctx) error {
	return h.vendorInvoices(c, false)
}

// PendingVendorInvoices returns vendor invoices not yet paid out.
func (h *PaymentHandler) PendingVendorInvoices(c *fiber.Ctx) error {
	return h.vendorInvoices(c, true)
}

func (h *PaymentHandler) vendorInvoices(c *fiber.Ctx, pendingOnly bool) error {
	claims, err := currentClaims(c)
	if err != nil {
		return err
	}
	if !auth.Has(claims.Role, auth.CapSell) {
		return apperr.Auth("You can't view vendor invoices with your current role.")
	}

	invoices, err := h.store.ListVendorInvoices(c.UserContext(), claims.ID, pendingOnly)
	if err != nil {
		return err
	}
	return response.OK(c, "Successfully retrieved invoices.", invoices)
}

type settleInvoiceRequest struct {
	InvoiceID           uuid.UUID            `json:"invoice_id" validate:"required"`
	VendorPaymentStatus models.PaymentStatus `json:"vendor_payment_status" validate:"required,oneof=PAID NOT_PAID"`
}

// SettleInvoice records whether the vendor has been paid for an invoice.
func (h *PaymentHandler) SettleInvoice(c *fiber.Ctx) error {
	var req settleInvoiceRequest
	if err := utils.ParseBody(c, &req); err != nil {
		return err
	}

	if err := h.store.SetVendorPaymentStatus(c.UserContext(), req.InvoiceID, req.VendorPaymentStatus); err != nil {
		return err
	}
	return response.OK(c, "Successfully updated invoice.", fiber.Map{
		"invoice_id":            req.InvoiceID,
		"vendor_payment_status": req.VendorPaymentStatus,
	})
}
