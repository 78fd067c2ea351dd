package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
)

// ClampPercent keeps a discount percent inside [0, 100].
func ClampPercent(percent int) int {
	switch {
	case percent < 0:
		return 0
	case percent > 100:
		return 100
	default:
		return percent
	}
}

func (s *Store) CreateDiscount(ctx context.Context, discount *models.Discount) error {
	discount.Percent = ClampPercent(discount.Percent)
	return notDuplicate(s.conn(ctx).Create(discount).Error, "A discount with this code already exists.")
}

func (s *Store) ListDiscounts(ctx context.Context) ([]models.Discount, error) {
	var discounts []models.Discount
	err := s.conn(ctx).Order("ends_at desc").Find(&discounts).Error
	return discounts, err
}

// UpdateDiscount changes the percent and end date of an existing discount.
func (s *Store) UpdateDiscount(ctx context.Context, id uuid.UUID, percent int, endsAt time.Time) (*models.Discount, error) {
	res := s.conn(ctx).Model(&models.Discount{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"percent": ClampPercent(percent),
			"ends_at": endsAt,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Discount not found.")
	}

	var discount models.Discount
	if err := s.conn(ctx).First(&discount, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Discount not found.")
	}
	return &discount, nil
}

// ListUserInvoices returns invoices of orders the user placed.
func (s *Store) ListUserInvoices(ctx context.Context, userID uuid.UUID) ([]models.Invoice, error) {
	var invoices []models.Invoice
	err := s.conn(ctx).
		Joins("JOIN orders ON orders.id = invoices.order_id").
		Joins("JOIN order_groups ON order_groups.id = orders.order_group_id").
		Where("order_groups.user_id = ?", userID).
		Preload("Order.Product").
		Order("invoices.created_at desc").
		Find(&invoices).Error
	return invoices, err
}

// ListVendorInvoices returns invoices for the vendor's products. With
// pendingOnly set, only invoices the marketplace has not yet paid out.
func (s *Store) ListVendorInvoices(ctx context.Context, vendorID uuid.UUID, pendingOnly bool) ([]models.Invoice, error) {
	query := s.conn(ctx).
		Joins("JOIN orders ON orders.id = invoices.order_id").
		Joins("JOIN products ON products.id = orders.product_id").
		Where("products.user_id = ?", vendorID)
	if pendingOnly {
		query = query.Where("invoices.vendor_payment_status = ?", models.PaymentStatusNotPaid)
	}

	var invoices []models.Invoice
	err := query.Preload("Order.Product").Order("invoices.created_at desc").Find(&invoices).Error
	return invoices, err
}

func (s *Store) SetVendorPaymentStatus(ctx context.Context, invoiceID uuid.UUID, status models.PaymentStatus) error {
	res := s.conn(ctx).Model(&models.Invoice{}).
		Where("id = ?", invoiceID).
		Update("vendor_payment_status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("Invoice not found.")
	}
	return nil
}
