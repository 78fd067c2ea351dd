package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/utils"
)

// ListOrderGroups returns the caller's checkouts with their orders.
func (s *Store) ListOrderGroups(ctx context.Context, userID uuid.UUID) ([]models.OrderGroup, error) {
	var groups []models.OrderGroup
	err := s.conn(ctx).
		Preload("Orders.Product").
		Preload("Orders.Invoice").
		Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&groups).Error
	return groups, err
}

// ListVendorOrders returns orders placed against products the vendor owns.
func (s *Store) ListVendorOrders(ctx context.Context, vendorID uuid.UUID) ([]models.Order, error) {
	var orders []models.Order
	err := s.conn(ctx).
		Joins("JOIN products ON products.id = orders.product_id").
		Where("products.user_id = ?", vendorID).
		Preload("Product").
		Preload("Invoice").
		Preload("OrderGroup").
		Order("orders.created_at desc").
		Find(&orders).Error
	return orders, err
}

func (s *Store) ListAllOrders(ctx context.Context, pg utils.Pagination) ([]models.Order, int64, error) {
	query := s.conn(ctx).Model(&models.Order{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := query.Preload("Product").Preload("Invoice").Preload("OrderGroup").
		Scopes(pg.Scope).
		Order("created_at desc").
		Find(&orders).Error
	return orders, total, err
}
