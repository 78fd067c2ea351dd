package store

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/marketplace/internal/models"
	"github.com/example/marketplace/internal/utils"
)

// DashboardStats aggregates marketplace activity for staff.
type DashboardStats struct {
	TotalUsers     int64                        `json:"total_users"`
	TotalProducts  int64                        `json:"total_products"`
	TotalOrders    int64                        `json:"total_orders"`
	TotalRevenue   decimal.Decimal              `json:"total_revenue"`
	TodayRevenue   decimal.Decimal              `json:"today_revenue"`
	OrdersByStatus map[models.OrderStatus]int64 `json:"orders_by_status"`
}

// Stats counts users, products and orders and sums invoiced revenue of orders
// that were not cancelled.
func (s *Store) Stats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	db := s.conn(ctx)
	stats := DashboardStats{OrdersByStatus: map[models.OrderStatus]int64{}}

	if err := db.Model(&models.User{}).Where("status <> ?", models.UserStatusDeleted).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Product{}).Count(&stats.TotalProducts).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&stats.TotalOrders).Error; err != nil {
		return nil, err
	}

	var counts []struct {
		Status models.OrderStatus
		Count  int64
	}
	if err := db.Model(&models.Order{}).Select("status, count(*) as count").Group("status").Scan(&counts).Error; err != nil {
		return nil, err
	}
	for _, sc := range counts {
		stats.OrdersByStatus[sc.Status] = sc.Count
	}

	revenue := func(since *time.Time) (decimal.Decimal, error) {
		var row struct{ Total decimal.Decimal }
		query := db.Model(&models.Invoice{}).
			Joins("JOIN orders ON orders.id = invoices.order_id").
			Where("orders.status <> ?", models.OrderStatusCancelled)
		if since != nil {
			query = query.Where("invoices.created_at >= ?", *since)
		}
		err := query.Select("COALESCE(SUM(invoices.amount), 0) AS total").Scan(&row).Error
		return row.Total, err
	}

	var err error
	if stats.TotalRevenue, err = revenue(nil); err != nil {
		return nil, err
	}
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if stats.TodayRevenue, err = revenue(&midnight); err != nil {
		return nil, err
	}

	return &stats, nil
}

// ListUsers returns a page of accounts, optionally filtered by name or email.
func (s *Store) ListUsers(ctx context.Context, pg utils.Pagination, search string) ([]models.User, int64, error) {
	query := s.conn(ctx).Model(&models.User{})
	if search != "" {
		pattern := likePattern(search)
		query = query.Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := query.Scopes(pg.Scope).Order("created_at desc").Find(&users).Error
	return users, total, err
}
