package store

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/marketplace/internal/apperr"
	"github.com/example/marketplace/internal/models"
)

// Tx is the set of writes a checkout performs atomically.
type Tx interface {
	CartLines(userID uuid.UUID) ([]models.Cart, error)
	// FindDiscountByCode returns nil, nil when no discount has the code.
	FindDiscountByCode(code string) (*models.Discount, error)
	// RedeemDiscount records the (user, discount) pair and reports whether
	// this call created it.
	RedeemDiscount(userID, discountID uuid.UUID) (bool, error)
	CreateOrderGroup(group *models.OrderGroup) error
	CreateOrder(order *models.Order) error
	DecrementStock(productID uuid.UUID, quantity int) error
	ClearCart(userID uuid.UUID) error
	// TakeCardPayment loads and deletes a staging row in one step.
	TakeCardPayment(id uuid.UUID) (*models.CardPayment, error)
	FindOrder(id uuid.UUID) (*models.Order, error)
	UpdateOrderStatus(id uuid.UUID, status models.OrderStatus) error
	MarkInvoicePaid(orderID uuid.UUID) error
}

type txStore struct {
	db *gorm.DB
}

func (t *txStore) CartLines(userID uuid.UUID) ([]models.Cart, error) {
	return cartLines(t.db, userID)
}

func cartLines(db *gorm.DB, userID uuid.UUID) ([]models.Cart, error) {
	var lines []models.Cart
	err := db.Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at asc").
		Find(&lines).Error
	return lines, err
}

func (t *txStore) FindDiscountByCode(code string) (*models.Discount, error) {
	var discount models.Discount
	if err := t.db.Where("code = ?", code).First(&discount).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &discount, nil
}

func (t *txStore) RedeemDiscount(userID, discountID uuid.UUID) (bool, error) {
	redeem := models.Redeem{UserID: userID, DiscountID: discountID}
	res := t.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&redeem)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (t *txStore) CreateOrderGroup(group *models.OrderGroup) error {
	return t.db.Create(group).Error
}

func (t *txStore) CreateOrder(order *models.Order) error {
	return t.db.Create(order).Error
}

func (t *txStore) DecrementStock(productID uuid.UUID, quantity int) error {
	res := t.db.Model(&models.Product{}).
		Where("id = ?", productID).
		UpdateColumn("stock", gorm.Expr("GREATEST(stock - ?, 0)", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("A product in your cart no longer exists.")
	}
	return nil
}

func (t *txStore) ClearCart(userID uuid.UUID) error {
	return t.db.Where("user_id = ?", userID).Delete(&models.Cart{}).Error
}

func (t *txStore) TakeCardPayment(id uuid.UUID) (*models.CardPayment, error) {
	var payment models.CardPayment
	if err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&payment, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Payment not found or already processed.")
	}

	res := t.db.Delete(&models.CardPayment{}, "id = ?", id)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperr.NotFound("Payment not found or already processed.")
	}

	return &payment, nil
}

func (t *txStore) FindOrder(id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := t.db.Preload("Product").Preload("Invoice").
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "Order not found.")
	}
	return &order, nil
}

func (t *txStore) UpdateOrderStatus(id uuid.UUID, status models.OrderStatus) error {
	return t.db.Model(&models.Order{}).Where("id = ?", id).Update("status", status).Error
}

func (t *txStore) MarkInvoicePaid(orderID uuid.UUID) error {
	return t.db.Model(&models.Invoice{}).
		Where("order_id = ?", orderID).
		Update("payment_status", models.PaymentStatusPaid).Error
}
